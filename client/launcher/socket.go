package launcher

import (
	"fmt"
	"os"
	"os/user"
	"strings"
)

// getSocketPath returns the Unix socket path for cherud
func getSocketPath() (string, error) {
	// Check environment variable first
	socketPath := os.Getenv("CHERU_SOCK")
	if socketPath != "" {
		if strings.HasPrefix(socketPath, "~") {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			socketPath = strings.Replace(socketPath, "~", home, 1)
		}
		return socketPath, nil
	}

	// Default: use user ID-based path
	currentUser, err := user.Current()
	if err != nil {
		return "", fmt.Errorf("failed to get current user: %w", err)
	}
	return fmt.Sprintf("/tmp/cheru-%s/indexd", currentUser.Uid), nil
}
