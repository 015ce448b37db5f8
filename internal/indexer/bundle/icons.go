package bundle

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"

	"github.com/cheru-app/cherud/internal/entry"
)

const iconSize = "128"

// DefaultCacheDir returns the per-user icon cache directory.
func DefaultCacheDir() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user cache directory: %w", err)
	}
	return filepath.Join(cacheDir, "cheru", "icons"), nil
}

// NormalizeIcons rasterizes .icns icon references to fixed-size PNGs in
// cacheDir, updating each entry's Icon field to the cache path. It mutates
// only Icon fields; the caller must hold the catalog write lock for the
// duration of the pass. Entries whose cache file already exists are not
// converted again, so repeated passes are idempotent. Conversion failures
// leave the entry's icon untouched.
func NormalizeIcons(ix entry.Index, cacheDir string) {
	if err := os.MkdirAll(cacheDir, 0750); err != nil {
		return
	}
	for i := range ix {
		e := &ix[i]
		if !strings.HasSuffix(e.Icon, ".icns") {
			continue
		}
		out := filepath.Join(cacheDir, cacheFileName(e.Name))
		if _, err := os.Stat(out); err == nil {
			e.Icon = out
			continue
		}
		if err := rasterize(e.Icon, out); err != nil {
			continue
		}
		e.Icon = out
	}
}

// cacheFileName keys the cache file on a sanitized entry name plus a hash
// of the full name, so "Safari" and "Safari!" cannot collide after
// sanitization.
func cacheFileName(name string) string {
	return fmt.Sprintf("%s-%x.png", sanitize(name), xxhash.Sum64String(name))
}

func sanitize(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('-')
		}
	}
	return b.String()
}

func rasterize(src, dst string) error {
	cmd := exec.Command("sips", "-s", "format", "png", "-z", iconSize, iconSize, src, "--out", dst)
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard
	if err := cmd.Run(); err != nil {
		// Leave no partial output behind
		os.Remove(dst)
		return err
	}
	return nil
}
