package launchgate

import (
	"os/exec"
	"runtime"
)

// Spawner abstracts the platform open/execute primitive. Tests substitute
// a recording implementation; only validated targets ever reach it.
type Spawner interface {
	// OpenBundle opens an application bundle through the system opener.
	OpenBundle(path string, args []string) error
	// Exec starts a validated command line directly.
	Exec(argv []string) error
	// OpenPath reveals a file or directory in the user's file manager.
	OpenPath(path string) error
}

// NativeSpawner dispatches to the host OS.
type NativeSpawner struct{}

func (NativeSpawner) OpenBundle(path string, args []string) error {
	argv := append([]string{"-a", path}, args...)
	return exec.Command("open", argv...).Start()
}

func (NativeSpawner) Exec(argv []string) error {
	return exec.Command(argv[0], argv[1:]...).Start()
}

func (NativeSpawner) OpenPath(path string) error {
	opener := "xdg-open"
	if runtime.GOOS == "darwin" {
		opener = "open"
	}
	return exec.Command(opener, path).Start()
}
