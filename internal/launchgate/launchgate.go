// Package launchgate validates launch targets before any external process
// is spawned. Nothing reaches the platform's open/execute primitive
// without passing the allow-list checks here.
package launchgate

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cheru-app/cherud/internal/sysaction"
)

// Allow-listed executable locations. The user's personal applications
// directory is appended at construction time.
var (
	systemAppDirs = []string{
		"/Applications",
		"/System/Applications",
		"/System/Applications/Utilities",
	}
	systemBinDirs = []string{
		"/usr/bin",
		"/usr/local/bin",
		"/bin",
		"/usr/sbin",
		"/sbin",
		"/opt/homebrew/bin",
	}
)

// Gate validates and dispatches launch targets. Fields are fixed after New;
// tests construct Gates with their own directories.
type Gate struct {
	AllowDirs []string
	Home      string
	Spawner   Spawner
	// RunAction dispatches a resolved system action.
	RunAction func(sysaction.Action) error
}

// New creates a gate with the platform allow-list and the native spawner.
func New() *Gate {
	g := &Gate{
		AllowDirs: DefaultAllowDirs(),
		Spawner:   NativeSpawner{},
		RunAction: sysaction.Run,
	}
	if home, err := os.UserHomeDir(); err == nil {
		// Containment compares canonical paths, so a home directory that
		// itself traverses a symlink must be canonicalized too.
		if canonical, err := filepath.EvalSymlinks(home); err == nil {
			home = canonical
		}
		g.Home = home
	}
	return g
}

// DefaultAllowDirs returns the fixed launch allow-list: system application
// directories, system binary directories, and the invoking user's personal
// applications directory.
func DefaultAllowDirs() []string {
	dirs := make([]string, 0, len(systemAppDirs)+len(systemBinDirs)+1)
	dirs = append(dirs, systemAppDirs...)
	dirs = append(dirs, systemBinDirs...)
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, "Applications"))
	}
	return dirs
}

// Launch validates a launch target and, only if every check passes,
// dispatches it through the spawner with any remaining arguments attached
// verbatim. System-action targets resolve through the static action table
// instead of the filesystem checks.
func (g *Gate) Launch(target string) error {
	if strings.HasPrefix(target, sysaction.Scheme) {
		act, ok := sysaction.Lookup(target)
		if !ok {
			return &LaunchError{Reason: ReasonUnknownAction, Path: target}
		}
		if err := g.RunAction(act); err != nil {
			return &SpawnError{Cmd: target, Err: err}
		}
		return nil
	}

	cmdline := StripFieldCodes(target)
	if cmdline == "" {
		return &LaunchError{Reason: ReasonEmptyCommand}
	}

	// Bundle paths may contain spaces and are taken whole; otherwise the
	// first whitespace token is the executable and the rest are arguments.
	exePath := cmdline
	var args []string
	if !isBundlePath(cmdline) {
		fields := strings.Fields(cmdline)
		exePath, args = fields[0], fields[1:]
	}

	if !filepath.IsAbs(exePath) {
		return &LaunchError{Reason: ReasonNotAbsolute, Path: exePath}
	}
	canonical, err := filepath.EvalSymlinks(exePath)
	if err != nil {
		return &LaunchError{Reason: ReasonResolveFailed, Path: exePath}
	}
	if !underAny(canonical, g.AllowDirs) {
		return &LaunchError{Reason: ReasonOutsideAllowList, Path: canonical}
	}

	if isBundlePath(canonical) || isBundlePath(exePath) {
		err = g.Spawner.OpenBundle(canonical, args)
	} else {
		err = g.Spawner.Exec(append([]string{canonical}, args...))
	}
	if err != nil {
		return &SpawnError{Cmd: cmdline, Err: err}
	}
	return nil
}

// OpenPath validates a filesystem path with the narrower home-containment
// rule and hands it to the platform opener.
func (g *Gate) OpenPath(path string) error {
	canonical, err := g.ValidatePath(path)
	if err != nil {
		return err
	}
	if err := g.Spawner.OpenPath(canonical); err != nil {
		return &SpawnError{Cmd: canonical, Err: err}
	}
	return nil
}

// ValidatePath applies the open/browse rules: absolute, exists,
// canonicalizes, and the canonical result is contained under the invoking
// user's home directory. No system-path exception. Returns the canonical
// path.
func (g *Gate) ValidatePath(path string) (string, error) {
	if path == "" {
		return "", &LaunchError{Reason: ReasonEmptyCommand}
	}
	if !filepath.IsAbs(path) {
		return "", &LaunchError{Reason: ReasonNotAbsolute, Path: path}
	}
	canonical, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", &LaunchError{Reason: ReasonResolveFailed, Path: path}
	}
	if g.Home == "" || !under(canonical, g.Home) {
		return "", &LaunchError{Reason: ReasonOutsideHome, Path: canonical}
	}
	return canonical, nil
}

// StripFieldCodes removes the %-placeholder tokens that desktop manifests
// embed for arguments the launcher does not supply.
func StripFieldCodes(cmdline string) string {
	fields := strings.Fields(cmdline)
	kept := fields[:0]
	for _, f := range fields {
		if !strings.HasPrefix(f, "%") {
			kept = append(kept, f)
		}
	}
	return strings.Join(kept, " ")
}

func isBundlePath(p string) bool {
	return strings.HasSuffix(p, ".app") || strings.Contains(p, ".app/")
}

// under compares at path-segment boundaries, so "/usr/binfoo" does not
// match the allowed prefix "/usr/bin".
func under(path, dir string) bool {
	dir = strings.TrimSuffix(dir, string(filepath.Separator))
	if path == dir {
		return true
	}
	return strings.HasPrefix(path, dir+string(filepath.Separator))
}

func underAny(path string, dirs []string) bool {
	for _, dir := range dirs {
		if under(path, dir) {
			return true
		}
	}
	return false
}
