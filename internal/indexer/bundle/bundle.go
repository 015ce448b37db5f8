package bundle

import (
	"os"
	"path/filepath"
	"strings"

	"howett.net/plist"

	"github.com/cheru-app/cherud/internal/entry"
)

// Discovery enumerates launchable applications from .app bundle packages in
// the well-known bundle roots. The launch target is the bundle path itself,
// not an extracted binary.
type Discovery struct {
	Dirs []string
}

// New creates a Discovery over the standard bundle roots.
func New() *Discovery {
	return &Discovery{Dirs: DefaultDirs()}
}

// DefaultDirs returns the standard bundle roots, including the invoking
// user's personal applications directory.
func DefaultDirs() []string {
	dirs := []string{
		"/Applications",
		"/System/Applications",
		"/System/Applications/Utilities",
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, "Applications"))
	}
	return dirs
}

// Discover scans the bundle roots and builds the application index,
// deduplicated by name (first occurrence wins) and sorted
// case-insensitively. Bundles with unreadable metadata are skipped.
func (d *Discovery) Discover() (entry.Index, error) {
	b := entry.NewBuilder(0)
	for _, dir := range d.Dirs {
		ents, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, de := range ents {
			if filepath.Ext(de.Name()) != ".app" {
				continue
			}
			path := filepath.Join(dir, de.Name())
			e, err := parseBundle(path)
			if err != nil {
				continue
			}
			b.Add(e.Name, e)
		}
	}
	return b.Index(), nil
}

// bundleInfo is the subset of the embedded Info.plist dictionary the
// launcher reads.
type bundleInfo struct {
	DisplayName   string `plist:"CFBundleDisplayName"`
	Name          string `plist:"CFBundleName"`
	IconFile      string `plist:"CFBundleIconFile"`
	GetInfoString string `plist:"CFBundleGetInfoString"`
}

func parseBundle(path string) (entry.Entry, error) {
	data, err := os.ReadFile(filepath.Join(path, "Contents", "Info.plist"))
	if err != nil {
		return entry.Entry{}, err
	}

	var info bundleInfo
	if _, err := plist.Unmarshal(data, &info); err != nil {
		return entry.Entry{}, err
	}

	name := info.DisplayName
	if name == "" {
		name = info.Name
	}
	if name == "" {
		// Fall back to the .app folder name
		name = strings.TrimSuffix(filepath.Base(path), ".app")
	}

	return entry.Entry{
		Name:        name,
		Target:      path,
		Icon:        iconPath(path, info.IconFile),
		Description: info.GetInfoString,
		Kind:        entry.Application,
	}, nil
}

// iconPath resolves the CFBundleIconFile reference to an absolute .icns
// path inside the bundle, or "" when absent.
func iconPath(bundlePath, iconFile string) string {
	if iconFile == "" {
		return ""
	}
	if filepath.Ext(iconFile) == "" {
		iconFile += ".icns"
	}
	p := filepath.Join(bundlePath, "Contents", "Resources", iconFile)
	if _, err := os.Stat(p); err != nil {
		return ""
	}
	return p
}
