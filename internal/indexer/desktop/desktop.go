package desktop

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cheru-app/cherud/internal/entry"
)

// Discovery enumerates launchable applications from freedesktop .desktop
// manifests in the well-known application directories.
type Discovery struct {
	Dirs []string
}

// New creates a Discovery over the standard manifest locations.
func New() *Discovery {
	return &Discovery{Dirs: DefaultDirs()}
}

// DefaultDirs returns the standard .desktop manifest locations.
func DefaultDirs() []string {
	dirs := []string{
		"/usr/share/applications",
		"/usr/local/share/applications",
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".local/share/applications"))
	}
	return dirs
}

// Discover scans the manifest directories and builds the application index:
// deduplicated by name (first occurrence wins) and sorted case-insensitively.
// Unreadable or malformed manifests are skipped, never fatal.
func (d *Discovery) Discover() (entry.Index, error) {
	b := entry.NewBuilder(0)
	for _, dir := range d.Dirs {
		scanDir(dir, b)
	}
	return b.Index(), nil
}

func scanDir(root string, b *entry.Builder) {
	filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() || !strings.HasSuffix(path, ".desktop") {
			return nil
		}

		mf, err := parseManifest(path)
		if err != nil {
			return nil
		}
		if !mf.launchable() {
			return nil
		}

		b.Add(mf.name, entry.Entry{
			Name:        mf.name,
			Target:      mf.exec,
			Icon:        mf.icon,
			Description: mf.comment,
			Kind:        entry.Application,
		})
		return nil
	})
}

// manifest holds the keys of one [Desktop Entry] section that the launcher
// cares about.
type manifest struct {
	typ       string
	name      string
	exec      string
	icon      string
	comment   string
	noDisplay bool
	hidden    bool
}

// launchable applies the visibility rules: only Application-typed, visible
// manifests with both a name and a launch command are indexed.
func (m *manifest) launchable() bool {
	return m.typ == "Application" && !m.noDisplay && !m.hidden &&
		m.name != "" && m.exec != ""
}

func parseManifest(path string) (*manifest, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	mf := &manifest{}
	scanner := bufio.NewScanner(file)
	inDesktopEntry := false

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Section header; only [Desktop Entry] matters
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			inDesktopEntry = strings.Trim(line, "[]") == "Desktop Entry"
			continue
		}
		if !inDesktopEntry {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		switch key {
		case "Type":
			mf.typ = value
		case "Name":
			mf.name = value
		case "Exec":
			mf.exec = value
		case "Icon":
			mf.icon = value
		case "Comment":
			mf.comment = value
		case "NoDisplay":
			mf.noDisplay = strings.EqualFold(value, "true")
		case "Hidden":
			mf.hidden = strings.EqualFold(value, "true")
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if mf.name == "" && mf.exec == "" {
		return nil, fmt.Errorf("manifest %s: missing required fields", path)
	}
	return mf, nil
}
