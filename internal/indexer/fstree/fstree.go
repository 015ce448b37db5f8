package fstree

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/cheru-app/cherud/internal/entry"
)

const (
	// MaxDepth bounds the recursion below each root.
	MaxDepth = 3
	// FolderCap and ImageCap bound index size to keep query latency flat
	// on large home directories.
	FolderCap = 500
	ImageCap  = 2000
)

// DefaultExcludes are pruned without descending: build output, caches,
// version-control metadata, package-manager trees and platform-reserved
// directories. Patterns are doublestar globs matched against the base
// name, so config can add entries like "*.cache".
var DefaultExcludes = []string{
	"node_modules",
	"target",
	"build",
	"dist",
	"out",
	"vendor",
	"__pycache__",
	".git",
	".svn",
	".hg",
	".cache",
	".venv",
	"venv",
	"Library",
	"Applications",
}

var imageExts = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".gif":  {},
	".webp": {},
	".svg":  {},
	".bmp":  {},
	".tiff": {},
	".heic": {},
}

// DefaultRoots returns the personal directories the folder and image
// indices are built from.
func DefaultRoots() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	return []string{
		filepath.Join(home, "Desktop"),
		filepath.Join(home, "Documents"),
		filepath.Join(home, "Downloads"),
		filepath.Join(home, "Pictures"),
		filepath.Join(home, "Projects"),
	}
}

// Walker is the bounded, exclusion-aware recursive walk shared by the
// folder and image index builders.
type Walker struct {
	Roots    []string
	MaxDepth int
	Cap      int
	Excludes []string
	Kind     entry.Kind
	// Accept decides whether one directory entry becomes an index entry.
	Accept func(de fs.DirEntry) bool
}

// Run walks the roots and returns the finished index. The walk stops as
// soon as the cap is reached; a seen set of canonical paths keeps a path
// reached via two root or symlink routes from being emitted twice.
func (w *Walker) Run() entry.Index {
	b := entry.NewBuilder(w.Cap)
	seen := make(map[string]struct{})
	for _, root := range w.Roots {
		if b.Full() {
			break
		}
		w.walk(root, 1, b, seen)
	}
	return b.Index()
}

func (w *Walker) walk(dir string, depth int, b *entry.Builder, seen map[string]struct{}) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, de := range ents {
		if b.Full() {
			return
		}
		name := de.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		path := filepath.Join(dir, name)
		if de.IsDir() {
			if w.excluded(name) || strings.HasSuffix(name, ".app") {
				continue
			}
			if w.Accept(de) {
				w.emit(path, name, b, seen)
			}
			if depth < w.MaxDepth {
				w.walk(path, depth+1, b, seen)
			}
			continue
		}
		if w.Accept(de) {
			w.emit(path, name, b, seen)
		}
	}
}

// emit canonicalizes the path and adds the entry keyed on the canonical
// form. Paths that fail resolution (dangling symlinks, permission) are
// skipped.
func (w *Walker) emit(path, name string, b *entry.Builder, seen map[string]struct{}) {
	canonical, err := filepath.EvalSymlinks(path)
	if err != nil {
		return
	}
	if _, dup := seen[canonical]; dup {
		return
	}
	seen[canonical] = struct{}{}
	b.Add(canonical, entry.Entry{
		Name:   name,
		Target: canonical,
		Kind:   w.Kind,
	})
}

func (w *Walker) excluded(name string) bool {
	for _, pattern := range w.Excludes {
		if ok, err := doublestar.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}

// BuildFolders builds the folder index from the given roots. Extra exclude
// globs from config are appended to the defaults.
func BuildFolders(roots, extraExcludes []string) entry.Index {
	w := &Walker{
		Roots:    roots,
		MaxDepth: MaxDepth,
		Cap:      FolderCap,
		Excludes: append(append([]string{}, DefaultExcludes...), extraExcludes...),
		Kind:     entry.Folder,
		Accept:   func(de fs.DirEntry) bool { return de.IsDir() },
	}
	return w.Run()
}

// BuildImages builds the image index from the given roots.
func BuildImages(roots, extraExcludes []string) entry.Index {
	w := &Walker{
		Roots:    roots,
		MaxDepth: MaxDepth,
		Cap:      ImageCap,
		Excludes: append(append([]string{}, DefaultExcludes...), extraExcludes...),
		Kind:     entry.Image,
		Accept: func(de fs.DirEntry) bool {
			return !de.IsDir() && IsImage(de.Name())
		},
	}
	return w.Run()
}

// IsImage reports whether a file name carries an indexed image extension.
func IsImage(name string) bool {
	_, ok := imageExts[strings.ToLower(filepath.Ext(name))]
	return ok
}

// ListDir returns the immediate folder and image children of dir, for the
// browse operation: folders first, each group sorted case-insensitively by
// name. Hidden entries and bundles are skipped.
func ListDir(dir string) (entry.Index, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []entry.Entry
	for _, de := range ents {
		name := de.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		path := filepath.Join(dir, name)
		switch {
		case de.IsDir() && !strings.HasSuffix(name, ".app"):
			out = append(out, entry.Entry{Name: name, Target: path, Kind: entry.Folder})
		case !de.IsDir() && IsImage(name):
			out = append(out, entry.Entry{Name: name, Target: path, Kind: entry.Image})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind == entry.Folder
		}
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return entry.Index(out), nil
}
