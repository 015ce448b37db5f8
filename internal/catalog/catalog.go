// Package catalog owns the launcher indices and the ranking engine, and
// coordinates concurrent query callers against the background enrichment
// task and the lazy index builds.
package catalog

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/cheru-app/cherud/internal/contentsearch"
	"github.com/cheru-app/cherud/internal/entry"
	"github.com/cheru-app/cherud/internal/indexer/bundle"
	"github.com/cheru-app/cherud/internal/indexer/fstree"
	"github.com/cheru-app/cherud/internal/launchgate"
	"github.com/cheru-app/cherud/internal/matcher"
	"github.com/cheru-app/cherud/internal/sysaction"
)

// Result caps and the minimum query length for the filesystem-backed
// searches.
const (
	MaxAppResults    = 50
	MaxFolderResults = 10
	MaxImageResults  = 20
	MinQueryLen      = 2
)

// lazyIndex is a single-build latch: the first caller triggers the build,
// concurrent callers block until it finishes, and the result is memoized
// for the process lifetime.
type lazyIndex struct {
	once  sync.Once
	build func() entry.Index
	done  atomic.Bool
	ix    entry.Index
}

func (l *lazyIndex) get() entry.Index {
	l.once.Do(func() {
		l.ix = l.build()
		l.done.Store(true)
	})
	return l.ix
}

// size reports the built size without forcing a build.
func (l *lazyIndex) size() (int, bool) {
	if !l.done.Load() {
		return 0, false
	}
	return len(l.ix), true
}

// Catalog holds one index per source kind plus the single ranking-engine
// instance. The application index sits behind a reader/writer lock so the
// icon enrichment pass can mutate it exclusively; folder and image indices
// are built lazily, at most once; the matcher is serialized behind its own
// mutex because its scratch state is not shareable.
type Catalog struct {
	mu   sync.RWMutex
	apps entry.Index

	folders *lazyIndex
	images  *lazyIndex
	actions entry.Index

	matcherMu sync.Mutex
	matcher   *matcher.FuzzyMatcher

	roots    []string
	excludes []string
	gate     *launchgate.Gate
}

// Options configures a Catalog. Zero values select the platform defaults.
type Options struct {
	Roots    []string // personal directories for the folder/image walk
	Excludes []string // extra exclude globs
	Gate     *launchgate.Gate

	// BuildFolders and BuildImages replace the default filesystem walks
	// behind the lazy indices.
	BuildFolders func() entry.Index
	BuildImages  func() entry.Index
}

// New creates a Catalog. The application index starts empty; callers build
// it with SetApplications. Folder and image indices build on first query.
func New(opts Options) *Catalog {
	c := &Catalog{
		roots:    opts.Roots,
		excludes: opts.Excludes,
		actions:  sysaction.Index(),
		matcher:  matcher.New(),
		gate:     opts.Gate,
	}
	if c.roots == nil {
		c.roots = fstree.DefaultRoots()
	}
	if c.gate == nil {
		c.gate = launchgate.New()
	}
	buildFolders := opts.BuildFolders
	if buildFolders == nil {
		buildFolders = func() entry.Index {
			return fstree.BuildFolders(c.roots, c.excludes)
		}
	}
	buildImages := opts.BuildImages
	if buildImages == nil {
		buildImages = func() entry.Index {
			return fstree.BuildImages(c.roots, c.excludes)
		}
	}
	c.folders = &lazyIndex{build: buildFolders}
	c.images = &lazyIndex{build: buildImages}
	return c
}

// SetApplications replaces the application index. Called once at startup
// with the platform discovery result.
func (c *Catalog) SetApplications(ix entry.Index) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.apps = ix
}

// Warmup forces the lazy indices to build now, in parallel, instead of on
// first query.
func (c *Catalog) Warmup(ctx context.Context) {
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error { c.folders.get(); return nil })
	g.Go(func() error { c.images.get(); return nil })
	g.Wait()
}

// Gate returns the launch security gate.
func (c *Catalog) Gate() *launchgate.Gate {
	return c.gate
}

// rank scores an index against the query under the matcher lock and
// returns up to max entries best-first. The matcher's scratch state makes
// it unsafe for concurrent use, so query calls serialize here but not at
// the index-read step.
func (c *Catalog) rank(query string, ix entry.Index, max int) []entry.Entry {
	c.matcherMu.Lock()
	indices := c.matcher.Search(query, ix.Names())
	c.matcherMu.Unlock()

	if max > 0 && len(indices) > max {
		indices = indices[:max]
	}
	out := make([]entry.Entry, len(indices))
	for i, idx := range indices {
		out[i] = ix[idx]
	}
	return out
}

// SearchApplications returns up to 50 applications ranked against query;
// an empty query returns the head of the name-sorted index.
func (c *Catalog) SearchApplications(query string) []entry.Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rank(query, c.apps, MaxAppResults)
}

// SearchActions ranks the static system-action table against query.
func (c *Catalog) SearchActions(query string) []entry.Entry {
	return c.rank(query, c.actions, MaxAppResults)
}

// SearchFolders returns up to 10 folders ranked against query. Queries
// shorter than two runes return nothing; the first call triggers the
// directory walk.
func (c *Catalog) SearchFolders(query string) []entry.Entry {
	if utf8.RuneCountInString(query) < MinQueryLen {
		return nil
	}
	return c.rank(query, c.folders.get(), MaxFolderResults)
}

// SearchImages returns up to 20 images ranked against query, built lazily
// like the folder index.
func (c *Catalog) SearchImages(query string) []entry.Entry {
	if utf8.RuneCountInString(query) < MinQueryLen {
		return nil
	}
	return c.rank(query, c.images.get(), MaxImageResults)
}

// SearchFileContents shells out to the external content search, bounded by
// its own depth/size/result caps. Unranked; empty when the tool is
// unavailable.
func (c *Catalog) SearchFileContents(query string) []entry.Entry {
	if utf8.RuneCountInString(query) < MinQueryLen {
		return nil
	}
	return contentsearch.Search(query, c.roots)
}

// BrowseDirectory lists the immediate folder and image children of a
// home-contained directory, fuzzy-filtered when filter is non-empty, else
// type-then-name sorted.
func (c *Catalog) BrowseDirectory(path, filter string) ([]entry.Entry, error) {
	canonical, err := c.gate.ValidatePath(path)
	if err != nil {
		return nil, err
	}
	children, err := fstree.ListDir(canonical)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", canonical, err)
	}
	if filter == "" {
		return children, nil
	}
	return c.rank(filter, children, 0), nil
}

// EnrichIcons runs the application icon normalization pass under the write
// lock, so concurrent queries see the index fully before or fully after
// the pass, never mid-mutation.
func (c *Catalog) EnrichIcons(cacheDir string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	bundle.NormalizeIcons(c.apps, cacheDir)
}

// IndexSize returns the application index size (diagnostic).
func (c *Catalog) IndexSize() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.apps)
}

// Sizes reports every index size without forcing lazy builds; unbuilt
// indices report -1.
func (c *Catalog) Sizes() (apps, folders, images, actions int) {
	apps = c.IndexSize()
	folders, images = -1, -1
	if n, ok := c.folders.size(); ok {
		folders = n
	}
	if n, ok := c.images.size(); ok {
		images = n
	}
	return apps, folders, images, len(c.actions)
}
