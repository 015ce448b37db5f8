package entry

import (
	"sort"
	"strings"
)

// Kind identifies the source an Entry came from.
type Kind int

const (
	Application Kind = iota
	Folder
	Image
	SystemAction
	FileMatch
)

func (k Kind) String() string {
	switch k {
	case Application:
		return "app"
	case Folder:
		return "folder"
	case Image:
		return "image"
	case SystemAction:
		return "action"
	case FileMatch:
		return "file"
	}
	return "unknown"
}

// Entry is one launchable or openable item surfaced by search.
// Name, Target and Kind are fixed once the entry is in an index; only Icon
// may be updated afterwards, by the icon enrichment pass.
type Entry struct {
	Name        string // display name
	Target      string // executable path, directory, cheru: action id, or file path
	Icon        string // optional icon reference, may be filled in later
	Description string // optional subtitle
	Kind        Kind
}

// Index is the sorted, deduplicated collection of entries for one kind.
type Index []Entry

// Names returns the display names in index order, for scoring.
func (ix Index) Names() []string {
	names := make([]string, len(ix))
	for i, e := range ix {
		names[i] = e.Name
	}
	return names
}

// Builder accumulates entries for one index. It enforces the per-kind
// identity dedup (first occurrence wins), the size cap, and the final
// case-insensitive name order. Identity keys are computed by the indexer
// from the canonicalized source, not from the display name.
type Builder struct {
	max     int
	seen    map[string]struct{}
	entries []Entry
}

// NewBuilder creates a builder. max <= 0 means uncapped.
func NewBuilder(max int) *Builder {
	return &Builder{
		max:  max,
		seen: make(map[string]struct{}),
	}
}

// Add inserts an entry under the given identity key. It reports whether the
// entry was accepted; duplicates and additions past the cap are dropped.
func (b *Builder) Add(key string, e Entry) bool {
	if b.Full() {
		return false
	}
	if _, dup := b.seen[key]; dup {
		return false
	}
	b.seen[key] = struct{}{}
	b.entries = append(b.entries, e)
	return true
}

// Full reports whether the size cap has been reached. Walkers use this to
// stop traversal early.
func (b *Builder) Full() bool {
	return b.max > 0 && len(b.entries) >= b.max
}

// Len returns the number of accepted entries so far.
func (b *Builder) Len() int {
	return len(b.entries)
}

// Index sorts the accepted entries case-insensitively by name and returns
// the finished index. The builder must not be reused afterwards.
func (b *Builder) Index() Index {
	sort.SliceStable(b.entries, func(i, j int) bool {
		return strings.ToLower(b.entries[i].Name) < strings.ToLower(b.entries[j].Name)
	})
	return Index(b.entries)
}
