package matcher

import (
	"sort"
	"strings"
	"unicode"

	"github.com/hbollon/go-edlib"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// FuzzyMatcher scores index entries against a typed query and returns the
// matching positions ordered best-first. It keeps reusable scratch state
// (the normalization chain and the score buffer) and is NOT safe for
// concurrent use; callers must serialize access.
type FuzzyMatcher struct {
	strip  transform.Transformer
	scored []scoredIdx
}

type scoredIdx struct {
	idx   int
	score float64
}

// New creates a fuzzy matcher.
func New() *FuzzyMatcher {
	return &FuzzyMatcher{
		// NFD + drop combining marks, so "é" matches "e".
		strip: transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
	}
}

// Search returns indices into names sorted by descending match score.
//
// An empty query returns every index in input order; callers rely on this
// to show the full pre-sorted index when the search box is empty. Names
// that cannot match the query at all are excluded, not scored as zero.
// Case matching is smart: queries without uppercase match
// case-insensitively. The relative order of equal scores is unspecified.
func (m *FuzzyMatcher) Search(query string, names []string) []int {
	if query == "" {
		all := make([]int, len(names))
		for i := range all {
			all[i] = i
		}
		return all
	}

	ignoreCase := !hasUpper(query)
	q := m.fold(query, ignoreCase)

	m.scored = m.scored[:0]
	for i, name := range names {
		n := m.fold(name, ignoreCase)
		if !isSubsequence(q, n) {
			continue
		}
		m.scored = append(m.scored, scoredIdx{idx: i, score: m.score(q, n)})
	}

	sort.SliceStable(m.scored, func(i, j int) bool {
		return m.scored[i].score > m.scored[j].score
	})

	out := make([]int, len(m.scored))
	for i, s := range m.scored {
		out[i] = s.idx
	}
	return out
}

// score rates a candidate that already passed the subsequence gate.
// Jaro-Winkler gives the base similarity; exact prefixes and matches
// starting at a word boundary rank above scattered hits.
func (m *FuzzyMatcher) score(q, name string) float64 {
	sim, err := edlib.StringsSimilarity(q, name, edlib.JaroWinkler)
	score := float64(sim)
	if err != nil {
		score = 0
	}
	if strings.HasPrefix(name, q) {
		score += 0.5
	} else if wordBoundaryPrefix(q, name) {
		score += 0.25
	}
	return score
}

// fold normalizes a string for comparison: diacritics stripped, and
// lowercased unless the query asked for case-sensitive matching.
func (m *FuzzyMatcher) fold(s string, ignoreCase bool) string {
	if folded, _, err := transform.String(m.strip, s); err == nil {
		s = folded
	}
	if ignoreCase {
		s = strings.ToLower(s)
	}
	return s
}

func hasUpper(s string) bool {
	for _, r := range s {
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}

// isSubsequence reports whether every rune of q appears in s in order.
func isSubsequence(q, s string) bool {
	runes := []rune(s)
	pos := 0
	for _, qr := range q {
		found := false
		for pos < len(runes) {
			if runes[pos] == qr {
				found = true
				pos++
				break
			}
			pos++
		}
		if !found {
			return false
		}
	}
	return true
}

// wordBoundaryPrefix reports whether some word of name starts with q.
func wordBoundaryPrefix(q, name string) bool {
	for _, word := range strings.FieldsFunc(name, func(r rune) bool {
		return r == ' ' || r == '-' || r == '_' || r == '.'
	}) {
		if strings.HasPrefix(word, q) {
			return true
		}
	}
	return false
}
