// Package contentsearch shells out to ripgrep for file-content matches.
// Results are produced per-query, never pre-indexed.
package contentsearch

import (
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/cheru-app/cherud/internal/entry"
)

const (
	// Depth and size limits bound worst-case latency; there is no hard
	// timeout, a hung external process is a known limitation.
	maxDepth    = "3"
	maxFileSize = "1M"

	// MaxResults caps one query's file matches.
	MaxResults = 20
)

// Search returns files under the given roots whose contents match query,
// wrapped as FileMatch entries in the order the tool reports them
// (unranked). Ripgrep is capability-detected at call time; when it is not
// installed the result is empty, not an error.
func Search(query string, roots []string) []entry.Entry {
	if query == "" || len(roots) == 0 {
		return nil
	}
	rg, err := exec.LookPath("rg")
	if err != nil {
		return nil
	}

	args := []string{
		"--files-with-matches",
		"--fixed-strings",
		"--smart-case",
		"--max-depth", maxDepth,
		"--max-filesize", maxFileSize,
		"--max-count", "1",
		query,
	}
	args = append(args, roots...)

	// rg exits non-zero when nothing matches; any output still counts.
	out, _ := exec.Command(rg, args...).Output()
	if len(out) == 0 {
		return nil
	}

	var results []entry.Entry
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		if line == "" {
			continue
		}
		results = append(results, entry.Entry{
			Name:        filepath.Base(line),
			Target:      line,
			Description: filepath.Dir(line),
			Kind:        entry.FileMatch,
		})
		if len(results) >= MaxResults {
			break
		}
	}
	return results
}
