// Package indexer builds the launcher's application index, polymorphic
// over the host platform's application-discovery mechanism.
package indexer

import (
	"log"
	"runtime"

	"github.com/cheru-app/cherud/internal/entry"
	"github.com/cheru-app/cherud/internal/indexer/bundle"
	"github.com/cheru-app/cherud/internal/indexer/desktop"
)

// Discovery enumerates the installed launchable applications with one
// platform strategy. Implementations return a finished index: deduplicated
// by name and sorted case-insensitively.
type Discovery interface {
	Discover() (entry.Index, error)
}

// ForPlatform selects the discovery strategy for a GOOS value. Platforms
// without a supported strategy get nil; callers treat that as an empty
// index, not an error.
func ForPlatform(goos string) Discovery {
	switch goos {
	case "linux":
		return desktop.New()
	case "darwin":
		return bundle.New()
	}
	return nil
}

// BuildApplications builds the application index for the host platform.
func BuildApplications() entry.Index {
	d := ForPlatform(runtime.GOOS)
	if d == nil {
		log.Printf("[WARN] No application discovery strategy for %s", runtime.GOOS)
		return entry.Index{}
	}
	ix, err := d.Discover()
	if err != nil {
		log.Printf("[ERROR] Application discovery failed: %v", err)
		return entry.Index{}
	}
	return ix
}
