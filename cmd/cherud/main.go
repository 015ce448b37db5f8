package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/cheru-app/cherud/internal/catalog"
	"github.com/cheru-app/cherud/internal/config"
	"github.com/cheru-app/cherud/internal/indexer"
	"github.com/cheru-app/cherud/internal/indexer/bundle"
	"github.com/cheru-app/cherud/internal/indexer/fstree"
	"github.com/cheru-app/cherud/internal/runhist"
	"github.com/cheru-app/cherud/server"
)

func main() {
	// Initialize configuration
	if err := config.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize config: %v\n", err)
		os.Exit(1)
	}

	// Start config watcher
	if err := config.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start config watcher: %v\n", err)
		os.Exit(1)
	}
	cfg := config.Get()

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Build the catalog; the application index is eager, folder and image
	// indices build on first query unless warmup is configured.
	cat := catalog.New(catalog.Options{
		Roots:    append(fstree.DefaultRoots(), cfg.ExtraRoots()...),
		Excludes: cfg.Exclude(),
	})
	cat.SetApplications(indexer.BuildApplications())
	log.Printf("Indexed %d applications", cat.IndexSize())

	if cfg.Warmup() {
		cat.Warmup(ctx)
		_, folders, images, _ := cat.Sizes()
		log.Printf("Warmed up %d folders, %d images", folders, images)
	}

	// Launch history is best effort
	history, err := runhist.Open()
	if err != nil {
		log.Printf("[WARN] Launch history unavailable: %v", err)
		history = nil
	} else {
		defer history.Close()
	}

	// Background icon enrichment: spawned once, never restarted. Takes the
	// catalog write lock while it rewrites icon references.
	go func() {
		cacheDir, err := bundle.DefaultCacheDir()
		if err != nil {
			log.Printf("[WARN] Icon cache unavailable: %v", err)
			return
		}
		cat.EnrichIcons(cacheDir)
		log.Printf("Icon conversion complete")
	}()

	// Create server
	srv, err := server.NewServer(cat, history)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create server: %v\n", err)
		os.Exit(1)
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start(ctx)
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	fmt.Println("cherud started")

	select {
	case sig := <-sigChan:
		fmt.Printf("\nReceived signal: %v\n", sig)
		cancel()
		if err := srv.Stop(); err != nil {
			fmt.Fprintf(os.Stderr, "Error stopping server: %v\n", err)
		}
	case err := <-serverErr:
		if err != nil {
			fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
			os.Exit(1)
		}
	}

	fmt.Println("cherud stopped")
}
