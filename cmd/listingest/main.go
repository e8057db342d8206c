// Command listingest extracts car listings from a text file and prints one
// per line.
//
//	listingest importFile.txt
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"

	"github.com/dgallion1/listingest/internal/app"
	"github.com/dgallion1/listingest/internal/config"
	"github.com/dgallion1/listingest/internal/parser"
	"github.com/dgallion1/listingest/internal/pipeline"
	"github.com/google/uuid"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: listingest <file>")
		os.Exit(2)
	}
	path := os.Args[1]

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "load configuration:", err)
		os.Exit(1)
	}
	// Logs go to stderr; stdout carries only listings.
	log := app.NewLogger(cfg, os.Stderr)
	if err := cfg.ValidateCLI(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	p, err := parser.ForFile(path, parser.Options{PDFFallbackPdftotext: cfg.PDFFallbackPdftotext})
	if err != nil {
		log.Error("unsupported input", "path", path, "error", err)
		os.Exit(1)
	}
	f, err := os.Open(path)
	if err != nil {
		log.Error("open input", "error", err)
		os.Exit(1)
	}
	doc, err := p.Parse(f, path)
	f.Close()
	if err != nil {
		log.Error("read input", "path", path, "error", err)
		os.Exit(1)
	}

	c, err := app.NewCompletion(cfg, log)
	if err != nil {
		log.Error("completion provider", "error", err)
		os.Exit(1)
	}
	defer c.Close()

	runLog := log.With("run_id", uuid.NewString(), "file", path)
	runLog.Info("starting run", "provider", cfg.Provider, "model", c.Model, "mode", cfg.StructureMode)

	listings, err := app.NewPipeline(cfg, c, runLog).Run(ctx, doc.Text, nil)
	if err != nil {
		runLog.Error("run failed", "error", err)
		c.Close()
		os.Exit(1)
	}

	snap := c.Stats().Snapshot()
	runLog.Info("run complete", "listings", len(listings), "llm_calls", snap.Calls, "llm_p95_ms", snap.P95Ms)
	if len(listings) > 0 {
		fmt.Println(pipeline.Format(listings))
	}
}
