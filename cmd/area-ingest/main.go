package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/terraplot/plotdesk/internal/config"
	"github.com/terraplot/plotdesk/internal/research"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to YAML config")
	flag.Parse()

	if flag.NArg() == 0 {
		log.Fatal("usage: area-ingest [-config path] <research-file> [...]")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	caller, err := research.NewAnthropicCallerFromEnv()
	if err != nil {
		log.Fatal(err)
	}
	ingestor := research.NewIngestor(caller)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	for _, path := range flag.Args() {
		blob, err := os.ReadFile(path)
		if err != nil {
			log.Fatal(err)
		}
		doc, err := ingestor.Ingest(ctx, filepath.Base(path), string(blob))
		if err != nil {
			log.Fatalf("ingest %s: %v", path, err)
		}
		if len(doc.AreaCodes) == 0 {
			log.Printf("warning: no resolvable area names in %s; document will never match a location", path)
		}
		if err := research.AppendToCache(cfg.Research.CachePath, doc); err != nil {
			log.Fatal(err)
		}
		log.Printf("ingested file=%s doc=%s area=%q codes=%v", path, doc.ID, doc.AreaName, doc.AreaCodes)
	}
}
