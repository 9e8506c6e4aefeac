package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/terraplot/plotdesk/internal/config"
	"github.com/terraplot/plotdesk/internal/gis"
	"github.com/terraplot/plotdesk/internal/matching"
	"github.com/terraplot/plotdesk/internal/parcel"
	"github.com/terraplot/plotdesk/internal/plots"
	"github.com/terraplot/plotdesk/internal/sheets"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to YAML config")
	inputPath := flag.String("input", "", "Path to a parcel description file (structured or free text)")
	freeText := flag.Bool("free-text", false, "Parse the input as free-form text instead of key/value blocks")
	fallback := flag.Bool("fallback", true, "Search the external GIS service when the registry has no match")
	crossCheck := flag.Bool("cross-check", false, "Annotate matches from the owner sheet")
	flag.Parse()

	if *inputPath == "" {
		log.Fatal("-input is required")
	}
	blob, err := os.ReadFile(*inputPath)
	if err != nil {
		log.Fatal(err)
	}

	var specs []parcel.Spec
	invalid := 0
	if *freeText {
		spec, err := parcel.ParseFreeText(string(blob))
		if err != nil {
			log.Fatal(err)
		}
		specs = []parcel.Spec{spec}
	} else {
		specs, invalid = parcel.ParseStructuredText(string(blob))
	}
	if invalid > 0 {
		log.Printf("skipped blocks without usable dimensions count=%d", invalid)
	}
	if len(specs) == 0 {
		log.Fatal("no usable parcel specs in input")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	store, err := plots.OpenSQLiteRegistry(cfg.Database.SQLitePath)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	var searcher matching.Searcher
	if *fallback && cfg.GIS.BaseURL != "" {
		searcher = gis.NewClient(gis.Config{BaseURL: cfg.GIS.BaseURL, APIKey: cfg.GIS.APIKey})
	}
	var sheet matching.SheetLookup
	if *crossCheck && cfg.Sheets.BaseURL != "" {
		sheet = sheets.NewClient(sheets.Config{
			BaseURL: cfg.Sheets.BaseURL,
			SheetID: cfg.Sheets.SheetID,
			APIKey:  cfg.Sheets.APIKey,
		})
	}
	engine := matching.NewEngine(store, searcher, sheet)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	results := engine.MatchWithFallback(ctx, specs)
	if *crossCheck {
		results = engine.CrossCheck(ctx, results)
	}
	log.Printf("match run complete %s", matching.Summary(results))

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		log.Fatal(err)
	}
}
