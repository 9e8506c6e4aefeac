package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/terraplot/plotdesk/internal/config"
	"github.com/terraplot/plotdesk/internal/gis"
	"github.com/terraplot/plotdesk/internal/httpapi"
	"github.com/terraplot/plotdesk/internal/market"
	"github.com/terraplot/plotdesk/internal/matching"
	"github.com/terraplot/plotdesk/internal/plots"
	"github.com/terraplot/plotdesk/internal/research"
	"github.com/terraplot/plotdesk/internal/sheets"
	"github.com/terraplot/plotdesk/internal/telemetry"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to YAML config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPEndpoint)
	if err != nil {
		log.Fatal(err)
	}

	store, err := plots.OpenSQLiteRegistry(cfg.Database.SQLitePath)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	docs, err := research.LoadCache(cfg.Research.CachePath)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("loaded research cache docs=%d plots=%d", len(docs), store.Len())

	var searcher matching.Searcher
	if cfg.GIS.BaseURL != "" {
		searcher = gis.NewClient(gis.Config{
			BaseURL:     cfg.GIS.BaseURL,
			APIKey:      cfg.GIS.APIKey,
			MaxAttempts: cfg.GIS.MaxAttempts,
		})
	}
	var sheet matching.SheetLookup
	if cfg.Sheets.BaseURL != "" && cfg.Sheets.SheetID != "" {
		sheet = sheets.NewClient(sheets.Config{
			BaseURL: cfg.Sheets.BaseURL,
			SheetID: cfg.Sheets.SheetID,
			APIKey:  cfg.Sheets.APIKey,
		})
	}

	engine := matching.NewEngine(store, searcher, sheet)
	resolver := market.NewResolver(docs)
	handler := httpapi.NewServer(store, engine, resolver)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
		_ = shutdownTracing(shutdownCtx)
	}()

	log.Printf("starting plotdesk server addr=%s", cfg.Server.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
