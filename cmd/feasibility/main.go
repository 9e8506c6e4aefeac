package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/terraplot/plotdesk/internal/config"
	"github.com/terraplot/plotdesk/internal/feasibility"
	"github.com/terraplot/plotdesk/internal/market"
	"github.com/terraplot/plotdesk/internal/research"
	"github.com/terraplot/plotdesk/internal/units"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to YAML config")
	areaSqft := flag.Float64("area-sqft", 0, "Plot area in sqft")
	areaSqm := flag.Float64("area-sqm", 0, "Plot area in sqm (converted to sqft)")
	ratio := flag.Float64("ratio", 0, "Plot ratio / FAR")
	strategyName := flag.String("strategy", "balanced", "Mix strategy: investor, balanced, or family")
	areaName := flag.String("area", "", "Area or community name for market assumptions")
	name := flag.String("name", "", "Plot label for the report")
	format := flag.String("format", "json", "Output format: json, markdown, or html")
	flag.Parse()

	area := *areaSqft
	if area == 0 && *areaSqm > 0 {
		area = units.SqmToSqft(*areaSqm)
	}
	if area <= 0 || *ratio <= 0 {
		log.Fatal("both a positive plot area and -ratio are required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	docs, err := research.LoadCache(cfg.Research.CachePath)
	if err != nil {
		log.Fatal(err)
	}

	strat, err := feasibility.StrategyFor(*strategyName)
	if err != nil {
		log.Fatal(err)
	}
	assumptions := market.NewResolver(docs).Resolve(market.LocationHint{AreaName: *areaName}, market.Overrides{})
	if assumptions.Source == market.SourceNone {
		log.Printf("no market data for area=%q; revenue figures will be zero", *areaName)
	}

	in := feasibility.Input{ID: "cli", Name: *name, AreaSqft: area, Ratio: *ratio}
	res, err := feasibility.Calculate(in, strat, assumptions)
	if err != nil {
		log.Fatal(err)
	}

	switch *format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			log.Fatal(err)
		}
	case "markdown":
		fmt.Print(feasibility.BuildReportMarkdown(in, res))
	case "html":
		html, err := feasibility.RenderReportHTML(feasibility.BuildReportMarkdown(in, res))
		if err != nil {
			log.Fatal(err)
		}
		fmt.Print(html)
	default:
		log.Fatalf("unknown format %q", *format)
	}
}
