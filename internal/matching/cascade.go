package matching

import (
	"context"
	"errors"
	"fmt"
	"log"
	"unicode"

	"github.com/terraplot/plotdesk/internal/gis"
	"github.com/terraplot/plotdesk/internal/parcel"
	"github.com/terraplot/plotdesk/internal/plots"
	"github.com/terraplot/plotdesk/internal/sheets"
)

// Searcher is the external spatial service surface the cascade needs.
type Searcher interface {
	FetchPlotByID(ctx context.Context, id string) (plots.Record, error)
	SearchByArea(ctx context.Context, minSqm, maxSqm float64, areaName string) ([]plots.Record, error)
}

// SheetLookup is the owner-sheet surface used for the cross-check.
type SheetLookup interface {
	LookupRows(ctx context.Context, plotIDs []string) (map[string]sheets.Row, error)
}

// PlotLister is the local registry surface; the in-memory and SQLite
// registries both satisfy it.
type PlotLister interface {
	List() []plots.Record
}

// Engine bundles the local registry with the optional external services.
// A nil searcher disables the fallback; a nil sheet disables annotation.
type Engine struct {
	registry PlotLister
	searcher Searcher
	sheet    SheetLookup
}

func NewEngine(registry PlotLister, searcher Searcher, sheet SheetLookup) *Engine {
	return &Engine{registry: registry, searcher: searcher, sheet: sheet}
}

// Match scores specs against the local registry only.
func (e *Engine) Match(specs []parcel.Spec) []Result {
	return Match(specs, e.registry.List())
}

// MatchWithFallback scores against the local registry first, then walks the
// external strategy cascade for each spec that matched nothing locally.
// Strategies run in order and the first one yielding scored results wins.
// External failures are logged and treated as empty, never fatal.
func (e *Engine) MatchWithFallback(ctx context.Context, specs []parcel.Spec) []Result {
	local := e.registry.List()
	results := []Result{}
	invalid := 0
	for _, spec := range specs {
		if !spec.Valid() {
			invalid++
			continue
		}
		scored := matchOne(spec, local)
		if len(scored) == 0 && e.searcher != nil {
			scored = e.fallback(ctx, spec)
		}
		results = append(results, scored...)
	}
	if invalid > 0 {
		log.Printf("matching excluded invalid specs count=%d", invalid)
	}
	sortResults(results)
	return results
}

type strategy struct {
	name   string
	run    func(ctx context.Context, spec parcel.Spec) ([]plots.Record, error)
	usable func(spec parcel.Spec) bool
}

func (e *Engine) strategies() []strategy {
	return []strategy{
		{
			name:   "plot-id",
			usable: func(s parcel.Spec) bool { return isNumericPlotNumber(s.PlotNumber) },
			run: func(ctx context.Context, s parcel.Spec) ([]plots.Record, error) {
				rec, err := e.searcher.FetchPlotByID(ctx, s.PlotNumber)
				if errors.Is(err, gis.ErrNotFound) {
					return nil, nil
				}
				if err != nil {
					return nil, err
				}
				return []plots.Record{rec}, nil
			},
		},
		{
			name:   "named-area-range",
			usable: func(s parcel.Spec) bool { return s.AreaName != "" },
			run: func(ctx context.Context, s parcel.Spec) ([]plots.Record, error) {
				min, max := searchRange(s, NamedAreaTolerancePct)
				return e.searcher.SearchByArea(ctx, min, max, s.AreaName)
			},
		},
		{
			name:   "broad-range",
			usable: func(s parcel.Spec) bool { return true },
			run: func(ctx context.Context, s parcel.Spec) ([]plots.Record, error) {
				min, max := searchRange(s, BroadTolerancePct)
				return e.searcher.SearchByArea(ctx, min, max, "")
			},
		},
	}
}

func (e *Engine) fallback(ctx context.Context, spec parcel.Spec) []Result {
	for _, strat := range e.strategies() {
		if !strat.usable(spec) {
			continue
		}
		candidates, err := strat.run(ctx, spec)
		if err != nil {
			log.Printf("fallback strategy failed strategy=%s err=%v", strat.name, err)
			continue
		}
		if len(candidates) == 0 {
			continue
		}
		// Candidates still pass through the same tolerance and scoring as
		// local plots; a strategy whose candidates all fail the filter
		// yields nothing and the cascade moves on.
		if scored := matchOne(spec, candidates); len(scored) > 0 {
			return scored
		}
	}
	return nil
}

// searchRange derives the external search window from whichever dimension
// the spec carries, widened by the active tolerance.
func searchRange(spec parcel.Spec, tolerancePct float64) (float64, float64) {
	base := spec.PlotAreaSqm
	if base <= 0 {
		base = spec.GFASqm
	}
	return base * (1 - tolerancePct/100), base * (1 + tolerancePct/100)
}

func isNumericPlotNumber(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// CrossCheck runs the best-effort owner-sheet annotation over a result set.
// Any sheet failure leaves the results exactly as they were.
func (e *Engine) CrossCheck(ctx context.Context, results []Result) []Result {
	if e.sheet == nil || len(results) == 0 {
		return results
	}
	ids := make([]string, 0, len(results))
	seen := map[string]struct{}{}
	for _, r := range results {
		if _, dup := seen[r.MatchedPlotID]; dup {
			continue
		}
		seen[r.MatchedPlotID] = struct{}{}
		ids = append(ids, r.MatchedPlotID)
	}
	rows, err := e.sheet.LookupRows(ctx, ids)
	if err != nil {
		log.Printf("sheet cross-check failed err=%v", err)
		return results
	}
	return AnnotateFromSheet(results, rows)
}

var _ Searcher = (*gis.Client)(nil)
var _ SheetLookup = (*sheets.Client)(nil)

// Summary is a compact log line for a completed match run.
func Summary(results []Result) string {
	best := 0
	if len(results) > 0 {
		best = results[0].ConfidenceScore
	}
	return fmt.Sprintf("matches=%d best_confidence=%d", len(results), best)
}
