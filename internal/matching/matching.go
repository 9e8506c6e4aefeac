// Package matching scores and ranks candidate plots against parcel specs,
// with a cascading external-search fallback when the local registry has no
// qualifying plot.
package matching

import (
	"log"
	"math"
	"sort"

	"github.com/terraplot/plotdesk/internal/parcel"
	"github.com/terraplot/plotdesk/internal/plots"
	"github.com/terraplot/plotdesk/internal/sheets"
)

// Tolerances are the maximum allowed deviation per provided dimension. A
// named-area search is stricter than a broad range search.
const (
	NamedAreaTolerancePct = 6.0
	BroadTolerancePct     = 10.0
)

// Result is one scored match. It is created here and consumed read-only;
// only the sheet cross-check attaches OwnerReference/SheetMetadata
// afterwards.
type Result struct {
	Input            parcel.Spec       `json:"input"`
	MatchedPlotID    string            `json:"matched_plot_id"`
	MatchedPlotArea  float64           `json:"matched_plot_area"`
	MatchedGFA       float64           `json:"matched_gfa"`
	MatchedZoning    string            `json:"matched_zoning,omitempty"`
	MatchedStatus    string            `json:"matched_status,omitempty"`
	MatchedLocation  string            `json:"matched_location,omitempty"`
	AreaDeviationPct float64           `json:"area_deviation_pct"`
	GFADeviationPct  float64           `json:"gfa_deviation_pct"`
	ConfidenceScore  int               `json:"confidence_score"`
	OwnerReference   string            `json:"owner_reference,omitempty"`
	SheetMetadata    map[string]string `json:"sheet_metadata,omitempty"`
}

// Match scores every registry plot against every valid spec, applies the
// tolerance filter, and returns results sorted by confidence descending.
// Invalid specs are excluded and counted, never fatal.
func Match(specs []parcel.Spec, registry []plots.Record) []Result {
	results := []Result{}
	invalid := 0
	for _, spec := range specs {
		if !spec.Valid() {
			invalid++
			continue
		}
		results = append(results, matchOne(spec, registry)...)
	}
	if invalid > 0 {
		log.Printf("matching excluded invalid specs count=%d", invalid)
	}
	sortResults(results)
	return results
}

func matchOne(spec parcel.Spec, registry []plots.Record) []Result {
	tolerance := toleranceFor(spec)
	out := []Result{}
	for _, plot := range registry {
		areaDev := deviationPct(plot.AreaSqm, spec.PlotAreaSqm)
		gfaDev := deviationPct(plot.GFASqm, spec.GFASqm)
		if spec.HasArea() && areaDev > tolerance {
			continue
		}
		if spec.HasGFA() && gfaDev > tolerance {
			continue
		}
		out = append(out, Result{
			Input:            spec,
			MatchedPlotID:    plot.ID,
			MatchedPlotArea:  plot.AreaSqm,
			MatchedGFA:       plot.GFASqm,
			MatchedZoning:    plot.Zoning,
			MatchedStatus:    plot.Status,
			MatchedLocation:  plot.Location,
			AreaDeviationPct: round2(areaDev),
			GFADeviationPct:  round2(gfaDev),
			ConfidenceScore:  confidence(areaDev, gfaDev, spec.HasArea(), spec.HasGFA()),
		})
	}
	return out
}

func toleranceFor(spec parcel.Spec) float64 {
	if spec.AreaName != "" {
		return NamedAreaTolerancePct
	}
	return BroadTolerancePct
}

// deviationPct is the absolute percentage deviation of a candidate value
// from a requested one; zero when the dimension was not requested.
func deviationPct(candidate, requested float64) float64 {
	if requested <= 0 {
		return 0
	}
	return math.Abs(candidate-requested) / requested * 100
}

// confidence maps per-dimension deviations onto a 0-100 score. Exact
// matches on every supplied dimension score 100. Otherwise each supplied
// dimension earns points on a piecewise-linear scale; a lone dimension
// carries full weight (doubled), two dimensions carry half weight each.
// The final score is clamped to [10, 99].
func confidence(areaDev, gfaDev float64, hasArea, hasGFA bool) int {
	if !hasArea && !hasGFA {
		return 0
	}
	exact := (!hasArea || areaDev == 0) && (!hasGFA || gfaDev == 0)
	if exact {
		return 100
	}

	sum := 0.0
	if hasArea {
		p := dimensionPoints(areaDev)
		if !hasGFA {
			p *= 2
		}
		sum += p
	}
	if hasGFA {
		p := dimensionPoints(gfaDev)
		if !hasArea {
			p *= 2
		}
		sum += p
	}
	return int(math.Min(99, math.Max(10, math.Round(sum))))
}

func dimensionPoints(dev float64) float64 {
	if dev <= 6 {
		return math.Max(35, 50-dev*2.5)
	}
	return math.Max(20, 50-dev*3)
}

func sortResults(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].ConfidenceScore != results[j].ConfidenceScore {
			return results[i].ConfidenceScore > results[j].ConfidenceScore
		}
		return results[i].MatchedPlotID < results[j].MatchedPlotID
	})
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// AnnotateFromSheet attaches owner/CRM metadata from sheet rows keyed by
// plot ID. The sheet augments but never filters: plots without a row stay
// in the result set unannotated.
func AnnotateFromSheet(results []Result, rows map[string]sheets.Row) []Result {
	if len(rows) == 0 {
		return results
	}
	out := make([]Result, len(results))
	copy(out, results)
	for i := range out {
		row, ok := rows[out[i].MatchedPlotID]
		if !ok {
			continue
		}
		out[i].OwnerReference = row.OwnerReference
		if len(row.Fields) > 0 {
			meta := make(map[string]string, len(row.Fields))
			for k, v := range row.Fields {
				meta[k] = v
			}
			out[i].SheetMetadata = meta
		}
	}
	return out
}
