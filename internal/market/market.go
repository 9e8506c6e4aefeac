// Package market resolves the effective market assumptions for a location
// through a strict priority cascade: user overrides, scoped research
// uploads, curated area profiles, anchor areas, and finally an empty
// "no area data" set. Sources never blend; the first usable source wins and
// overrides are merged on top.
package market

import (
	"sort"
	"strings"

	"github.com/terraplot/plotdesk/internal/areas"
	"github.com/terraplot/plotdesk/internal/research"
)

// Canonical unit-type keys used across assumptions, mixes, and reports.
const (
	UnitStudio = "studio"
	Unit1BR    = "1br"
	Unit2BR    = "2br"
	Unit3BR    = "3br"
)

// UnitTypes is the canonical ordering for iteration and reporting.
var UnitTypes = []string{UnitStudio, Unit1BR, Unit2BR, Unit3BR}

// Source identifies which rung of the cascade produced the base set.
type Source string

const (
	SourceResearch Source = "research"
	SourceCurated  Source = "curated"
	SourceAnchor   Source = "anchor"
	SourceNone     Source = "none"
)

// AssumptionSet is the resolved bag consumed by the feasibility calculator.
// It is an ephemeral value object, never persisted.
type AssumptionSet struct {
	AreaCode        string             `json:"area_code,omitempty"`
	Source          Source             `json:"source"`
	Approximate     bool               `json:"approximate,omitempty"`
	UnitPsf         map[string]float64 `json:"unit_psf,omitempty"`
	UnitSizes       map[string]float64 `json:"unit_sizes,omitempty"`
	UnitRents       map[string]float64 `json:"unit_rents,omitempty"`
	ConstructionPsf float64            `json:"construction_psf,omitempty"`
	LandCostPsf     float64            `json:"land_cost_psf,omitempty"`
	MarketFloor     float64            `json:"market_floor,omitempty"`
	MarketAvg       float64            `json:"market_avg,omitempty"`
	MarketCeiling   float64            `json:"market_ceiling,omitempty"`
}

// LocationHint is what the caller knows about the target location. AreaCode
// wins over AreaName; coordinates enable the anchor fallback.
type LocationHint struct {
	AreaName string  `json:"area_name,omitempty"`
	AreaCode string  `json:"area_code,omitempty"`
	Lat      float64 `json:"lat,omitempty"`
	Lng      float64 `json:"lng,omitempty"`
}

// Overrides are explicitly supplied fields that always win. Zero values and
// nil maps mean "not supplied".
type Overrides struct {
	UnitPsf         map[string]float64 `json:"unit_psf,omitempty"`
	UnitSizes       map[string]float64 `json:"unit_sizes,omitempty"`
	UnitRents       map[string]float64 `json:"unit_rents,omitempty"`
	ConstructionPsf float64            `json:"construction_psf,omitempty"`
	LandCostPsf     float64            `json:"land_cost_psf,omitempty"`
	MarketFloor     float64            `json:"market_floor,omitempty"`
	MarketAvg       float64            `json:"market_avg,omitempty"`
	MarketCeiling   float64            `json:"market_ceiling,omitempty"`
}

// Resolver holds the session's read-only research cache.
type Resolver struct {
	docs []research.Document
}

func NewResolver(docs []research.Document) *Resolver {
	return &Resolver{docs: docs}
}

// Resolve walks the cascade for the hinted location and merges overrides
// last.
func (r *Resolver) Resolve(hint LocationHint, overrides Overrides) AssumptionSet {
	code := strings.TrimSpace(hint.AreaCode)
	if code == "" {
		if resolved, ok := areas.ResolveAreaCode(hint.AreaName); ok {
			code = resolved
		}
	}

	set := AssumptionSet{Source: SourceNone}
	switch {
	case code != "":
		if doc, ok := r.researchFor(code); ok {
			set = fromResearch(code, doc)
			break
		}
		if profile, ok := areas.ProfileFor(code); ok {
			set = fromProfile(profile, SourceCurated, false)
			break
		}
		// Known name but no curated data: fall through to the anchor.
		fallthrough
	default:
		if hint.Lat != 0 || hint.Lng != 0 {
			if profile, ok := areas.NearestProfile(hint.Lat, hint.Lng); ok {
				set = fromProfile(profile, SourceAnchor, true)
			}
		}
	}

	applyOverrides(&set, overrides)
	return set
}

// researchFor finds the most recent cached research document strictly
// scoped to the target code. Documents spanning more than one area code are
// ambiguous and rejected outright.
func (r *Resolver) researchFor(code string) (research.Document, bool) {
	candidates := []research.Document{}
	for _, doc := range r.docs {
		docCode, ok := doc.SingleAreaCode()
		if !ok || docCode != code {
			continue
		}
		candidates = append(candidates, doc)
	}
	if len(candidates) == 0 {
		return research.Document{}, false
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].UploadedAt.After(candidates[j].UploadedAt)
	})
	return candidates[0], true
}

func fromResearch(code string, doc research.Document) AssumptionSet {
	a := doc.Assumptions
	return AssumptionSet{
		AreaCode:        code,
		Source:          SourceResearch,
		UnitPsf:         copyMap(a.UnitPsf),
		UnitSizes:       copyMap(a.UnitSizes),
		UnitRents:       copyMap(a.UnitRents),
		ConstructionPsf: a.ConstructionPsf,
		LandCostPsf:     a.LandCostPsf,
		MarketFloor:     a.MarketFloor,
		MarketAvg:       a.MarketAvg,
		MarketCeiling:   a.MarketCeiling,
	}
}

func fromProfile(p areas.Profile, source Source, approximate bool) AssumptionSet {
	return AssumptionSet{
		AreaCode:        p.AreaCode,
		Source:          source,
		Approximate:     approximate,
		UnitPsf:         copyMap(p.UnitPsf),
		UnitSizes:       copyMap(p.UnitSizes),
		UnitRents:       copyMap(p.UnitRents),
		ConstructionPsf: p.ConstructionPsf,
		LandCostPsf:     p.LandCostPsf,
		MarketFloor:     p.MarketFloor,
		MarketAvg:       p.MarketAvg,
		MarketCeiling:   p.MarketCeiling,
	}
}

// applyOverrides merges explicitly supplied fields on top of the resolved
// base. Per-type map entries override individually; non-positive values are
// ignored.
func applyOverrides(set *AssumptionSet, o Overrides) {
	set.UnitPsf = mergeMap(set.UnitPsf, o.UnitPsf)
	set.UnitSizes = mergeMap(set.UnitSizes, o.UnitSizes)
	set.UnitRents = mergeMap(set.UnitRents, o.UnitRents)
	if o.ConstructionPsf > 0 {
		set.ConstructionPsf = o.ConstructionPsf
	}
	if o.LandCostPsf > 0 {
		set.LandCostPsf = o.LandCostPsf
	}
	if o.MarketFloor > 0 {
		set.MarketFloor = o.MarketFloor
	}
	if o.MarketAvg > 0 {
		set.MarketAvg = o.MarketAvg
	}
	if o.MarketCeiling > 0 {
		set.MarketCeiling = o.MarketCeiling
	}
}

func mergeMap(base, over map[string]float64) map[string]float64 {
	if len(over) == 0 {
		return base
	}
	out := copyMap(base)
	if out == nil {
		out = map[string]float64{}
	}
	for k, v := range over {
		if v > 0 {
			out[k] = v
		}
	}
	return out
}

func copyMap(m map[string]float64) map[string]float64 {
	if m == nil {
		return nil
	}
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
