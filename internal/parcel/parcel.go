// Package parcel defines the canonical parcel query and the normalizer
// that produces it from structured forms, key/value text blocks, or
// free-form descriptions.
package parcel

import "errors"

// ErrNoDimensions marks a parsed spec with neither a plot area nor a GFA.
// Such specs are excluded from matching and counted, never silently dropped.
var ErrNoDimensions = errors.New("parcel has neither plot area nor GFA")

// Spec is the canonical parcel query consumed by the matching engine.
// Dimensions are always square metres.
type Spec struct {
	AreaName    string  `json:"area_name,omitempty"`
	PlotAreaSqm float64 `json:"plot_area_sqm"`
	GFASqm      float64 `json:"gfa_sqm"`
	Zoning      string  `json:"zoning,omitempty"`
	Floors      int     `json:"floors,omitempty"`
	PlotNumber  string  `json:"plot_number,omitempty"`
}

// Valid reports whether the spec carries at least one usable dimension.
func (s Spec) Valid() bool {
	return s.PlotAreaSqm > 0 || s.GFASqm > 0
}

// HasArea and HasGFA indicate which dimensions the caller supplied;
// the scorer weights deviations accordingly.
func (s Spec) HasArea() bool { return s.PlotAreaSqm > 0 }
func (s Spec) HasGFA() bool  { return s.GFASqm > 0 }
