package parcel

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/terraplot/plotdesk/internal/areas"
	"github.com/terraplot/plotdesk/internal/units"
)

// FormInput is the structured upload shape: explicit fields with a declared
// unit for the two dimensions.
type FormInput struct {
	AreaName   string  `json:"area_name"`
	PlotArea   float64 `json:"plot_area"`
	GFA        float64 `json:"gfa"`
	Unit       string  `json:"unit"` // "sqm" (default) or "sqft"
	Zoning     string  `json:"zoning"`
	Floors     int     `json:"floors"`
	PlotNumber string  `json:"plot_number"`
}

// NormalizeForm converts a structured form payload into a canonical Spec.
func NormalizeForm(f FormInput) (Spec, error) {
	spec := Spec{
		AreaName:   strings.TrimSpace(f.AreaName),
		Zoning:     strings.TrimSpace(f.Zoning),
		Floors:     f.Floors,
		PlotNumber: strings.TrimSpace(f.PlotNumber),
	}
	plotArea := f.PlotArea
	gfa := f.GFA
	if strings.EqualFold(strings.TrimSpace(f.Unit), "sqft") {
		plotArea = units.SqftToSqm(plotArea)
		gfa = units.SqftToSqm(gfa)
	}
	if plotArea > 0 {
		spec.PlotAreaSqm = plotArea
	}
	if gfa > 0 {
		spec.GFASqm = gfa
	}
	if !spec.Valid() {
		return spec, ErrNoDimensions
	}
	return spec, nil
}

// ParseStructuredText parses "Key: Value" blocks separated by delimiter
// lines (---). Unknown keys are ignored; malformed numbers are skipped.
// It returns the valid specs and the count of blocks that parsed to a spec
// with no usable dimension.
func ParseStructuredText(text string) ([]Spec, int) {
	blocks := splitBlocks(text)
	specs := make([]Spec, 0, len(blocks))
	invalid := 0
	for _, block := range blocks {
		spec, ok := parseBlock(block)
		if !ok {
			continue // block had no recognizable keys at all
		}
		if !spec.Valid() {
			invalid++
			continue
		}
		specs = append(specs, spec)
	}
	return specs, invalid
}

var delimiterRe = regexp.MustCompile(`^[-=_*]{3,}$`)

func splitBlocks(text string) []string {
	lines := strings.Split(text, "\n")
	blocks := []string{}
	var cur []string
	flush := func() {
		if len(cur) > 0 {
			blocks = append(blocks, strings.Join(cur, "\n"))
			cur = nil
		}
	}
	for _, line := range lines {
		if delimiterRe.MatchString(strings.TrimSpace(line)) {
			flush()
			continue
		}
		cur = append(cur, line)
	}
	flush()
	return blocks
}

func parseBlock(block string) (Spec, bool) {
	spec := Spec{}
	sawKey := false
	for _, line := range strings.Split(block, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.Join(strings.Fields(key), " "))
		value = strings.TrimSpace(value)
		switch key {
		case "area", "area name", "location", "community":
			spec.AreaName = value
			sawKey = true
		case "plot area", "plot size", "land size", "size":
			if v, u, ok := parseDimension(value); ok {
				spec.PlotAreaSqm = toSqm(v, u)
			}
			sawKey = true
		case "gfa", "gross floor area", "built up area", "bua":
			if v, u, ok := parseDimension(value); ok {
				spec.GFASqm = toSqm(v, u)
			}
			sawKey = true
		case "zoning", "zone", "use":
			spec.Zoning = value
			sawKey = true
		case "floors", "floor count", "storeys":
			if fields := strings.Fields(value); len(fields) > 0 {
				if n, err := strconv.Atoi(fields[0]); err == nil {
					spec.Floors = n
				}
			}
			sawKey = true
		case "plot number", "plot no", "plot":
			spec.PlotNumber = value
			sawKey = true
		}
	}
	return spec, sawKey
}

var numberRe = regexp.MustCompile(`[\d][\d,]*\.?\d*`)

// parseDimension extracts "<number> <unit>" from a field value. A missing
// unit defaults to sqm.
func parseDimension(value string) (float64, string, bool) {
	m := numberRe.FindString(value)
	if m == "" {
		return 0, "", false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64)
	if err != nil || v <= 0 {
		return 0, "", false
	}
	return v, unitToken(value), true
}

func unitToken(s string) string {
	l := strings.ToLower(s)
	switch {
	case strings.Contains(l, "sqft"), strings.Contains(l, "sq.ft"), strings.Contains(l, "ft²"), strings.Contains(l, "ft2"):
		return "sqft"
	default:
		return "sqm"
	}
}

func toSqm(v float64, unit string) float64 {
	if unit == "sqft" {
		return units.SqftToSqm(v)
	}
	return v
}

var freeDimRe = regexp.MustCompile(`(?i)([\d][\d,]*\.?\d*)\s*(sqm|sq\.?\s?m\b|m²|m2|sqft|sq\.?\s?ft|ft²|ft2)`)

// ParseFreeText is the best-effort heuristic path: it scans for numbers
// adjacent to unit tokens and for recognizable area names. Numbers tagged
// with a GFA hint nearby fill GFASqm; the first remaining dimension fills
// PlotAreaSqm. Fields it cannot recover stay zero.
func ParseFreeText(text string) (Spec, error) {
	spec := Spec{AreaName: findAreaName(text)}

	matches := freeDimRe.FindAllStringSubmatchIndex(text, -1)
	for _, m := range matches {
		numStr := strings.ReplaceAll(text[m[2]:m[3]], ",", "")
		v, err := strconv.ParseFloat(numStr, 64)
		if err != nil || v <= 0 {
			continue
		}
		sqm := toSqm(v, unitToken(text[m[4]:m[5]]))
		if hasGFAHint(text, m[0]) && spec.GFASqm == 0 {
			spec.GFASqm = sqm
			continue
		}
		if spec.PlotAreaSqm == 0 {
			spec.PlotAreaSqm = sqm
		} else if spec.GFASqm == 0 {
			spec.GFASqm = sqm
		}
	}

	if !spec.Valid() {
		return spec, ErrNoDimensions
	}
	return spec, nil
}

// hasGFAHint checks the 24 characters before a dimension match for a GFA
// keyword.
func hasGFAHint(text string, start int) bool {
	from := start - 24
	if from < 0 {
		from = 0
	}
	window := strings.ToLower(text[from:start])
	return strings.Contains(window, "gfa") || strings.Contains(window, "gross floor") || strings.Contains(window, "built up") || strings.Contains(window, "bua")
}

// findAreaName slides a window of up to four words over the text looking
// for a name the areas package can resolve.
func findAreaName(text string) string {
	words := strings.Fields(text)
	for size := 4; size >= 1; size-- {
		for i := 0; i+size <= len(words); i++ {
			candidate := strings.Join(words[i:i+size], " ")
			candidate = strings.Trim(candidate, ".,;:()")
			if areas.KnownAreaName(candidate) {
				return candidate
			}
		}
	}
	return ""
}

// BatchResult is the outcome of normalizing a mixed batch of inputs.
type BatchResult struct {
	Specs   []Spec `json:"specs"`
	Invalid int    `json:"invalid"`
}

// NormalizeBatch applies NormalizeForm across a batch, collecting the valid
// specs and counting the rest.
func NormalizeBatch(forms []FormInput) BatchResult {
	out := BatchResult{Specs: []Spec{}}
	for _, f := range forms {
		spec, err := NormalizeForm(f)
		if err != nil {
			out.Invalid++
			continue
		}
		out.Specs = append(out.Specs, spec)
	}
	return out
}
