// Package research manages the local cache of uploaded area research
// documents and the LLM ingestion path that turns raw research text into
// structured market assumptions. The market resolver reads the cache; only
// the ingestion CLI writes it.
package research

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"
)

// Assumptions is the structured market data extracted from one research
// document. Rates are AED per square foot; rents per square foot per year.
type Assumptions struct {
	UnitPsf         map[string]float64 `json:"unit_psf,omitempty"`
	UnitSizes       map[string]float64 `json:"unit_sizes,omitempty"`
	UnitRents       map[string]float64 `json:"unit_rents,omitempty"`
	ConstructionPsf float64            `json:"construction_psf,omitempty"`
	LandCostPsf     float64            `json:"land_cost_psf,omitempty"`
	MarketFloor     float64            `json:"market_floor,omitempty"`
	MarketAvg       float64            `json:"market_avg,omitempty"`
	MarketCeiling   float64            `json:"market_ceiling,omitempty"`
}

// Document is one cached research upload. AreaCodes holds every area code
// the document's declared area names resolved to; the resolver only uses
// documents scoped to exactly one code.
type Document struct {
	ID             string      `json:"id"`
	AreaName       string      `json:"area_name"`
	AreaCodes      []string    `json:"area_codes"`
	Assumptions    Assumptions `json:"assumptions"`
	SourceFilename string      `json:"source_filename,omitempty"`
	UploadedAt     time.Time   `json:"uploaded_at"`
}

// SingleAreaCode returns the document's area code when it is scoped to
// exactly one; multi-area documents are ambiguous and unusable.
func (d Document) SingleAreaCode() (string, bool) {
	if len(d.AreaCodes) == 1 && d.AreaCodes[0] != "" {
		return d.AreaCodes[0], true
	}
	return "", false
}

type cacheFile struct {
	Documents []Document `json:"documents"`
}

// LoadCache reads the research cache. A missing file is an empty cache.
func LoadCache(path string) ([]Document, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Document{}, nil
		}
		return nil, err
	}
	var cf cacheFile
	if err := json.Unmarshal(blob, &cf); err != nil {
		return nil, err
	}
	if cf.Documents == nil {
		cf.Documents = []Document{}
	}
	return cf.Documents, nil
}

// SaveCache writes the cache atomically (write temp file, then rename).
func SaveCache(path string, docs []Document) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	blob, err := json.MarshalIndent(cacheFile{Documents: docs}, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, blob, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// AppendToCache loads, appends, and saves in one step.
func AppendToCache(path string, doc Document) error {
	docs, err := LoadCache(path)
	if err != nil {
		return err
	}
	return SaveCache(path, append(docs, doc))
}
