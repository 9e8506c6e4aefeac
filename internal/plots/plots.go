// Package plots holds the registry of candidate plots the matching engine
// scores against, with an optional SQLite-backed store.
package plots

import (
	"sort"
	"strings"
	"sync"
)

// Record is a candidate or registry plot. Records are immutable once
// fetched; the GIS collaborator owns them.
type Record struct {
	ID          string  `json:"id"`
	AreaSqm     float64 `json:"area_sqm"`
	GFASqm      float64 `json:"gfa_sqm"`
	Zoning      string  `json:"zoning"`
	Status      string  `json:"status"`
	Location    string  `json:"location"`
	Lat         float64 `json:"lat,omitempty"`
	Lng         float64 `json:"lng,omitempty"`
	GeometryRef string  `json:"geometry_ref,omitempty"`
}

// Registry is the in-memory plot set. Reads are safe for concurrent use;
// writes go through Upsert.
type Registry struct {
	mu      sync.RWMutex
	records map[string]Record
}

func NewRegistry() *Registry {
	return &Registry{records: map[string]Record{}}
}

// Upsert stores a record keyed by trimmed ID. Records without an ID are
// dropped. The error return exists for store interface symmetry with the
// SQLite-backed registry; the in-memory path never fails.
func (r *Registry) Upsert(rec Record) error {
	rec.ID = strings.TrimSpace(rec.ID)
	if rec.ID == "" {
		return nil
	}
	r.mu.Lock()
	r.records[rec.ID] = rec
	r.mu.Unlock()
	return nil
}

func (r *Registry) Get(id string) (Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	return rec, ok
}

// List returns all records sorted by ID for deterministic iteration.
func (r *Registry) List() []Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Record, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}
