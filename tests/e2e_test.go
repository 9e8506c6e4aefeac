//go:build integration

package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/terraplot/plotdesk/internal/gis"
	"github.com/terraplot/plotdesk/internal/httpapi"
	"github.com/terraplot/plotdesk/internal/market"
	"github.com/terraplot/plotdesk/internal/matching"
	"github.com/terraplot/plotdesk/internal/plots"
)

const structuredInput = `Area: Jumeirah Village Circle
Plot Area: 1,000 sqm
Zoning: residential
---
Area: Arjan
GFA: 48,000 sqft
`

func startServer(t *testing.T, searcher matching.Searcher) *httptest.Server {
	t.Helper()
	store, err := plots.OpenSQLiteRegistry(filepath.Join(t.TempDir(), "plots.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	engine := matching.NewEngine(store, searcher, nil)
	resolver := market.NewResolver(nil)
	srv := httptest.NewServer(httpapi.NewServer(store, engine, resolver))
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, payload any) map[string]any {
	t.Helper()
	blob, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	res, err := http.Post(url, "application/json", bytes.NewReader(blob))
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()
	if res.StatusCode != 200 {
		t.Fatalf("POST %s: status %d", url, res.StatusCode)
	}
	var out map[string]any
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	return out
}

// TestPipeline exercises the whole flow over HTTP: seed the registry,
// normalize raw text, match, resolve assumptions, and compute feasibility.
func TestPipeline(t *testing.T) {
	srv := startServer(t, nil)

	postJSON(t, srv.URL+"/v1/plots", map[string]any{
		"plots": []map[string]any{
			{"id": "621-0042", "area_sqm": 1030, "zoning": "residential", "location": "JVC"},
			{"id": "619-0007", "gfa_sqm": 4500, "zoning": "residential", "location": "Arjan"},
		},
	})

	norm := postJSON(t, srv.URL+"/v1/parcels/normalize", map[string]any{
		"structured_text": structuredInput,
	})
	specs := norm["specs"].([]any)
	if len(specs) != 2 {
		t.Fatalf("expected 2 normalized specs, got %v", norm)
	}

	matchOut := postJSON(t, srv.URL+"/v1/parcels/match", map[string]any{"specs": specs})
	results := matchOut["results"].([]any)
	if len(results) != 2 {
		t.Fatalf("expected a match per spec, got %v", matchOut)
	}
	best := results[0].(map[string]any)
	if best["confidence_score"].(float64) < 80 {
		t.Fatalf("expected a high-confidence best match: %v", best)
	}

	feas := postJSON(t, srv.URL+"/v1/feasibility", map[string]any{
		"input":    map[string]any{"id": best["matched_plot_id"], "area_sqft": 11085, "ratio": 4.0},
		"strategy": "investor",
		"hint":     map[string]any{"area_name": "Jumeirah Village Circle"},
	})
	res := feas["result"].(map[string]any)
	if res["gross_sales"].(float64) <= 0 || res["total_cost"].(float64) <= 0 {
		t.Fatalf("expected a fully costed result: %v", res)
	}
	units := res["units"].(map[string]any)
	sum := units["studio"].(float64) + units["br1"].(float64) + units["br2"].(float64) + units["br3"].(float64)
	if sum != units["total"].(float64) {
		t.Fatalf("unit buckets do not reconcile: %v", units)
	}
}

// TestFallbackAgainstStubGIS drives the match-fallback endpoint against a
// stub spatial service.
func TestFallbackAgainstStubGIS(t *testing.T) {
	gisStub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/plots/search" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{"plots":[{"id":"ext-1","area_sqm":1010,"zoning":"residential"}],"total":1}`)
	}))
	defer gisStub.Close()

	searcher := gis.NewClient(gis.Config{BaseURL: gisStub.URL})
	if _, err := searcher.FetchPlotByID(context.Background(), "nope"); err == nil {
		t.Fatal("expected not-found from stub")
	}

	srv := startServer(t, searcher)
	out := postJSON(t, srv.URL+"/v1/parcels/match-fallback", map[string]any{
		"specs": []map[string]any{
			{"area_name": "Jumeirah Village Circle", "plot_area_sqm": 1000},
		},
	})
	results := out["results"].([]any)
	if len(results) != 1 {
		t.Fatalf("expected external fallback match, got %v", out)
	}
	if results[0].(map[string]any)["matched_plot_id"] != "ext-1" {
		t.Fatalf("unexpected plot: %v", results[0])
	}
}
