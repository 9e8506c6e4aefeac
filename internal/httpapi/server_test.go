package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/terraplot/plotdesk/internal/market"
	"github.com/terraplot/plotdesk/internal/matching"
	"github.com/terraplot/plotdesk/internal/plots"
)

func newTestServer(t *testing.T) (http.Handler, *plots.Registry) {
	t.Helper()
	registry := plots.NewRegistry()
	engine := matching.NewEngine(registry, nil, nil)
	resolver := market.NewResolver(nil)
	return NewServer(registry, engine, resolver), registry
}

func postJSON(t *testing.T, h http.Handler, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	blob, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(blob))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v body=%s", err, rec.Body.String())
	}
	return out
}

func TestHealth(t *testing.T) {
	h, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != 200 {
		t.Fatalf("health status: %d", rec.Code)
	}
	out := decodeResponse(t, rec)
	if out["ok"] != true {
		t.Fatalf("unexpected health payload: %v", out)
	}
}

func TestNormalizeEndpoint(t *testing.T) {
	h, _ := newTestServer(t)
	rec := postJSON(t, h, "/v1/parcels/normalize", map[string]any{
		"forms": []map[string]any{
			{"area_name": "JVC", "plot_area": 1000, "unit": "sqm"},
			{"area_name": "Arjan"}, // no dimensions
		},
		"free_text": "Looking for a plot of around 10,764 sqft in Dubai Marina",
	})
	if rec.Code != 200 {
		t.Fatalf("status: %d body=%s", rec.Code, rec.Body.String())
	}
	out := decodeResponse(t, rec)
	specs := out["specs"].([]any)
	if len(specs) != 2 {
		t.Fatalf("expected 2 specs, got %d: %v", len(specs), out)
	}
	if out["invalid"].(float64) != 1 {
		t.Fatalf("expected 1 invalid, got %v", out["invalid"])
	}
}

func TestPlotsUpsertAndMatch(t *testing.T) {
	h, _ := newTestServer(t)

	rec := postJSON(t, h, "/v1/plots", map[string]any{
		"plots": []map[string]any{
			{"id": "621-0042", "area_sqm": 1050, "zoning": "residential"},
		},
	})
	if rec.Code != 200 {
		t.Fatalf("upsert status: %d", rec.Code)
	}

	rec = postJSON(t, h, "/v1/parcels/match", map[string]any{
		"specs": []map[string]any{
			{"area_name": "Jumeirah Village Circle", "plot_area_sqm": 1000},
		},
	})
	if rec.Code != 200 {
		t.Fatalf("match status: %d body=%s", rec.Code, rec.Body.String())
	}
	out := decodeResponse(t, rec)
	results := out["results"].([]any)
	if len(results) != 1 {
		t.Fatalf("expected 1 match, got %v", out)
	}
	first := results[0].(map[string]any)
	if first["confidence_score"].(float64) != 75 {
		t.Fatalf("confidence: got %v want 75", first["confidence_score"])
	}
}

func TestMatchRequiresSpecs(t *testing.T) {
	h, _ := newTestServer(t)
	rec := postJSON(t, h, "/v1/parcels/match", map[string]any{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAssumptionsEndpoint(t *testing.T) {
	h, _ := newTestServer(t)
	rec := postJSON(t, h, "/v1/market/assumptions", map[string]any{
		"hint": map[string]any{"area_name": "JVC"},
	})
	if rec.Code != 200 {
		t.Fatalf("status: %d", rec.Code)
	}
	out := decodeResponse(t, rec)
	set := out["assumptions"].(map[string]any)
	if set["source"] != "curated" || set["area_code"] != "621" {
		t.Fatalf("unexpected assumptions: %v", set)
	}
}

func TestFeasibilityEndpoint(t *testing.T) {
	h, _ := newTestServer(t)
	rec := postJSON(t, h, "/v1/feasibility", map[string]any{
		"input":    map[string]any{"id": "p1", "area_sqft": 10000, "ratio": 4.5},
		"strategy": "balanced",
		"hint":     map[string]any{"area_name": "JVC"},
	})
	if rec.Code != 200 {
		t.Fatalf("status: %d body=%s", rec.Code, rec.Body.String())
	}
	out := decodeResponse(t, rec)
	res := out["result"].(map[string]any)
	if res["gfa"].(float64) != 45000 {
		t.Fatalf("gfa: got %v", res["gfa"])
	}
	if res["gross_sales"].(float64) <= 0 {
		t.Fatalf("expected positive gross sales with curated assumptions: %v", res["gross_sales"])
	}
}

func TestFeasibilityRejectsUndefinedInput(t *testing.T) {
	h, _ := newTestServer(t)
	rec := postJSON(t, h, "/v1/feasibility", map[string]any{
		"input": map[string]any{"id": "p1", "area_sqft": 0, "ratio": 4.5},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for zero area, got %d", rec.Code)
	}
}

func TestFeasibilityReportHTML(t *testing.T) {
	h, _ := newTestServer(t)
	blob, _ := json.Marshal(map[string]any{
		"input": map[string]any{"id": "p1", "name": "Marina Plot", "area_sqft": 10000, "ratio": 4.5},
		"hint":  map[string]any{"area_name": "Dubai Marina"},
	})
	req := httptest.NewRequest(http.MethodPost, "/v1/feasibility/report", bytes.NewReader(blob))
	req.Header.Set("Accept", "text/html")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != 200 {
		t.Fatalf("status: %d body=%s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("content type: %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "Feasibility Report: Marina Plot") {
		t.Fatal("report title missing from html")
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/feasibility", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}
