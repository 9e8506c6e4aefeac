package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLookupRowsBatches(t *testing.T) {
	var gotReq lookupRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rows:batchGet" {
			http.NotFound(w, r)
			return
		}
		json.NewDecoder(r.Body).Decode(&gotReq)
		json.NewEncoder(w).Encode(lookupResponse{Rows: []Row{
			{PlotID: "p1", OwnerReference: "OWN-17", Fields: map[string]string{"agent": "R. Haddad"}},
		}})
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, SheetID: "sheet-9"})
	rows, err := c.LookupRows(context.Background(), []string{"p1", " ", "p2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotReq.SheetID != "sheet-9" || len(gotReq.PlotIDs) != 2 {
		t.Fatalf("unexpected request: %+v", gotReq)
	}
	row, ok := rows["p1"]
	if !ok || row.OwnerReference != "OWN-17" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
	if _, ok := rows["p2"]; ok {
		t.Fatal("p2 has no row and must be absent")
	}
}

func TestLookupRowsEmptyInput(t *testing.T) {
	c := NewClient(Config{BaseURL: "http://unused.invalid"})
	rows, err := c.LookupRows(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected empty map, got %+v", rows)
	}
}

func TestLookupRowsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	if _, err := c.LookupRows(context.Background(), []string{"p1"}); err == nil {
		t.Fatal("expected error")
	}
}
