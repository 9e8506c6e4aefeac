package gis

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestFetchPlotByID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/plots/621-412" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"621-412","area_sqm":1050,"gfa_sqm":4720,"zoning":"Residential","status":"vacant","location":"Jumeirah Village Circle"}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	rec, err := c.FetchPlotByID(context.Background(), "621-412")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.ID != "621-412" || rec.AreaSqm != 1050 {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestFetchPlotByIDNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	if _, err := c.FetchPlotByID(context.Background(), "nope"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSearchByAreaPassesFilters(t *testing.T) {
	var gotQuery atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery.Store(r.URL.Query().Encode())
		w.Write([]byte(`{"plots":[{"id":"p1","area_sqm":990},{"id":"","area_sqm":5}],"total":2}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	recs, err := c.SearchByArea(context.Background(), 940, 1060, "Jumeirah Village Circle")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 1 || recs[0].ID != "p1" {
		t.Fatalf("expected blank-ID rows dropped, got %+v", recs)
	}
	q := gotQuery.Load().(string)
	if q != "area_name=Jumeirah+Village+Circle&max_area=1060&min_area=940" {
		t.Fatalf("unexpected query: %s", q)
	}
}

func TestRetryOn429ThenSuccess(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"plots":[{"id":"p1","area_sqm":1000}]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	recs, err := c.SearchByArea(context.Background(), 900, 1100, "")
	if err != nil {
		t.Fatalf("unexpected error after retry: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected one record, got %d", len(recs))
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

func TestNoRetryOn400(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	if _, err := c.SearchByLocation(context.Background(), 25.06, 55.21, 500); err == nil {
		t.Fatal("expected error")
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("expected single call on 400, got %d", calls)
	}
}
