package research

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func TestCacheRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "research", "cache.json")

	docs, err := LoadCache(path)
	if err != nil {
		t.Fatalf("load missing cache: %v", err)
	}
	if len(docs) != 0 {
		t.Fatalf("expected empty cache, got %d docs", len(docs))
	}

	doc := Document{
		ID:        "doc-1",
		AreaName:  "Jumeirah Village Circle",
		AreaCodes: []string{"621"},
		Assumptions: Assumptions{
			UnitPsf:         map[string]float64{"studio": 1100},
			ConstructionPsf: 430,
		},
		UploadedAt: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := AppendToCache(path, doc); err != nil {
		t.Fatalf("append: %v", err)
	}

	docs, err = LoadCache(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(docs) != 1 || docs[0].ID != "doc-1" {
		t.Fatalf("unexpected cache contents: %+v", docs)
	}
	if docs[0].Assumptions.UnitPsf["studio"] != 1100 {
		t.Fatalf("assumptions not round-tripped: %+v", docs[0].Assumptions)
	}
}

func TestSingleAreaCode(t *testing.T) {
	if _, ok := (Document{AreaCodes: []string{"621", "619"}}).SingleAreaCode(); ok {
		t.Fatal("multi-area document must not report a single code")
	}
	if _, ok := (Document{}).SingleAreaCode(); ok {
		t.Fatal("codeless document must not report a single code")
	}
	code, ok := (Document{AreaCodes: []string{"621"}}).SingleAreaCode()
	if !ok || code != "621" {
		t.Fatalf("unexpected single code: %q ok=%v", code, ok)
	}
}

type stubCaller struct {
	responses []string
	errs      []error
	calls     int
}

func (s *stubCaller) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	i := s.calls
	s.calls++
	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	if err != nil {
		return "", err
	}
	if i < len(s.responses) {
		return s.responses[i], nil
	}
	return "", errors.New("no more responses")
}

const goodExtraction = `{
	"area_names": ["Jumeirah Village Circle", "Al Barsha South 4"],
	"unit_psf": {"studio": 1080, "1br": 1020},
	"construction_psf": 425,
	"land_cost_psf": 190,
	"market_avg": 990
}`

func TestIngestResolvesAndDeduplicatesAreaCodes(t *testing.T) {
	ing := NewIngestor(&stubCaller{responses: []string{goodExtraction}})
	doc, err := ing.Ingest(context.Background(), "jvc-q3.txt", "JVC research text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Both names alias to 621; the document stays single-area.
	if len(doc.AreaCodes) != 1 || doc.AreaCodes[0] != "621" {
		t.Fatalf("unexpected area codes: %v", doc.AreaCodes)
	}
	if doc.ID == "" {
		t.Fatal("expected generated document ID")
	}
	if doc.Assumptions.UnitPsf["studio"] != 1080 {
		t.Fatalf("assumptions not extracted: %+v", doc.Assumptions)
	}
	if doc.SourceFilename != "jvc-q3.txt" {
		t.Fatalf("source filename not carried: %q", doc.SourceFilename)
	}
}

func TestIngestRetriesMalformedJSON(t *testing.T) {
	stub := &stubCaller{responses: []string{"not json", "```json\n" + goodExtraction + "\n```"}}
	ing := NewIngestor(stub)
	doc, err := ing.Ingest(context.Background(), "x.txt", "text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stub.calls != 2 {
		t.Fatalf("expected retry, got %d calls", stub.calls)
	}
	if doc.AreaName != "Jumeirah Village Circle" {
		t.Fatalf("unexpected area name: %q", doc.AreaName)
	}
}

func TestIngestFailsValidationAfterRetries(t *testing.T) {
	empty := `{"area_names": []}`
	stub := &stubCaller{responses: []string{empty, empty, empty}}
	if _, err := NewIngestor(stub).Ingest(context.Background(), "x.txt", "text"); err == nil {
		t.Fatal("expected validation failure")
	}
}
