// Package httpapi exposes the normalization, matching, market, and
// feasibility engines over a JSON HTTP surface.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/terraplot/plotdesk/internal/feasibility"
	"github.com/terraplot/plotdesk/internal/market"
	"github.com/terraplot/plotdesk/internal/matching"
	"github.com/terraplot/plotdesk/internal/parcel"
	"github.com/terraplot/plotdesk/internal/plots"
	"github.com/terraplot/plotdesk/internal/telemetry"
)

// PlotStore is the registry surface the API writes to and lists from.
type PlotStore interface {
	Upsert(rec plots.Record) error
	List() []plots.Record
	Len() int
}

type Server struct {
	store    PlotStore
	engine   *matching.Engine
	resolver *market.Resolver
}

func NewServer(store PlotStore, engine *matching.Engine, resolver *market.Resolver) http.Handler {
	s := &Server{store: store, engine: engine, resolver: resolver}
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/parcels/normalize", s.handleNormalize)
	mux.HandleFunc("/v1/parcels/match", s.handleMatch)
	mux.HandleFunc("/v1/parcels/match-fallback", s.handleMatchFallback)
	mux.HandleFunc("/v1/plots", s.handlePlots)
	mux.HandleFunc("/v1/market/assumptions", s.handleAssumptions)
	mux.HandleFunc("/v1/feasibility", s.handleFeasibility)
	mux.HandleFunc("/v1/feasibility/report", s.handleFeasibilityReport)
	mux.HandleFunc("/v1/health", s.handleHealth)
	return mux
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{
		"ok": false,
		"error": map[string]any{
			"message": err.Error(),
		},
	})
}

func readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return []byte("{}"), nil
	}
	blob, err := io.ReadAll(io.LimitReader(r.Body, 4<<20))
	if err != nil {
		return nil, err
	}
	if len(blob) == 0 {
		blob = []byte("{}")
	}
	return blob, nil
}

func decodeBody(r *http.Request, dst any) error {
	blob, err := readBody(r)
	if err != nil {
		return err
	}
	return json.Unmarshal(blob, dst)
}

func methodOnly(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return false
	}
	return true
}

type normalizeRequest struct {
	Forms          []parcel.FormInput `json:"forms,omitempty"`
	StructuredText string             `json:"structured_text,omitempty"`
	FreeText       string             `json:"free_text,omitempty"`
}

func (s *Server) handleNormalize(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodPost) {
		return
	}
	var req normalizeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	out := parcel.NormalizeBatch(req.Forms)
	if req.StructuredText != "" {
		specs, invalid := parcel.ParseStructuredText(req.StructuredText)
		out.Specs = append(out.Specs, specs...)
		out.Invalid += invalid
	}
	if req.FreeText != "" {
		spec, err := parcel.ParseFreeText(req.FreeText)
		if errors.Is(err, parcel.ErrNoDimensions) {
			out.Invalid++
		} else if err == nil {
			out.Specs = append(out.Specs, spec)
		}
	}
	writeJSON(w, 200, map[string]any{"ok": true, "specs": out.Specs, "invalid": out.Invalid})
}

type matchRequest struct {
	Specs      []parcel.Spec `json:"specs"`
	CrossCheck bool          `json:"cross_check,omitempty"`
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	s.serveMatch(w, r, func(ctx context.Context, req matchRequest) []matching.Result {
		return s.engine.Match(req.Specs)
	})
}

func (s *Server) handleMatchFallback(w http.ResponseWriter, r *http.Request) {
	s.serveMatch(w, r, func(ctx context.Context, req matchRequest) []matching.Result {
		return s.engine.MatchWithFallback(ctx, req.Specs)
	})
}

func (s *Server) serveMatch(w http.ResponseWriter, r *http.Request, run func(context.Context, matchRequest) []matching.Result) {
	if !methodOnly(w, r, http.MethodPost) {
		return
	}
	var req matchRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if len(req.Specs) == 0 {
		writeError(w, http.StatusBadRequest, errors.New("specs are required"))
		return
	}

	ctx, span := telemetry.Tracer().Start(r.Context(), "match")
	defer span.End()
	span.SetAttributes(attribute.Int("specs", len(req.Specs)))

	results := run(ctx, req)
	if req.CrossCheck {
		results = s.engine.CrossCheck(ctx, results)
	}
	span.SetAttributes(attribute.Int("matches", len(results)))
	writeJSON(w, 200, map[string]any{"ok": true, "results": results})
}

func (s *Server) handlePlots(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req struct {
			Plots []plots.Record `json:"plots"`
		}
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		stored := 0
		for _, rec := range req.Plots {
			if err := s.store.Upsert(rec); err != nil {
				writeError(w, http.StatusInternalServerError, err)
				return
			}
			stored++
		}
		writeJSON(w, 200, map[string]any{"ok": true, "stored": stored, "total": s.store.Len()})
	case http.MethodGet:
		writeJSON(w, 200, map[string]any{"plots": s.store.List()})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

type assumptionsRequest struct {
	Hint      market.LocationHint `json:"hint"`
	Overrides market.Overrides    `json:"overrides"`
}

func (s *Server) handleAssumptions(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodPost) {
		return
	}
	var req assumptionsRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	set := s.resolver.Resolve(req.Hint, req.Overrides)
	writeJSON(w, 200, map[string]any{"ok": true, "assumptions": set})
}

type feasibilityRequest struct {
	Input     feasibility.Input   `json:"input"`
	Strategy  string              `json:"strategy,omitempty"`
	Hint      market.LocationHint `json:"hint"`
	Overrides market.Overrides    `json:"overrides"`
}

func (s *Server) runFeasibility(r *http.Request) (feasibility.Input, feasibility.Result, int, error) {
	var req feasibilityRequest
	if err := decodeBody(r, &req); err != nil {
		return feasibility.Input{}, feasibility.Result{}, http.StatusBadRequest, err
	}
	strat, err := feasibility.StrategyFor(req.Strategy)
	if err != nil {
		return req.Input, feasibility.Result{}, http.StatusBadRequest, err
	}
	if err := req.Input.Validate(); err != nil {
		return req.Input, feasibility.Result{}, http.StatusBadRequest, err
	}

	_, span := telemetry.Tracer().Start(r.Context(), "feasibility")
	defer span.End()
	span.SetAttributes(
		attribute.String("strategy", strat.Name),
		attribute.Float64("area_sqft", req.Input.AreaSqft),
	)

	assumptions := s.resolver.Resolve(req.Hint, req.Overrides)
	res, err := feasibility.Calculate(req.Input, strat, assumptions)
	if err != nil {
		return req.Input, feasibility.Result{}, http.StatusBadRequest, err
	}
	return req.Input, res, 0, nil
}

func (s *Server) handleFeasibility(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodPost) {
		return
	}
	_, res, status, err := s.runFeasibility(r)
	if err != nil {
		writeError(w, status, err)
		return
	}
	writeJSON(w, 200, map[string]any{"ok": true, "result": res})
}

func (s *Server) handleFeasibilityReport(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodPost) {
		return
	}
	in, res, status, err := s.runFeasibility(r)
	if err != nil {
		writeError(w, status, err)
		return
	}
	markdown := feasibility.BuildReportMarkdown(in, res)
	if strings.Contains(r.Header.Get("Accept"), "text/html") {
		html, err := feasibility.RenderReportHTML(markdown)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(html))
		return
	}
	writeJSON(w, 200, map[string]any{"ok": true, "result": res, "report_markdown": markdown})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, 200, map[string]any{"ok": true, "plots": s.store.Len()})
}
