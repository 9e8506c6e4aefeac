// Package gis is the HTTP client for the external spatial/attribute plot
// search service. The matching engine treats every call as best-effort;
// callers impose their own timeout via ctx.
package gis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/terraplot/plotdesk/internal/plots"
)

const (
	defaultBaseURL     = "https://gis.example.gov/api/v2"
	defaultMaxAttempts = 3
)

type Config struct {
	BaseURL     string
	APIKey      string
	MaxAttempts int
	HTTPClient  *http.Client
}

type Client struct {
	cfg Config
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{cfg: cfg}
}

// ErrNotFound marks a by-ID lookup that returned no plot. Search calls
// return empty slices instead.
var ErrNotFound = errors.New("plot not found")

type plotPayload struct {
	ID          string  `json:"id"`
	AreaSqm     float64 `json:"area_sqm"`
	GFASqm      float64 `json:"gfa_sqm"`
	Zoning      string  `json:"zoning"`
	Status      string  `json:"status"`
	Location    string  `json:"location"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	GeometryRef string  `json:"geometry_ref"`
}

type searchResponse struct {
	Plots []plotPayload `json:"plots"`
	Total int           `json:"total"`
}

// FetchPlotByID looks up a single plot. Returns ErrNotFound on a 404 or an
// empty body.
func (c *Client) FetchPlotByID(ctx context.Context, id string) (plots.Record, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return plots.Record{}, ErrNotFound
	}
	blob, status, err := c.get(ctx, "/plots/"+url.PathEscape(id), nil)
	if status == http.StatusNotFound {
		return plots.Record{}, ErrNotFound
	}
	if err != nil {
		return plots.Record{}, err
	}
	var p plotPayload
	if err := json.Unmarshal(blob, &p); err != nil {
		return plots.Record{}, fmt.Errorf("decode plot: %w", err)
	}
	if strings.TrimSpace(p.ID) == "" {
		return plots.Record{}, ErrNotFound
	}
	return toRecord(p), nil
}

// SearchByArea finds plots whose area falls in [minSqm, maxSqm], optionally
// restricted to a named area.
func (c *Client) SearchByArea(ctx context.Context, minSqm, maxSqm float64, areaName string) ([]plots.Record, error) {
	q := url.Values{}
	q.Set("min_area", strconv.FormatFloat(minSqm, 'f', -1, 64))
	q.Set("max_area", strconv.FormatFloat(maxSqm, 'f', -1, 64))
	if strings.TrimSpace(areaName) != "" {
		q.Set("area_name", strings.TrimSpace(areaName))
	}
	return c.search(ctx, "/plots/search", q)
}

// SearchByLocation finds plots within radiusMeters of a point.
func (c *Client) SearchByLocation(ctx context.Context, lat, lng float64, radiusMeters int) ([]plots.Record, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lng", strconv.FormatFloat(lng, 'f', -1, 64))
	q.Set("radius", strconv.Itoa(radiusMeters))
	return c.search(ctx, "/plots/nearby", q)
}

func (c *Client) search(ctx context.Context, path string, q url.Values) ([]plots.Record, error) {
	blob, _, err := c.get(ctx, path, q)
	if err != nil {
		return nil, err
	}
	var resp searchResponse
	if err := json.Unmarshal(blob, &resp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	out := make([]plots.Record, 0, len(resp.Plots))
	for _, p := range resp.Plots {
		if strings.TrimSpace(p.ID) == "" {
			continue
		}
		out = append(out, toRecord(p))
	}
	return out, nil
}

// get runs the request with retries on 429 and 5xx, honouring Retry-After.
// 4xx other than 429 fail immediately.
func (c *Client) get(ctx context.Context, path string, q url.Values) ([]byte, int, error) {
	var lastErr error
	lastStatus := 0
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		blob, status, retryAfter, err := c.getOnce(ctx, path, q)
		lastStatus = status
		if err == nil {
			return blob, status, nil
		}
		lastErr = err
		if status == http.StatusNotFound {
			return nil, status, err
		}
		if status >= 400 && status < 500 && status != http.StatusTooManyRequests {
			return nil, status, err
		}
		if attempt == c.cfg.MaxAttempts {
			break
		}
		sleep := retryAfter
		if sleep <= 0 {
			sleep = backoffDelay(attempt)
		}
		if err := sleepCtx(ctx, sleep); err != nil {
			return nil, status, err
		}
	}
	return nil, lastStatus, lastErr
}

func (c *Client) getOnce(ctx context.Context, path string, q url.Values) ([]byte, int, time.Duration, error) {
	u := strings.TrimRight(c.cfg.BaseURL, "/") + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, 0, err
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("X-Api-Key", c.cfg.APIKey)
	}

	res, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, 0, 0, err
	}
	defer res.Body.Close()
	blob, _ := io.ReadAll(io.LimitReader(res.Body, 2<<20))

	retryAfter := parseRetryAfter(res.Header.Get("Retry-After"))
	if res.StatusCode >= 400 {
		return nil, res.StatusCode, retryAfter, fmt.Errorf("status code: %d body=%s", res.StatusCode, string(blob))
	}
	return blob, res.StatusCode, retryAfter, nil
}

func toRecord(p plotPayload) plots.Record {
	return plots.Record{
		ID:          strings.TrimSpace(p.ID),
		AreaSqm:     p.AreaSqm,
		GFASqm:      p.GFASqm,
		Zoning:      p.Zoning,
		Status:      p.Status,
		Location:    p.Location,
		Lat:         p.Lat,
		Lng:         p.Lng,
		GeometryRef: p.GeometryRef,
	}
}

func parseRetryAfter(v string) time.Duration {
	if strings.TrimSpace(v) == "" {
		return 0
	}
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func backoffDelay(attempt int) time.Duration {
	if attempt <= 1 {
		return 500 * time.Millisecond
	}
	return time.Duration(attempt) * time.Second
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
