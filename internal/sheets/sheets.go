// Package sheets looks up owner/CRM rows for matched plots in an external
// spreadsheet service. The lookup is a single batched call per match set
// and is best-effort: a failure leaves results unannotated.
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type Config struct {
	BaseURL    string
	SheetID    string
	APIKey     string
	HTTPClient *http.Client
}

type Client struct {
	cfg Config
}

func NewClient(cfg Config) *Client {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{cfg: cfg}
}

// Row is one spreadsheet row keyed by plot ID.
type Row struct {
	PlotID         string            `json:"plot_id"`
	OwnerReference string            `json:"owner_reference"`
	Fields         map[string]string `json:"fields,omitempty"`
}

type lookupRequest struct {
	SheetID string   `json:"sheet_id"`
	PlotIDs []string `json:"plot_ids"`
}

type lookupResponse struct {
	Rows []Row `json:"rows"`
}

// LookupRows fetches the rows for the given plot IDs in one call. Plots
// with no row are simply absent from the returned map.
func (c *Client) LookupRows(ctx context.Context, plotIDs []string) (map[string]Row, error) {
	ids := make([]string, 0, len(plotIDs))
	for _, id := range plotIDs {
		if v := strings.TrimSpace(id); v != "" {
			ids = append(ids, v)
		}
	}
	if len(ids) == 0 {
		return map[string]Row{}, nil
	}

	payload, _ := json.Marshal(lookupRequest{SheetID: c.cfg.SheetID, PlotIDs: ids})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(c.cfg.BaseURL, "/")+"/rows:batchGet", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("X-Api-Key", c.cfg.APIKey)
	}

	res, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	blob, _ := io.ReadAll(io.LimitReader(res.Body, 2<<20))
	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("status code: %d body=%s", res.StatusCode, string(blob))
	}

	var parsed lookupResponse
	if err := json.Unmarshal(blob, &parsed); err != nil {
		return nil, fmt.Errorf("decode rows: %w", err)
	}
	out := make(map[string]Row, len(parsed.Rows))
	for _, row := range parsed.Rows {
		if id := strings.TrimSpace(row.PlotID); id != "" {
			out[id] = row
		}
	}
	return out, nil
}
