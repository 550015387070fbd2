package client

import (
	"context"
	"net/url"
	"strconv"
	"time"
)

// SearchRunsOptions filter the indexed-run search.
type SearchRunsOptions struct {
	Text              string
	AOIAssetID        string
	Status            string
	MinMergedHectares float64
	From              int
	Size              int
}

// RunDocument is an indexed run returned by search.
type RunDocument struct {
	RunID       string         `json:"run_id"`
	AOIAssetID  string         `json:"aoi_asset_id"`
	AOIName     string         `json:"aoi_name,omitempty"`
	StartYear   int            `json:"start_year"`
	EndYear     int            `json:"end_year"`
	Status      string         `json:"status"`
	Error       string         `json:"error,omitempty"`
	Estimates   []AreaEstimate `json:"estimates,omitempty"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// SearchResult is one page of matched run documents.
type SearchResult struct {
	Total int64         `json:"total"`
	Runs  []RunDocument `json:"runs"`
}

// SearchRuns queries the run search index.
func (c *Client) SearchRuns(ctx context.Context, opts SearchRunsOptions) (*SearchResult, error) {
	q := url.Values{}
	if opts.Text != "" {
		q.Set("q", opts.Text)
	}
	if opts.AOIAssetID != "" {
		q.Set("aoi_asset_id", opts.AOIAssetID)
	}
	if opts.Status != "" {
		q.Set("status", opts.Status)
	}
	if opts.MinMergedHectares > 0 {
		q.Set("min_merged_ha", strconv.FormatFloat(opts.MinMergedHectares, 'f', -1, 64))
	}
	if opts.From > 0 {
		q.Set("from", strconv.Itoa(opts.From))
	}
	if opts.Size > 0 {
		q.Set("size", strconv.Itoa(opts.Size))
	}

	path := "/api/v1/runs/search"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var result SearchResult
	if _, err := c.get(ctx, path, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
