package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// Run is the wire representation of an analysis run.
type Run struct {
	ID           string         `json:"id"`
	Request      RunRequest     `json:"request"`
	AOIName      string         `json:"aoi_name,omitempty"`
	Status       string         `json:"status"`
	Estimates    []AreaEstimate `json:"estimates,omitempty"`
	ArtifactKeys []string       `json:"artifact_keys,omitempty"`
	Error        string         `json:"error,omitempty"`
	StartedAt    *time.Time     `json:"started_at,omitempty"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// RunRequest carries the parameters of a run.
type RunRequest struct {
	AOIAssetID string `json:"aoi_asset_id"`
	StartYear  int    `json:"start_year,omitempty"`
	EndYear    int    `json:"end_year,omitempty"`
}

// AreaEstimate is one hectare figure for a dataset.
type AreaEstimate struct {
	Dataset     string  `json:"dataset"`
	Hectares    float64 `json:"hectares"`
	ScaleMeters float64 `json:"scale_meters"`
}

// ArtifactLink pairs a stored artifact key with its download URL.
type ArtifactLink struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// RunList is one page of runs.
type RunList struct {
	Runs       []Run
	Pagination Pagination
}

// ListRunsOptions filter and page a run listing.
type ListRunsOptions struct {
	Status     string
	AOIAssetID string
	Page       int
	PageSize   int
}

// SubmitRun queues a run for background execution.
func (c *Client) SubmitRun(ctx context.Context, req RunRequest) (*Run, error) {
	var run Run
	if _, err := c.post(ctx, "/api/v1/runs", req, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// AnalyzeRun executes a run synchronously and returns the finished run.
func (c *Client) AnalyzeRun(ctx context.Context, req RunRequest) (*Run, error) {
	var run Run
	if _, err := c.post(ctx, "/api/v1/runs?sync=true", req, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// GetRun fetches one run by ID.
func (c *Client) GetRun(ctx context.Context, id string) (*Run, error) {
	var run Run
	if _, err := c.get(ctx, "/api/v1/runs/"+url.PathEscape(id), &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns fetches a page of runs.
func (c *Client) ListRuns(ctx context.Context, opts ListRunsOptions) (*RunList, error) {
	q := url.Values{}
	if opts.Status != "" {
		q.Set("status", opts.Status)
	}
	if opts.AOIAssetID != "" {
		q.Set("aoi_asset_id", opts.AOIAssetID)
	}
	if opts.Page > 0 {
		q.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.PageSize > 0 {
		q.Set("page_size", strconv.Itoa(opts.PageSize))
	}

	path := "/api/v1/runs"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var runs []Run
	env, err := c.get(ctx, path, &runs)
	if err != nil {
		return nil, err
	}
	list := &RunList{Runs: runs}
	if env.Pagination != nil {
		list.Pagination = *env.Pagination
	}
	return list, nil
}

// RunArtifacts fetches presigned download links for a run's stored outputs.
func (c *Client) RunArtifacts(ctx context.Context, id string) ([]ArtifactLink, error) {
	var links []ArtifactLink
	if _, err := c.get(ctx, fmt.Sprintf("/api/v1/runs/%s/artifacts", url.PathEscape(id)), &links); err != nil {
		return nil, err
	}
	return links, nil
}

// Estimates computes hectare estimates inline without run bookkeeping.
func (c *Client) Estimates(ctx context.Context, req RunRequest) ([]AreaEstimate, error) {
	var estimates []AreaEstimate
	if _, err := c.post(ctx, "/api/v1/estimates", req, &estimates); err != nil {
		return nil, err
	}
	return estimates, nil
}
