// Package analysis implements the AnalysisRun aggregate: one execution of
// the deforestation pipeline over an AOI and a year window, together with its
// lifecycle and the hectare estimates it produced.
package analysis

import (
	"context"
	"time"

	"github.com/aflahkuncoro/deforestation-monitoring/pkg/errors"
	"github.com/aflahkuncoro/deforestation-monitoring/pkg/types/common"
)

// RunStatus is the lifecycle state of an analysis run.
type RunStatus string

const (
	StatusQueued    RunStatus = "queued"
	StatusRunning   RunStatus = "running"
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"
)

// allowedTransitions defines the valid next states reachable from each
// status.
//
//	Queued ──► Running ──► Completed
//	  │           │
//	  └──► Failed ◄┘
var allowedTransitions = map[RunStatus][]RunStatus{
	StatusQueued:    {StatusRunning, StatusFailed},
	StatusRunning:   {StatusCompleted, StatusFailed},
	StatusCompleted: {},
	StatusFailed:    {},
}

// AreaEstimate is a scalar number of hectares measured for one dataset at
// its native resolution.
type AreaEstimate struct {
	// Dataset names the measured layer: "hansen", "radd", or "merged".
	Dataset string `json:"dataset"`
	// Hectares is the reduced area.
	Hectares float64 `json:"hectares"`
	// ScaleMeters is the resolution the reduction ran at (30 for Hansen,
	// 10 for RADD and the merged layer).
	ScaleMeters float64 `json:"scale_meters"`
}

// Request carries the parameters of a run.
type Request struct {
	// AOIAssetID is the boundary feature-collection path.
	AOIAssetID string `json:"aoi_asset_id"`
	// StartYear and EndYear bound the analysis window.  StartYear filters
	// the Hansen loss-year band from below; both bound the RADD date range.
	StartYear int `json:"start_year"`
	EndYear   int `json:"end_year"`
}

// Validate checks the request parameters.
func (r Request) Validate() error {
	if r.AOIAssetID == "" {
		return errors.New(errors.CodeValidation, "aoi_asset_id must not be empty")
	}
	if r.StartYear < 2000 {
		return errors.Newf(errors.CodeValidation,
			"start_year %d precedes the Hansen baseline year 2000", r.StartYear)
	}
	if r.EndYear < r.StartYear {
		return errors.Newf(errors.CodeValidation,
			"end_year %d precedes start_year %d", r.EndYear, r.StartYear)
	}
	return nil
}

// Run is one pipeline execution.  Mutations go through Start/Complete/Fail
// so status transitions stay legal.
type Run struct {
	common.BaseEntity

	Request Request   `json:"request"`
	AOIName string    `json:"aoi_name,omitempty"`
	Status  RunStatus `json:"status"`

	// Estimates holds the three hectare figures once the run completes.
	Estimates []AreaEstimate `json:"estimates,omitempty"`

	// ArtifactKeys reference the rendered layer artifacts in object storage.
	ArtifactKeys []string `json:"artifact_keys,omitempty"`

	// Error carries the terminal failure message for failed runs.
	Error string `json:"error,omitempty"`

	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// NewRun constructs a queued run for the request.
func NewRun(req Request) (*Run, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &Run{
		BaseEntity: common.BaseEntity{ID: common.NewID(), CreatedAt: now, UpdatedAt: now},
		Request:    req,
		Status:     StatusQueued,
	}, nil
}

func (r *Run) transition(next RunStatus) error {
	for _, s := range allowedTransitions[r.Status] {
		if s == next {
			r.Status = next
			r.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return errors.Newf(errors.CodeRunInvalidState,
		"run %s cannot move from %s to %s", r.ID, r.Status, next)
}

// Start marks the run as executing.
func (r *Run) Start() error {
	if err := r.transition(StatusRunning); err != nil {
		return err
	}
	now := time.Now().UTC()
	r.StartedAt = &now
	return nil
}

// Complete records the estimates and marks the run completed.
func (r *Run) Complete(estimates []AreaEstimate) error {
	if len(estimates) == 0 {
		return errors.New(errors.CodeValidation, "a completed run requires at least one estimate")
	}
	if err := r.transition(StatusCompleted); err != nil {
		return err
	}
	r.Estimates = estimates
	now := time.Now().UTC()
	r.CompletedAt = &now
	return nil
}

// Fail records the terminal error and marks the run failed.
func (r *Run) Fail(msg string) error {
	if err := r.transition(StatusFailed); err != nil {
		return err
	}
	r.Error = msg
	now := time.Now().UTC()
	r.CompletedAt = &now
	return nil
}

// Estimate returns the estimate for a dataset name, if recorded.
func (r *Run) Estimate(dataset string) (AreaEstimate, bool) {
	for _, e := range r.Estimates {
		if e.Dataset == dataset {
			return e, true
		}
	}
	return AreaEstimate{}, false
}

// ListFilter narrows run listings.
type ListFilter struct {
	Status     *RunStatus
	AOIAssetID string
	Page       int
	PageSize   int
}

// Repository persists runs.
type Repository interface {
	Save(ctx context.Context, run *Run) error
	Update(ctx context.Context, run *Run) error
	// FindByID returns the run or a CodeRunNotFound error.
	FindByID(ctx context.Context, id common.ID) (*Run, error)
	List(ctx context.Context, filter ListFilter) ([]*Run, int64, error)
}
