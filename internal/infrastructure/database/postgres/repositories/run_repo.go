package repositories

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"

	"github.com/aflahkuncoro/deforestation-monitoring/internal/domain/analysis"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/infrastructure/monitoring/logging"
	"github.com/aflahkuncoro/deforestation-monitoring/pkg/errors"
	"github.com/aflahkuncoro/deforestation-monitoring/pkg/types/common"
)

const runColumns = `id, aoi_asset_id, aoi_name, start_year, end_year, status,
	estimates, artifact_keys, error, started_at, completed_at, created_at, updated_at`

// RunRepository persists analysis runs in PostgreSQL.
type RunRepository struct {
	db     querier
	logger logging.Logger
}

// NewRunRepository constructs a run repository over db.
func NewRunRepository(db querier, log logging.Logger) *RunRepository {
	return &RunRepository{db: db, logger: log.Named("run_repo")}
}

var _ analysis.Repository = (*RunRepository)(nil)

// Save inserts a new run.
func (r *RunRepository) Save(ctx context.Context, run *analysis.Run) error {
	estimates, err := json.Marshal(run.Estimates)
	if err != nil {
		return errors.Wrap(err, errors.CodeSerialization, "failed to encode estimates")
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO analysis_runs (`+runColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		string(run.ID), run.Request.AOIAssetID, run.AOIName,
		run.Request.StartYear, run.Request.EndYear, string(run.Status),
		estimates, run.ArtifactKeys, run.Error,
		run.StartedAt, run.CompletedAt, run.CreatedAt, run.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, errors.CodeDatabaseError, "failed to insert run")
	}
	return nil
}

// Update rewrites the mutable columns of an existing run.
func (r *RunRepository) Update(ctx context.Context, run *analysis.Run) error {
	estimates, err := json.Marshal(run.Estimates)
	if err != nil {
		return errors.Wrap(err, errors.CodeSerialization, "failed to encode estimates")
	}

	tag, err := r.db.Exec(ctx, `
		UPDATE analysis_runs
		SET aoi_name = $2, status = $3, estimates = $4, artifact_keys = $5,
		    error = $6, started_at = $7, completed_at = $8, updated_at = $9
		WHERE id = $1`,
		string(run.ID), run.AOIName, string(run.Status), estimates,
		run.ArtifactKeys, run.Error, run.StartedAt, run.CompletedAt, run.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, errors.CodeDatabaseError, "failed to update run")
	}
	if tag.RowsAffected() == 0 {
		return errors.New(errors.CodeRunNotFound, "run not found").WithDetail(string(run.ID))
	}
	return nil
}

// FindByID loads one run.
func (r *RunRepository) FindByID(ctx context.Context, id common.ID) (*analysis.Run, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+runColumns+` FROM analysis_runs WHERE id = $1`, string(id))
	run, err := scanRun(row)
	if err == pgx.ErrNoRows {
		return nil, errors.New(errors.CodeRunNotFound, "run not found").WithDetail(string(id))
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "failed to load run")
	}
	return run, nil
}

// List returns runs matching filter, newest first, plus the total count.
func (r *RunRepository) List(ctx context.Context, filter analysis.ListFilter) ([]*analysis.Run, int64, error) {
	where := ` WHERE ($1::text = '' OR status = $1)
	             AND ($2::text = '' OR aoi_asset_id = $2)`

	status := ""
	if filter.Status != nil {
		status = string(*filter.Status)
	}

	var total int64
	if err := r.db.QueryRow(ctx,
		`SELECT count(*) FROM analysis_runs`+where, status, filter.AOIAssetID,
	).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, errors.CodeDatabaseError, "failed to count runs")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+runColumns+` FROM analysis_runs`+where+`
		 ORDER BY created_at DESC
		 LIMIT $3 OFFSET $4`,
		status, filter.AOIAssetID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.CodeDatabaseError, "failed to list runs")
	}
	defer rows.Close()

	var runs []*analysis.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, 0, errors.Wrap(err, errors.CodeDatabaseError, "failed to scan run")
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.Wrap(err, errors.CodeDatabaseError, "failed to iterate runs")
	}
	return runs, total, nil
}

func scanRun(row pgx.Row) (*analysis.Run, error) {
	var (
		run       analysis.Run
		id        string
		status    string
		estimates []byte
	)
	err := row.Scan(
		&id, &run.Request.AOIAssetID, &run.AOIName,
		&run.Request.StartYear, &run.Request.EndYear, &status,
		&estimates, &run.ArtifactKeys, &run.Error,
		&run.StartedAt, &run.CompletedAt, &run.CreatedAt, &run.UpdatedAt)
	if err != nil {
		return nil, err
	}
	run.ID = common.ID(id)
	run.Status = analysis.RunStatus(status)
	if len(estimates) > 0 {
		if err := json.Unmarshal(estimates, &run.Estimates); err != nil {
			return nil, err
		}
	}
	return &run, nil
}
