package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/paulmach/orb/geojson"

	"github.com/aflahkuncoro/deforestation-monitoring/internal/domain/aoi"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/infrastructure/monitoring/logging"
	"github.com/aflahkuncoro/deforestation-monitoring/pkg/errors"
)

// AOIRepository persists boundary geometries in PostgreSQL as GeoJSON.
type AOIRepository struct {
	db     querier
	logger logging.Logger
}

// NewAOIRepository constructs an AOI repository over db.
func NewAOIRepository(db querier, log logging.Logger) *AOIRepository {
	return &AOIRepository{db: db, logger: log.Named("aoi_repo")}
}

var _ aoi.Repository = (*AOIRepository)(nil)

// Save upserts a boundary by asset ID.
func (r *AOIRepository) Save(ctx context.Context, area *aoi.AreaOfInterest) error {
	if area == nil {
		return errors.New(errors.CodeInvalidParam, "area of interest must not be nil")
	}
	geom, err := geojson.NewGeometry(area.Geometry).MarshalJSON()
	if err != nil {
		return errors.Wrap(err, errors.CodeSerialization, "failed to encode boundary geometry")
	}

	now := time.Now().UTC()
	_, err = r.db.Exec(ctx, `
		INSERT INTO aoi_boundaries (asset_id, name, geometry, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (asset_id)
		DO UPDATE SET name = EXCLUDED.name, geometry = EXCLUDED.geometry, updated_at = EXCLUDED.updated_at`,
		area.AssetID, area.Name, geom, now)
	if err != nil {
		return errors.Wrap(err, errors.CodeDatabaseError, "failed to save boundary")
	}
	return nil
}

// FindByAssetID loads one boundary.
func (r *AOIRepository) FindByAssetID(ctx context.Context, assetID string) (*aoi.AreaOfInterest, error) {
	var (
		name string
		raw  []byte
	)
	err := r.db.QueryRow(ctx,
		`SELECT name, geometry FROM aoi_boundaries WHERE asset_id = $1`, assetID,
	).Scan(&name, &raw)
	if err == pgx.ErrNoRows {
		return nil, errors.New(errors.CodeAOINotFound, "boundary not found").WithDetail(assetID)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "failed to load boundary")
	}

	geom, err := geojson.UnmarshalGeometry(raw)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeSerialization, "stored boundary geometry is corrupt").WithDetail(assetID)
	}
	return aoi.New(assetID, name, geom.Geometry())
}
