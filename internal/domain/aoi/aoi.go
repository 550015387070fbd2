// Package aoi implements the AreaOfInterest entity: the immutable polygon
// boundary that limits every dataset filter and area reduction in the
// pipeline.  An AOI is loaded once per analysis from the remote catalog and
// never mutated afterwards.
package aoi

import (
	"context"

	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"

	"github.com/aflahkuncoro/deforestation-monitoring/pkg/errors"
)

// AreaOfInterest is a polygon or multi-polygon boundary with an identifier.
// Geometry is stored in geographic coordinates (EPSG:4326).
type AreaOfInterest struct {
	// AssetID is the catalog path the boundary was loaded from.
	AssetID string
	// Name is the human-readable label carried by the boundary feature.
	Name string
	// Geometry is the boundary itself; orb.Polygon or orb.MultiPolygon.
	Geometry orb.Geometry
}

// New validates the geometry and constructs an AreaOfInterest.
func New(assetID, name string, geometry orb.Geometry) (*AreaOfInterest, error) {
	switch g := geometry.(type) {
	case orb.Polygon:
		if len(g) == 0 || len(g[0]) < 4 {
			return nil, errors.New(errors.CodeAOIInvalidGeometry, "polygon has no closed outer ring")
		}
	case orb.MultiPolygon:
		if len(g) == 0 {
			return nil, errors.New(errors.CodeAOIInvalidGeometry, "multi-polygon has no members")
		}
	default:
		return nil, errors.Newf(errors.CodeAOIInvalidGeometry,
			"geometry type %T is not a polygon boundary", geometry)
	}
	return &AreaOfInterest{AssetID: assetID, Name: name, Geometry: geometry}, nil
}

// Bound returns the geographic extent of the boundary.
func (a *AreaOfInterest) Bound() orb.Bound {
	return a.Geometry.Bound()
}

// Center returns the midpoint of the boundary's extent, used to center the
// map view.
func (a *AreaOfInterest) Center() orb.Point {
	b := a.Bound()
	return orb.Point{(b.Min[0] + b.Max[0]) / 2, (b.Min[1] + b.Max[1]) / 2}
}

// AreaHectares returns the geodesic area enclosed by the boundary.
func (a *AreaOfInterest) AreaHectares() float64 {
	return geo.Area(a.Geometry) / 1e4
}

// CellToken returns a truncated S2 cell token covering the boundary's
// extent.  The token is a stable, resolution-bounded spatial key used to
// partition caches and search indexes by location.
func (a *AreaOfInterest) CellToken() string {
	b := a.Bound()
	rect := s2.RectFromLatLng(s2.LatLngFromDegrees(b.Min[1], b.Min[0]))
	rect = rect.AddPoint(s2.LatLngFromDegrees(b.Max[1], b.Max[0]))
	token := s2.CellIDFromLatLng(rect.Center()).Parent(10).ToToken()
	if len(token) > 8 {
		token = token[:8]
	}
	return token
}

// Repository persists boundary geometries fetched from the catalog so that
// repeated runs over the same AOI do not refetch the feature collection.
type Repository interface {
	// Save stores or refreshes the boundary for its asset ID.
	Save(ctx context.Context, a *AreaOfInterest) error
	// FindByAssetID returns the stored boundary, or a CodeAOINotFound error.
	FindByAssetID(ctx context.Context, assetID string) (*AreaOfInterest, error)
}
