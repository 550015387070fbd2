package testutil

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"

	"github.com/aflahkuncoro/deforestation-monitoring/internal/domain/aoi"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/domain/raster"
)

// SquarePolygon builds a closed square of the given side length in meters,
// centered on (lon, lat).
func SquarePolygon(lon, lat, sideMeters float64) orb.Polygon {
	mLat := 111132.0
	mLon := 111320.0 * math.Cos(lat*math.Pi/180)
	halfLat := sideMeters / 2 / mLat
	halfLon := sideMeters / 2 / mLon
	return orb.Polygon{orb.Ring{
		{lon - halfLon, lat - halfLat},
		{lon + halfLon, lat - halfLat},
		{lon + halfLon, lat + halfLat},
		{lon - halfLon, lat + halfLat},
		{lon - halfLon, lat - halfLat},
	}}
}

// SquareAOI builds a named square AOI centered on (lon, lat).
func SquareAOI(t *testing.T, assetID string, lon, lat, sideMeters float64) *aoi.AreaOfInterest {
	t.Helper()
	area, err := aoi.New(assetID, "test area", SquarePolygon(lon, lat, sideMeters))
	require.NoError(t, err)
	return area
}

// ConstantLayer builds a layer covering the AOI bound at the given scale
// with every pixel present and set to v.
func ConstantLayer(t *testing.T, area *aoi.AreaOfInterest, scaleMeters, v float64) *raster.Layer {
	t.Helper()
	grid, err := raster.NewGrid(area.Bound(), scaleMeters)
	require.NoError(t, err)
	return raster.NewConstant("test", grid, v)
}
