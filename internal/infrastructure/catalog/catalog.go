// Package catalog defines the contract with the remote geospatial catalog
// service: the platform-managed store of boundary collections, single-image
// rasters (Hansen), and time-stamped image collections (RADD).  The pipeline
// never reads raster files itself; it asks the catalog for pixel blocks over
// a region at a dataset's native scale and runs the algebra locally.
package catalog

import (
	"context"
	"time"

	"github.com/paulmach/orb"

	"github.com/aflahkuncoro/deforestation-monitoring/internal/domain/aoi"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/domain/raster"
)

// ImageRequest asks for the pixels of one band of one image over a region.
type ImageRequest struct {
	// AssetID is the catalog path of the image.
	AssetID string
	// Band selects the single band to fetch ("lossyear", "Alert").
	Band string
	// Region bounds the pixel block.
	Region orb.Bound
	// ScaleMeters is the dataset's native ground resolution.
	ScaleMeters float64
}

// ImageRef identifies one image of a collection together with its timestamp.
type ImageRef struct {
	AssetID string    `json:"asset_id"`
	Time    time.Time `json:"time"`
}

// CollectionRequest filters a collection by region and acquisition time.
type CollectionRequest struct {
	AssetID string
	Region  orb.Bound
	From    time.Time
	To      time.Time
}

// Catalog is the read-only client contract for the remote service.  All
// failures surface as AppErrors: CodeAssetNotFound when a path does not
// resolve, CodeCatalogUnavailable / CodeCatalogAuthFailed for transport
// problems, CodeCatalogDecodeError for malformed payloads.  There is no
// retry or fallback at this layer; a failed call fails the run.
type Catalog interface {
	// Boundary fetches the AOI polygon stored under the asset path.
	Boundary(ctx context.Context, assetID string) (*aoi.AreaOfInterest, error)

	// ImagePixels fetches one band of one image as a local raster layer.
	ImagePixels(ctx context.Context, req ImageRequest) (*raster.Layer, error)

	// ListImages returns the collection members intersecting the region and
	// acquired within the time range, oldest first.
	ListImages(ctx context.Context, req CollectionRequest) ([]ImageRef, error)
}
