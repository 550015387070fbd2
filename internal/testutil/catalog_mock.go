// Package testutil provides shared test doubles for the
// deforestation-monitoring services.
package testutil

import (
	"context"
	"sync"

	"github.com/aflahkuncoro/deforestation-monitoring/internal/domain/aoi"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/domain/raster"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/infrastructure/catalog"
	"github.com/aflahkuncoro/deforestation-monitoring/pkg/errors"
)

// CatalogMock implements catalog.Catalog backed by canned responses.
// Register assets with its Set* methods before use.  It is safe for
// concurrent use.
type CatalogMock struct {
	mu         sync.Mutex
	boundaries map[string]*aoi.AreaOfInterest
	images     map[string]*raster.Layer
	imageLists map[string][]catalog.ImageRef

	// Err, when set, fails every call with this error.
	Err error

	// Calls records the asset IDs in request order.
	Calls []string
}

// NewCatalogMock returns an empty mock.
func NewCatalogMock() *CatalogMock {
	return &CatalogMock{
		boundaries: map[string]*aoi.AreaOfInterest{},
		images:     map[string]*raster.Layer{},
		imageLists: map[string][]catalog.ImageRef{},
	}
}

// SetBoundary registers a boundary for assetID.
func (m *CatalogMock) SetBoundary(assetID string, area *aoi.AreaOfInterest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.boundaries[assetID] = area
}

// SetImage registers the pixel layer returned for assetID.
func (m *CatalogMock) SetImage(assetID string, layer *raster.Layer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.images[assetID] = layer
}

// SetImageList registers the collection listing returned for assetID.
func (m *CatalogMock) SetImageList(assetID string, refs []catalog.ImageRef) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.imageLists[assetID] = refs
}

func (m *CatalogMock) record(assetID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, assetID)
	return m.Err
}

// Boundary implements catalog.Catalog.
func (m *CatalogMock) Boundary(ctx context.Context, assetID string) (*aoi.AreaOfInterest, error) {
	if err := m.record(assetID); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	area, ok := m.boundaries[assetID]
	if !ok {
		return nil, errors.New(errors.CodeAssetNotFound, "no boundary registered").WithDetail(assetID)
	}
	return area, nil
}

// ImagePixels implements catalog.Catalog.
func (m *CatalogMock) ImagePixels(ctx context.Context, req catalog.ImageRequest) (*raster.Layer, error) {
	if err := m.record(req.AssetID); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	layer, ok := m.images[req.AssetID]
	if !ok {
		return nil, errors.New(errors.CodeAssetNotFound, "no image registered").WithDetail(req.AssetID)
	}
	return layer.Rename(req.Band), nil
}

// ListImages implements catalog.Catalog.
func (m *CatalogMock) ListImages(ctx context.Context, req catalog.CollectionRequest) ([]catalog.ImageRef, error) {
	if err := m.record(req.AssetID); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	refs, ok := m.imageLists[req.AssetID]
	if !ok {
		return nil, errors.New(errors.CodeAssetNotFound, "no collection registered").WithDetail(req.AssetID)
	}
	out := make([]catalog.ImageRef, 0, len(refs))
	for _, r := range refs {
		if r.Time.Before(req.From) || r.Time.After(req.To) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

var _ catalog.Catalog = (*CatalogMock)(nil)
