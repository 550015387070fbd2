// Package rest implements the catalog.Catalog contract over the catalog
// service's HTTP API.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	geojson "github.com/paulmach/go.geojson"
	"github.com/paulmach/orb"

	"github.com/aflahkuncoro/deforestation-monitoring/internal/config"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/domain/aoi"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/domain/raster"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/infrastructure/catalog"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/infrastructure/monitoring/logging"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/infrastructure/monitoring/metrics"
	"github.com/aflahkuncoro/deforestation-monitoring/pkg/errors"
)

// Client talks to the catalog service.  It is safe for concurrent use.
type Client struct {
	baseURL     string
	apiKey      string
	maxBodySize int64
	httpClient  *http.Client
	logger      logging.Logger
}

// NewClient constructs a catalog client from configuration.
func NewClient(cfg config.CatalogConfig, log logging.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New(errors.CodeInvalidParam, "catalog base URL must not be empty")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 2 * time.Minute
	}
	maxBody := cfg.MaxBodySize
	if maxBody == 0 {
		maxBody = 256 << 20
	}
	return &Client{
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		maxBodySize: maxBody,
		httpClient:  &http.Client{Timeout: timeout},
		logger:      log.Named("catalog"),
	}, nil
}

var _ catalog.Catalog = (*Client)(nil)

// featuresResponse is the wire shape of a boundary feature collection fetch.
type featuresResponse struct {
	Features json.RawMessage `json:"features"`
	Name     string          `json:"name"`
}

// pixelsRequest is the wire shape of an image pixel fetch.
type pixelsRequest struct {
	Band   string  `json:"band"`
	West   float64 `json:"west"`
	South  float64 `json:"south"`
	East   float64 `json:"east"`
	North  float64 `json:"north"`
	Scale  float64 `json:"scale"`
	Format string  `json:"format"`
}

// pixelsResponse carries a row-major pixel block and its grid placement.
type pixelsResponse struct {
	Cols   int       `json:"cols"`
	Rows   int       `json:"rows"`
	West   float64   `json:"west"`
	North  float64   `json:"north"`
	DX     float64   `json:"dx"`
	DY     float64   `json:"dy"`
	Scale  float64   `json:"scale"`
	Values []float64 `json:"values"`
	Mask   []bool    `json:"mask,omitempty"`
}

type listImagesResponse struct {
	Images []catalog.ImageRef `json:"images"`
}

// Boundary implements catalog.Catalog.
func (c *Client) Boundary(ctx context.Context, assetID string) (*aoi.AreaOfInterest, error) {
	u := fmt.Sprintf("%s/tables/%s:features", c.baseURL, url.PathEscape(assetID))

	body, err := c.get(ctx, u, "boundary", assetID)
	if err != nil {
		return nil, err
	}

	fc, err := geojson.UnmarshalFeatureCollection(body)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeCatalogDecodeError,
			"boundary response is not a GeoJSON feature collection").WithDetail("asset=" + assetID)
	}
	if len(fc.Features) == 0 {
		return nil, errors.New(errors.CodeAssetNotFound,
			"boundary collection holds no features").WithDetail("asset=" + assetID)
	}

	feature := fc.Features[0]
	geom, err := toOrbGeometry(feature.Geometry)
	if err != nil {
		return nil, err
	}

	name := ""
	if v, ok := feature.Properties["name"]; ok {
		name = fmt.Sprintf("%v", v)
	}

	c.logger.Debug("boundary loaded", logging.String("asset", assetID), logging.String("name", name))
	return aoi.New(assetID, name, geom)
}

// ImagePixels implements catalog.Catalog.
func (c *Client) ImagePixels(ctx context.Context, req catalog.ImageRequest) (*raster.Layer, error) {
	u := fmt.Sprintf("%s/images/%s:computePixels", c.baseURL, url.PathEscape(req.AssetID))

	payload, err := json.Marshal(pixelsRequest{
		Band:   req.Band,
		West:   req.Region.Min[0],
		South:  req.Region.Min[1],
		East:   req.Region.Max[0],
		North:  req.Region.Max[1],
		Scale:  req.ScaleMeters,
		Format: "grid-json",
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeSerialization, "failed to encode pixel request")
	}

	body, err := c.post(ctx, u, payload, "pixels", req.AssetID)
	if err != nil {
		return nil, err
	}

	var resp pixelsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.Wrap(err, errors.CodeCatalogDecodeError,
			"pixel response is not valid grid JSON").WithDetail("asset=" + req.AssetID)
	}

	grid := raster.Grid{
		West:  resp.West,
		North: resp.North,
		DX:    resp.DX,
		DY:    resp.DY,
		Cols:  resp.Cols,
		Rows:  resp.Rows,
		Scale: resp.Scale,
	}
	layer, err := raster.FromValues(req.Band, grid, resp.Values, resp.Mask)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeCatalogDecodeError,
			"pixel block does not match its grid").WithDetail("asset=" + req.AssetID)
	}

	c.logger.Debug("pixels fetched",
		logging.String("asset", req.AssetID),
		logging.String("band", req.Band),
		logging.Int("cols", resp.Cols),
		logging.Int("rows", resp.Rows))
	return layer, nil
}

// ListImages implements catalog.Catalog.
func (c *Client) ListImages(ctx context.Context, req catalog.CollectionRequest) ([]catalog.ImageRef, error) {
	q := url.Values{}
	q.Set("west", fmt.Sprintf("%g", req.Region.Min[0]))
	q.Set("south", fmt.Sprintf("%g", req.Region.Min[1]))
	q.Set("east", fmt.Sprintf("%g", req.Region.Max[0]))
	q.Set("north", fmt.Sprintf("%g", req.Region.Max[1]))
	q.Set("start", req.From.UTC().Format(time.RFC3339))
	q.Set("end", req.To.UTC().Format(time.RFC3339))
	u := fmt.Sprintf("%s/collections/%s:listImages?%s", c.baseURL, url.PathEscape(req.AssetID), q.Encode())

	body, err := c.get(ctx, u, "list_images", req.AssetID)
	if err != nil {
		return nil, err
	}

	var resp listImagesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.Wrap(err, errors.CodeCatalogDecodeError,
			"collection listing is not valid JSON").WithDetail("asset=" + req.AssetID)
	}
	return resp.Images, nil
}

func (c *Client) get(ctx context.Context, u, operation, assetID string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to build catalog request")
	}
	return c.do(req, operation, assetID)
}

func (c *Client) post(ctx context.Context, u string, payload []byte, operation, assetID string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to build catalog request")
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, operation, assetID)
}

func (c *Client) do(req *http.Request, operation, assetID string) ([]byte, error) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.IncCatalogRequest(operation, "error")
		return nil, errors.Wrap(err, errors.CodeCatalogUnavailable,
			"catalog request failed").WithDetail("asset=" + assetID)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		metrics.IncCatalogRequest(operation, "not_found")
		return nil, errors.New(errors.CodeAssetNotFound, "asset not found").WithDetail("asset=" + assetID)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		metrics.IncCatalogRequest(operation, "auth_failed")
		return nil, errors.New(errors.CodeCatalogAuthFailed,
			"catalog rejected the credentials").WithDetail("asset=" + assetID)
	case resp.StatusCode != http.StatusOK:
		metrics.IncCatalogRequest(operation, "error")
		return nil, errors.Newf(errors.CodeCatalogUnavailable,
			"catalog returned status %d", resp.StatusCode).WithDetail("asset=" + assetID)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize))
	if err != nil {
		metrics.IncCatalogRequest(operation, "error")
		return nil, errors.Wrap(err, errors.CodeCatalogUnavailable, "failed to read catalog response")
	}
	metrics.IncCatalogRequest(operation, "ok")
	return body, nil
}

// toOrbGeometry converts a decoded GeoJSON geometry into the orb types the
// raster algebra works with.
func toOrbGeometry(g *geojson.Geometry) (orb.Geometry, error) {
	if g == nil {
		return nil, errors.New(errors.CodeCatalogDecodeError, "boundary feature has no geometry")
	}
	switch {
	case g.IsPolygon():
		return toOrbPolygon(g.Polygon), nil
	case g.IsMultiPolygon():
		mp := make(orb.MultiPolygon, 0, len(g.MultiPolygon))
		for _, p := range g.MultiPolygon {
			mp = append(mp, toOrbPolygon(p))
		}
		return mp, nil
	default:
		return nil, errors.Newf(errors.CodeAOIInvalidGeometry,
			"boundary geometry type %q is not a polygon", g.Type)
	}
}

func toOrbPolygon(coords [][][]float64) orb.Polygon {
	poly := make(orb.Polygon, 0, len(coords))
	for _, ring := range coords {
		r := make(orb.Ring, 0, len(ring))
		for _, pt := range ring {
			r = append(r, orb.Point{pt[0], pt[1]})
		}
		poly = append(poly, r)
	}
	return poly
}
