package reporting

import (
	"encoding/json"
	"io"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/aflahkuncoro/deforestation-monitoring/pkg/errors"
)

// MapDocument is a renderer-independent description of a composed map,
// serializable for frontends and artifact storage.
type MapDocument struct {
	Center [2]float64      `json:"center"` // lon, lat
	Zoom   int             `json:"zoom"`
	Layers []LayerDocument `json:"layers"`
}

// LayerDocument describes one registered layer.  Outline layers carry the
// boundary geometry; raster layers carry grid metadata instead of pixels,
// which stay in the catalog.
type LayerDocument struct {
	Name     string            `json:"name"`
	Kind     string            `json:"kind"` // "outline" | "raster"
	Geometry *geojson.Geometry `json:"geometry,omitempty"`
	Band     string            `json:"band,omitempty"`
	Scale    float64           `json:"scale_meters,omitempty"`
	Cols     int               `json:"cols,omitempty"`
	Rows     int               `json:"rows,omitempty"`
	Vis      VisParams         `json:"vis"`
}

// DocumentRegistry is a MapRegistry that accumulates layers into a
// MapDocument.
type DocumentRegistry struct {
	doc MapDocument
}

// NewDocumentRegistry returns an empty registry.
func NewDocumentRegistry() *DocumentRegistry {
	return &DocumentRegistry{}
}

var _ MapRegistry = (*DocumentRegistry)(nil)

// SetView implements MapRegistry.
func (r *DocumentRegistry) SetView(center orb.Point, zoom int) {
	r.doc.Center = [2]float64{center[0], center[1]}
	r.doc.Zoom = zoom
}

// AddLayer implements MapRegistry.
func (r *DocumentRegistry) AddLayer(layer MapLayer) error {
	switch {
	case layer.Outline != nil:
		r.doc.Layers = append(r.doc.Layers, LayerDocument{
			Name:     layer.Name,
			Kind:     "outline",
			Geometry: geojson.NewGeometry(layer.Outline),
			Vis:      layer.Vis,
		})
	case layer.Raster != nil:
		r.doc.Layers = append(r.doc.Layers, LayerDocument{
			Name:  layer.Name,
			Kind:  "raster",
			Band:  layer.Raster.Name,
			Scale: layer.Raster.Grid.Scale,
			Cols:  layer.Raster.Grid.Cols,
			Rows:  layer.Raster.Grid.Rows,
			Vis:   layer.Vis,
		})
	default:
		return errors.Newf(errors.CodeInvalidParam, "layer %q carries neither outline nor raster", layer.Name)
	}
	return nil
}

// Document returns the accumulated map description.
func (r *DocumentRegistry) Document() MapDocument {
	return r.doc
}

// WriteTo serializes the document as indented JSON.
func (r *DocumentRegistry) WriteTo(w io.Writer) (int64, error) {
	data, err := json.MarshalIndent(r.doc, "", "  ")
	if err != nil {
		return 0, errors.Wrap(err, errors.CodeSerialization, "map document not serializable")
	}
	data = append(data, '\n')
	n, err := w.Write(data)
	return int64(n), err
}
