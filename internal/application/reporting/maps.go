package reporting

import (
	"github.com/paulmach/orb"

	"github.com/aflahkuncoro/deforestation-monitoring/internal/domain/aoi"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/domain/raster"
	"github.com/aflahkuncoro/deforestation-monitoring/pkg/errors"
)

// VisParams style a rendered raster layer.  Min and Max bound the value
// ramp; Palette holds hex colors interpolated across the ramp.
type VisParams struct {
	Min     float64  `json:"min"`
	Max     float64  `json:"max"`
	Palette []string `json:"palette,omitempty"`
}

// MapLayer is one styled entry on a map.  Exactly one of Raster and Outline
// is set: vector boundary layers carry Outline, raster layers carry Raster.
type MapLayer struct {
	Name    string
	Raster  *raster.Layer
	Outline orb.Geometry
	Vis     VisParams
}

// MapRegistry receives styled layers and the viewport.  It is an explicit
// dependency of the composer so tests and alternative frontends can capture
// the layer set without a rendering stack.
type MapRegistry interface {
	SetView(center orb.Point, zoom int)
	AddLayer(layer MapLayer) error
}

// MapInputs carries the layers a finished analysis is displayed with.
// Hansen is the loss-year layer, not the binarized mask: its pixel values
// drive the year ramp.  RADD and Merged are binary masks.
type MapInputs struct {
	AOI    *aoi.AreaOfInterest
	Hansen *raster.Layer
	RADD   *raster.Layer
	Merged *raster.Layer
}

// StandardLayers returns the four styled layers a finished analysis is
// displayed with: the boundary outline, the Hansen loss years on a
// yellow-to-red ramp, the RADD alerts in fixed red and the merged mask on a
// white-to-red ramp.
func StandardLayers(in MapInputs) []MapLayer {
	return []MapLayer{
		{
			Name:    "AOI boundary",
			Outline: in.AOI.Geometry,
			Vis:     VisParams{Palette: []string{"#000000"}},
		},
		{
			Name:   "Hansen forest loss",
			Raster: in.Hansen,
			// Loss-year offsets since 2000; the ramp spans the plausible
			// window so recent loss reads darker.
			Vis: VisParams{Min: 0, Max: 25, Palette: []string{"#ffff00", "#ff8800", "#ff0000"}},
		},
		{
			Name:   "RADD radar alerts",
			Raster: in.RADD,
			Vis:    VisParams{Min: 0, Max: 1, Palette: []string{"#ff0000"}},
		},
		{
			Name:   "Integrated alerts",
			Raster: in.Merged,
			Vis:    VisParams{Min: 0, Max: 1, Palette: []string{"#ffffff", "#ff0000"}},
		},
	}
}

// ComposeMap centers the registry on the AOI at the given zoom and adds the
// standard layer set.
func ComposeMap(registry MapRegistry, in MapInputs, zoom int) error {
	if registry == nil {
		return errors.New(errors.CodeInvalidParam, "map registry must not be nil")
	}
	if in.AOI == nil || in.Hansen == nil || in.RADD == nil || in.Merged == nil {
		return errors.New(errors.CodeInvalidParam, "all four map inputs are required")
	}

	registry.SetView(in.AOI.Center(), zoom)
	for _, l := range StandardLayers(in) {
		if err := registry.AddLayer(l); err != nil {
			return err
		}
	}
	return nil
}
