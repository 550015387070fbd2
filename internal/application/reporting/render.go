package reporting

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"

	"github.com/aflahkuncoro/deforestation-monitoring/internal/domain/raster"
	"github.com/aflahkuncoro/deforestation-monitoring/pkg/errors"
)

// RenderPNG rasterizes a layer to a PNG using the vis params.  Present
// pixel values are clamped to [Min, Max] and looked up on the palette ramp;
// absent pixels come out fully transparent.
func RenderPNG(layer *raster.Layer, vis VisParams) ([]byte, error) {
	if layer == nil {
		return nil, errors.New(errors.CodeInvalidParam, "layer must not be nil")
	}
	ramp, err := parsePalette(vis.Palette)
	if err != nil {
		return nil, err
	}

	img := image.NewNRGBA(image.Rect(0, 0, layer.Grid.Cols, layer.Grid.Rows))
	span := vis.Max - vis.Min
	for row := 0; row < layer.Grid.Rows; row++ {
		for col := 0; col < layer.Grid.Cols; col++ {
			v, present := layer.Value(col, row)
			if !present {
				continue
			}
			t := 0.0
			if span > 0 {
				t = (v - vis.Min) / span
			}
			img.SetNRGBA(col, row, rampColor(ramp, t))
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to encode layer image")
	}
	return buf.Bytes(), nil
}

func parsePalette(palette []string) ([]color.NRGBA, error) {
	if len(palette) == 0 {
		return []color.NRGBA{{A: 255}, {R: 255, G: 255, B: 255, A: 255}}, nil
	}
	out := make([]color.NRGBA, len(palette))
	for i, hex := range palette {
		c, err := parseHexColor(hex)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

func parseHexColor(s string) (color.NRGBA, error) {
	if len(s) > 0 && s[0] == '#' {
		s = s[1:]
	}
	if len(s) != 6 {
		return color.NRGBA{}, errors.Newf(errors.CodeInvalidParam, "invalid palette color %q", s)
	}
	var r, g, b uint8
	if _, err := fmt.Sscanf(s, "%02x%02x%02x", &r, &g, &b); err != nil {
		return color.NRGBA{}, errors.Newf(errors.CodeInvalidParam, "invalid palette color %q", s)
	}
	return color.NRGBA{R: r, G: g, B: b, A: 255}, nil
}

// rampColor interpolates t in [0, 1] across the palette stops.
func rampColor(ramp []color.NRGBA, t float64) color.NRGBA {
	t = math.Max(0, math.Min(1, t))
	if len(ramp) == 1 {
		return ramp[0]
	}
	pos := t * float64(len(ramp)-1)
	i := int(pos)
	if i >= len(ramp)-1 {
		return ramp[len(ramp)-1]
	}
	f := pos - float64(i)
	a, b := ramp[i], ramp[i+1]
	lerp := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + f*(float64(y)-float64(x))))
	}
	return color.NRGBA{R: lerp(a.R, b.R), G: lerp(a.G, b.G), B: lerp(a.B, b.B), A: 255}
}
