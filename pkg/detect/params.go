package detect

import (
	"image"
	"image/color"

	"github.com/tauraamui/visaged/pkg/configdef"
)

const (
	minScaleFactor  = 1.01
	maxScaleFactor  = 1.5
	minMinNeighbors = 1
	maxMinNeighbors = 10
)

// Params are the per-frame detection tuning knobs. They are immutable
// for the duration of one frame but may change between frames.
type Params struct {
	ScaleFactor  float64
	MinNeighbors int
	MinSize      image.Point
	BoxColor     color.RGBA
}

func DefaultParams() Params {
	return Params{
		ScaleFactor:  1.1,
		MinNeighbors: 5,
		MinSize:      image.Pt(30, 30),
		BoxColor:     color.RGBA{G: 0xFF, A: 0xFF},
	}
}

// ParamsFromConfig maps the detection config block onto Params,
// parsing the hex box colour.
func ParamsFromConfig(d configdef.Detection) (Params, error) {
	boxColor, err := configdef.ParseHexColor(d.BoxColor)
	if err != nil {
		return Params{}, err
	}
	p := Params{
		ScaleFactor:  d.ScaleFactor,
		MinNeighbors: d.MinNeighbors,
		MinSize:      image.Pt(30, 30),
		BoxColor:     boxColor,
	}
	return p.Normalize(), nil
}

// Normalize clamps out-of-range knobs back into their supported
// ranges instead of failing mid-stream.
func (p Params) Normalize() Params {
	if p.ScaleFactor < minScaleFactor {
		p.ScaleFactor = minScaleFactor
	}
	if p.ScaleFactor > maxScaleFactor {
		p.ScaleFactor = maxScaleFactor
	}
	if p.MinNeighbors < minMinNeighbors {
		p.MinNeighbors = minMinNeighbors
	}
	if p.MinNeighbors > maxMinNeighbors {
		p.MinNeighbors = maxMinNeighbors
	}
	if p.MinSize.X <= 0 || p.MinSize.Y <= 0 {
		p.MinSize = image.Pt(30, 30)
	}
	return p
}
