package configdef

import (
	"errors"
	"fmt"
	"image/color"

	validate "gopkg.in/dealancer/validate.v2"
)

var ErrConfigAlreadyExists = errors.New("config file already exists")

type Resolver interface {
	Resolve() (Values, error)
}

type Creator interface {
	Create() error
}

type Camera struct {
	Title string `json:"title" validate:"empty=false"`
	// Device is the capture device index handed to the video backend.
	Device           int  `json:"device" validate:"gte=0"`
	FrameWidth       int  `json:"frame_width" validate:"gte=1"`
	FrameHeight      int  `json:"frame_height" validate:"gte=1"`
	WarmupAttempts   int  `json:"warmup_attempts" validate:"gte=1 & lte=10"`
	CleanupIndexSpan int  `json:"cleanup_index_span" validate:"lte=10"`
	MockCapturer     bool `json:"mock_capturer"`
	Disabled         bool `json:"disabled"`
}

type Detection struct {
	CascadePath  string  `json:"cascade_path"`
	CascadeURL   string  `json:"cascade_url"`
	ScaleFactor  float64 `json:"scale_factor" validate:"gte=1.01 & lte=1.5"`
	MinNeighbors int     `json:"min_neighbors" validate:"gte=1 & lte=10"`
	BoxColor     string  `json:"box_color"`
}

type Values struct {
	Debug     bool      `json:"debug"`
	Camera    Camera    `json:"camera"`
	Detection Detection `json:"detection"`
}

func (v Values) RunValidate() error {
	if err := validate.Validate(&v); err != nil {
		return err
	}
	return v.Validate()
}

func (v Values) Validate() error {
	const validationErrorHeader = "validation failed: %w"
	if _, err := ParseHexColor(v.Detection.BoxColor); err != nil {
		return fmt.Errorf(validationErrorHeader, err)
	}
	return nil
}

// ParseHexColor converts a "#RRGGBB" string into a fully opaque RGBA.
func ParseHexColor(s string) (color.RGBA, error) {
	c := color.RGBA{A: 0xFF}
	if len(s) != 7 || s[0] != '#' {
		return c, fmt.Errorf("box colour %q is not in #RRGGBB form", s)
	}
	if _, err := fmt.Sscanf(s, "#%02x%02x%02x", &c.R, &c.G, &c.B); err != nil {
		return c, fmt.Errorf("box colour %q is not in #RRGGBB form", s)
	}
	return c, nil
}
