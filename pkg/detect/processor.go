package detect

import (
	"fmt"
	"image"

	"github.com/tauraamui/visaged/pkg/fps"
	"github.com/tauraamui/visaged/pkg/video/videoframe"
	"gocv.io/x/gocv"
)

// Result is what one frame cycle produced. Face boxes are ephemeral,
// valid only for the frame they came from.
type Result struct {
	Faces     []image.Rectangle
	FaceCount int
	FPS       int
}

// Processor runs the per-frame detect-annotate-measure cycle. Not
// safe for concurrent use; one processor belongs to one capture loop.
type Processor struct {
	detector Detector
	meter    *fps.Meter
}

func NewProcessor(detector Detector) *Processor {
	return &Processor{
		detector: detector,
		meter:    fps.NewMeter(),
	}
}

// Process detects faces in the frame and draws the annotations onto
// it in place. An invalid (nil or zero-size) frame fails with an
// invalid_frame error which callers treat as skip-this-frame, not as
// a pipeline fault.
func (p *Processor) Process(frame videoframe.Frame, params Params) (Result, error) {
	mat, err := matRef(frame)
	if err != nil {
		return Result{}, err
	}

	params = params.Normalize()
	faces, err := p.detector.Detect(frame, params)
	if err != nil {
		return Result{}, err
	}

	currentFPS := p.meter.Tick()
	annotate(mat, faces, currentFPS, params)

	return Result{Faces: faces, FaceCount: len(faces), FPS: currentFPS}, nil
}

func annotate(mat *gocv.Mat, faces []image.Rectangle, currentFPS int, params Params) {
	for _, face := range faces {
		gocv.Rectangle(mat, face, params.BoxColor, 2)
		gocv.PutText(
			mat, "face",
			image.Pt(face.Min.X, face.Min.Y-10),
			gocv.FontHersheySimplex, 0.5, params.BoxColor, 2,
		)
	}

	gocv.PutText(
		mat, fmt.Sprintf("faces: %d", len(faces)),
		image.Pt(10, 30),
		gocv.FontHersheySimplex, 1, params.BoxColor, 2,
	)
	gocv.PutText(
		mat, fmt.Sprintf("fps: %d", currentFPS),
		image.Pt(10, 70),
		gocv.FontHersheySimplex, 1, params.BoxColor, 2,
	)
}
