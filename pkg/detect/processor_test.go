package detect_test

import (
	"context"
	"image"
	"image/color"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tauraamui/visaged/pkg/detect"
	"github.com/tauraamui/visaged/pkg/video/videobackend"
	"github.com/tauraamui/visaged/pkg/video/videoframe"
	"gocv.io/x/gocv"
)

type matFrame struct {
	mat *gocv.Mat
}

func (f matFrame) DataRef() interface{} {
	return f.mat
}

func (f matFrame) Dimensions() videoframe.Dimensions {
	return videoframe.Dimensions{W: f.mat.Cols(), H: f.mat.Rows()}
}

func (f matFrame) Close() {
	f.mat.Close()
}

type stubDetector struct {
	faces []image.Rectangle
	err   error
}

func (d stubDetector) Detect(frame videoframe.Frame, params detect.Params) ([]image.Rectangle, error) {
	return d.faces, d.err
}

func (d stubDetector) Close() error { return nil }

func newBlackFrame(t *testing.T, w, h int) matFrame {
	t.Helper()
	mat := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8UC3)
	t.Cleanup(func() { mat.Close() })
	return matFrame{mat: &mat}
}

func pixelTouched(mat *gocv.Mat, row, col int) bool {
	v := mat.GetVecbAt(row, col)
	return int(v[0])+int(v[1])+int(v[2]) > 0
}

func TestProcessFailsOnNilFrame(t *testing.T) {
	proc := detect.NewProcessor(stubDetector{})

	_, err := proc.Process(nil, detect.DefaultParams())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "frame is nil")
}

func TestProcessFailsOnEmptyFrame(t *testing.T) {
	proc := detect.NewProcessor(stubDetector{})

	mat := gocv.NewMat()
	defer mat.Close()

	_, err := proc.Process(matFrame{mat: &mat}, detect.DefaultParams())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "frame is empty")
}

func TestProcessAnnotatesOnlyWithinBoxAndOverlayRegions(t *testing.T) {
	face := image.Rect(300, 200, 400, 300)
	proc := detect.NewProcessor(stubDetector{faces: []image.Rectangle{face}})

	frame := newBlackFrame(t, 640, 480)
	params := detect.DefaultParams()
	params.BoxColor = color.RGBA{G: 0xFF, A: 0xFF}

	result, err := proc.Process(frame, params)
	require.NoError(t, err)

	assert.Equal(t, 1, result.FaceCount)
	assert.Equal(t, []image.Rectangle{face}, result.Faces)
	// first tick has no prior timestamp to measure against
	assert.Equal(t, 0, result.FPS)

	mat := frame.mat
	// box border pixels mutated in place
	assert.True(t, pixelTouched(mat, 200, 300))
	assert.True(t, pixelTouched(mat, 300, 400))
	// box interior left untouched
	assert.False(t, pixelTouched(mat, 250, 350))
	// far corner outside all boxes and overlay text untouched
	assert.False(t, pixelTouched(mat, 450, 600))
	// overlay text regions mutated
	overlayTouched := false
	for col := 10; col < 200; col++ {
		if pixelTouched(mat, 25, col) {
			overlayTouched = true
			break
		}
	}
	assert.True(t, overlayTouched)
}

func TestProcessReportsZeroFacesOnEmptyDetection(t *testing.T) {
	proc := detect.NewProcessor(stubDetector{})

	frame := newBlackFrame(t, 640, 480)
	result, err := proc.Process(frame, detect.DefaultParams())
	require.NoError(t, err)
	assert.Equal(t, 0, result.FaceCount)
}

func TestDetectBoundaryParamsDoNotFaultOnDegenerateFrames(t *testing.T) {
	path := requireTestCascade(t)

	cascade, err := detect.LoadCascade(path, "")
	require.NoError(t, err)
	defer cascade.Close()

	boundary := detect.Params{
		ScaleFactor:  1.01,
		MinNeighbors: 1,
		MinSize:      image.Pt(30, 30),
	}

	black := newBlackFrame(t, 640, 480)
	_, err = cascade.Detect(black, boundary)
	assert.NoError(t, err)

	whiteMat := gocv.NewMatWithSizeFromScalar(
		gocv.NewScalar(255, 255, 255, 0), 480, 640, gocv.MatTypeCV8UC3,
	)
	defer whiteMat.Close()
	_, err = cascade.Detect(matFrame{mat: &whiteMat}, boundary)
	assert.NoError(t, err)
}

// Exercises the full synthetic-face scenario against the real model.
// Opt-in beyond cascade presence: whether a Haar model hits a rendered
// silhouette depends on the exact model build and OpenCV version, so
// with only the file-presence gate this assertion can fail on a host
// whose model legitimately does not match the drawn face.
func TestDetectFindsSyntheticFaceWithDefaultParams(t *testing.T) {
	if os.Getenv("VISAGED_DETECTION_SCENARIOS") == "" {
		t.Skip("set VISAGED_DETECTION_SCENARIOS to run detection scenario tests")
	}
	path := requireTestCascade(t)

	cascade, err := detect.LoadCascade(path, "")
	require.NoError(t, err)
	defer cascade.Close()

	backend := videobackend.Mock()
	conn, err := backend.Connect(context.Background(), 0, videobackend.Settings{
		FrameWidth: 640, FrameHeight: 480,
	})
	require.NoError(t, err)
	defer conn.Close()

	frame := backend.NewFrame()
	defer frame.Close()
	require.NoError(t, conn.Read(frame))

	faces, err := cascade.Detect(frame, detect.DefaultParams())
	require.NoError(t, err)
	require.NotEmpty(t, faces)

	// at least one box should overlap the rendered head region
	head := image.Rect(240, 120, 400, 280)
	overlaps := false
	for _, face := range faces {
		if face.Overlaps(head) {
			overlaps = true
			break
		}
	}
	assert.True(t, overlaps)
}
