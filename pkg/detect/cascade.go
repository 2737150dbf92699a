package detect

import (
	"image"
	"io"
	"net/http"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/afero"
	"github.com/tauraamui/visaged/pkg/log"
	"github.com/tauraamui/visaged/pkg/video/videoframe"
	"github.com/tauraamui/xerror"
	"gocv.io/x/gocv"
)

const (
	KindResourceUnavailable = xerror.Kind("resource_unavailable")
	KindInvalidFrame        = xerror.Kind("invalid_frame")
)

// fs seams the model presence check and the fetch cache only. The
// classifier loads through OpenCV, which always reads the host
// filesystem, so a non-OS fs redirects where fetched bytes land but
// not where the classifier looks.
var fs afero.Fs = afero.NewOsFs()

// Detector finds face regions within a single frame. Implementations
// are read-only after construction and safe to share across
// sequential frame-processing calls.
type Detector interface {
	Detect(frame videoframe.Frame, params Params) ([]image.Rectangle, error)
	Close() error
}

// Cascade owns a loaded Haar cascade classifier. Load it once at
// startup and pass it by reference into the capture loop; a load
// failure is fatal to the whole pipeline, never to one frame.
type Cascade struct {
	classifier gocv.CascadeClassifier
	loaded     bool
}

// LoadCascade returns a usable face detector or fails with a
// resource_unavailable error. The model file is fetched from url into
// path when absent; a failed fetch or an empty/invalid model aborts
// startup rather than retrying silently.
func LoadCascade(path, url string) (*Cascade, error) {
	exists, err := afero.Exists(fs, path)
	if err != nil {
		return nil, xerror.NewWithKind(
			KindResourceUnavailable, "unable to stat cascade model file",
		).WithParam("path", path).WithParam("cause", err)
	}

	if !exists {
		log.Info("Cascade model missing locally, fetching from %s", url)
		if err := fetchCascade(url, path); err != nil {
			return nil, xerror.NewWithKind(
				KindResourceUnavailable, "unable to fetch cascade model",
			).WithParam("url", url).WithParam("cause", err)
		}
	}

	// Load reads path from the host filesystem, not from fs
	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(path) {
		classifier.Close()
		return nil, xerror.NewWithKind(
			KindResourceUnavailable, "cascade model file loaded empty or invalid",
		).WithParam("path", path)
	}

	return &Cascade{classifier: classifier, loaded: true}, nil
}

var httpGet = func(url string) (*http.Response, error) {
	return http.Get(url)
}

func fetchCascade(url, path string) error {
	resp, err := httpGet(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return xerror.Errorf("unexpected response status: %s", resp.Status)
	}

	file, err := fs.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	bar := progressbar.DefaultBytes(resp.ContentLength, "downloading cascade model")
	if _, err := io.Copy(io.MultiWriter(file, bar), resp.Body); err != nil {
		// drop the partial download so the next start refetches
		fs.Remove(path)
		return err
	}

	return nil
}

// Detect runs multi-scale detection over the frame's luminance.
// Overlapping boxes for one face are possible in noisy input and are
// not deduplicated here.
func (c *Cascade) Detect(frame videoframe.Frame, params Params) ([]image.Rectangle, error) {
	mat, err := matRef(frame)
	if err != nil {
		return nil, err
	}

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(*mat, &gray, gocv.ColorBGRToGray)

	params = params.Normalize()
	return c.classifier.DetectMultiScaleWithParams(
		gray,
		params.ScaleFactor,
		params.MinNeighbors,
		0,
		params.MinSize,
		image.Point{},
	), nil
}

func (c *Cascade) Close() error {
	if !c.loaded {
		return nil
	}
	c.loaded = false
	return c.classifier.Close()
}

func matRef(frame videoframe.Frame) (*gocv.Mat, error) {
	if frame == nil {
		return nil, xerror.NewWithKind(KindInvalidFrame, "frame is nil")
	}
	mat, ok := frame.DataRef().(*gocv.Mat)
	if !ok || mat == nil {
		return nil, xerror.NewWithKind(KindInvalidFrame, "frame does not carry an OpenCV mat")
	}
	if mat.Empty() {
		return nil, xerror.NewWithKind(KindInvalidFrame, "frame is empty")
	}
	return mat, nil
}
