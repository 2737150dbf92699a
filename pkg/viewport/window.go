package viewport

import (
	"sync"

	"github.com/tauraamui/visaged/pkg/detect"
	"github.com/tauraamui/visaged/pkg/log"
	"github.com/tauraamui/visaged/pkg/video/videoframe"
	"gocv.io/x/gocv"
)

// Window shows annotated frames in an OpenCV highgui window. Any key
// press or closing the window stops the pipeline, mirroring the run
// toggle of an interactive host.
type Window struct {
	mu      sync.Mutex
	win     *gocv.Window
	params  detect.Params
	stopped bool
}

func NewWindow(title string, params detect.Params) *Window {
	return &Window{
		win:    gocv.NewWindow(title),
		params: params,
	}
}

func (w *Window) Publish(frame videoframe.Frame, stats Stats) {
	mat, ok := frame.DataRef().(*gocv.Mat)
	if !ok || mat.Empty() {
		return
	}

	log.Debug(
		"publishing frame: faces=%d fps=%d scale=%.2f neighbors=%d",
		stats.FaceCount, stats.FPS, stats.Params.ScaleFactor, stats.Params.MinNeighbors,
	)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.win.IMShow(*mat)
	if w.win.WaitKey(1) >= 0 {
		w.stopped = true
	}
}

func (w *Window) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return !w.stopped && w.win.IsOpen()
}

func (w *Window) Params() detect.Params {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.params
}

func (w *Window) SetParams(params detect.Params) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.params = params
}

func (w *Window) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopped = true
	return w.win.Close()
}
