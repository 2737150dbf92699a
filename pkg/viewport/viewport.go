package viewport

import (
	"sync"

	"github.com/tauraamui/visaged/pkg/detect"
	"github.com/tauraamui/visaged/pkg/video/videoframe"
)

// Stats is the per-frame summary handed to the presentation layer,
// overwritten on every processed frame.
type Stats struct {
	FPS       int
	FaceCount int
	Params    detect.Params
}

// Viewport is the boundary to the presentation layer. The capture
// loop publishes each annotated frame with its stats, and polls the
// viewport each iteration for the run flag and the current detection
// parameters. Published frames remain owned by the loop; a viewport
// must not retain them past the Publish call.
type Viewport interface {
	Publish(frame videoframe.Frame, stats Stats)
	Running() bool
	Params() detect.Params
}

// Headless is a viewport with no output surface, used when the daemon
// runs without a display. It reports running until Stop is called.
type Headless struct {
	mu      sync.Mutex
	stopped bool
	params  detect.Params
}

func NewHeadless(params detect.Params) *Headless {
	return &Headless{params: params}
}

func (h *Headless) Publish(frame videoframe.Frame, stats Stats) {}

func (h *Headless) Running() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return !h.stopped
}

func (h *Headless) Params() detect.Params {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.params
}

func (h *Headless) SetParams(params detect.Params) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.params = params
}

func (h *Headless) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stopped = true
}
