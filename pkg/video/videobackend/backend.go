package videobackend

import (
	"context"

	"github.com/tauraamui/visaged/pkg/video/videoframe"
)

type Connection interface {
	UUID() string
	Read(videoframe.Frame) error
	IsOpen() bool
	Close() error
}

// Settings carries the device-open tuning the backend applies before
// a connection is handed out.
type Settings struct {
	FrameWidth  int
	FrameHeight int
	// CleanupIndexSpan is how many device indices to defensively
	// open+release before the real open, to free stale handles left
	// behind by a previous run. Zero disables the pre-open cleanup.
	CleanupIndexSpan int
}

type Backend interface {
	Connect(context.Context, int, Settings) (Connection, error)
	NewFrame() videoframe.Frame
}

func Default() Backend {
	return OpenCV()
}

func OpenCV() Backend {
	return &openCVBackend{}
}

func Mock() Backend {
	return &mockVideoBackend{}
}

func Resolve(t string) Backend {
	switch t {
	case "mock":
		return Mock()
	default:
		return Default()
	}
}
