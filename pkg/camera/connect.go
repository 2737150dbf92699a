package camera

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tauraamui/visaged/pkg/log"
	"github.com/tauraamui/visaged/pkg/video/videobackend"
	"github.com/tauraamui/visaged/pkg/video/videoframe"
	"github.com/tauraamui/xerror"
)

const (
	KindCameraUnavailable = xerror.Kind("camera_unavailable")
	KindReadError         = xerror.Kind("read_error")
)

// Pauses are vars so tests run without them. The debounce after a
// release avoids a reopen racing the driver, the warmup pause gives
// a freshly opened device time to start producing frames.
var (
	closeDebouncePause = 100 * time.Millisecond
	warmupReadPause    = 500 * time.Millisecond
)

type Connection interface {
	UUID() string
	Title() string
	Read() (videoframe.Frame, error)
	IsOpen() bool
	IsClosing() bool
	Close() error
}

type connection struct {
	uuid      string
	backend   videobackend.Backend
	title     string
	sett      Settings
	mu        sync.Mutex
	isClosing bool
	closed    bool
	vc        videobackend.Connection
}

func (c *connection) UUID() string {
	return c.uuid
}

func (c *connection) Title() string {
	return c.title
}

// Read returns the next frame from the device. The returned frame is
// owned by the caller and must be closed. Fails when the device has
// no data or hands back a zero-size frame.
func (c *connection) Read() (videoframe.Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.read()
}

func (c *connection) read() (videoframe.Frame, error) {
	if c.closed {
		return nil, xerror.NewWithKind(KindReadError, "connection is closed")
	}

	frame := c.backend.NewFrame()
	if err := c.vc.Read(frame); err != nil {
		frame.Close()
		return nil, xerror.Errorf("unable to read frame from connection: %w", err)
	}

	if dims := frame.Dimensions(); dims.W == 0 || dims.H == 0 {
		frame.Close()
		return nil, xerror.NewWithKind(KindReadError, "read yielded an empty frame")
	}

	return frame, nil
}

// warmup validates the freshly opened device by attempting a bounded
// number of reads. The device counts as usable only once one of them
// yields a non-empty frame.
func (c *connection) warmup() error {
	attempts := c.sett.WarmupAttempts
	if attempts <= 0 {
		attempts = 3
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		frame, err := c.read()
		if err == nil {
			frame.Close()
			return nil
		}
		lastErr = err
		log.Debug("camera [%s] warmup read %d/%d failed: %s", c.title, i+1, attempts, err)
		time.Sleep(warmupReadPause)
	}

	return xerror.NewWithKind(
		KindCameraUnavailable,
		"device produced no valid frame within warmup attempt budget",
	).WithParam("attempts", attempts).WithParam("cause", lastErr)
}

func (c *connection) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	return c.vc.IsOpen()
}

func (c *connection) IsClosing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isClosing
}

// Close releases the device handle then pauses briefly to debounce an
// immediate reopen. Safe to call any number of times.
func (c *connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.isClosing = true
	c.closed = true
	err := c.vc.Close()
	time.Sleep(closeDebouncePause)
	return err
}

func connect(ctx context.Context, title string, sett Settings, backend videobackend.Backend) (Connection, error) {
	vc, err := backend.Connect(ctx, sett.Device, videobackend.Settings{
		FrameWidth:       sett.FrameWidth,
		FrameHeight:      sett.FrameHeight,
		CleanupIndexSpan: sett.CleanupIndexSpan,
	})
	if err != nil {
		return nil, xerror.NewWithKind(
			KindCameraUnavailable, "unable to connect to camera",
		).WithParam("title", title).WithParam("cause", err)
	}

	conn := connection{
		uuid:    uuid.NewString(),
		backend: backend,
		title:   title,
		vc:      vc,
		sett:    sett,
	}

	if err := conn.warmup(); err != nil {
		// never leak a handle from a failed open
		if cerr := conn.Close(); cerr != nil {
			log.Error("unable to release camera [%s] after failed warmup: %s", title, cerr)
		}
		return nil, err
	}

	return &conn, nil
}

func Connect(title string, sett Settings, backend videobackend.Backend) (Connection, error) {
	return connect(context.Background(), title, sett, backend)
}

func ConnectWithCancel(cancel context.Context, title string, sett Settings, backend videobackend.Backend) (Connection, error) {
	return connect(cancel, title, sett, backend)
}
