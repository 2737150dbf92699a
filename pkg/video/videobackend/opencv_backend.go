package videobackend

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tauraamui/visaged/pkg/log"
	"github.com/tauraamui/visaged/pkg/video/videoframe"
	"github.com/tauraamui/xerror"
	"gocv.io/x/gocv"
)

type openCVFrame struct {
	isClosed bool
	mat      gocv.Mat
}

func (frame *openCVFrame) DataRef() interface{} {
	return &frame.mat
}

func (frame *openCVFrame) Dimensions() videoframe.Dimensions {
	return videoframe.Dimensions{W: frame.mat.Cols(), H: frame.mat.Rows()}
}

func (frame *openCVFrame) Close() {
	if !frame.isClosed {
		frame.mat.Close()
		frame.isClosed = true
	}
}

type openCVBackend struct{}

func (b *openCVBackend) Connect(cancel context.Context, device int, sett Settings) (Connection, error) {
	conn := openCVConnection{}
	err := conn.connect(cancel, device, sett)
	if err != nil {
		return nil, err
	}
	return &conn, nil
}

func (b *openCVBackend) NewFrame() videoframe.Frame {
	return &openCVFrame{mat: gocv.NewMat()}
}

// Pauses around device release. Some drivers refuse an open which
// arrives too soon after a release, hence the settle gaps. Var'd so
// tests run without the waits.
var (
	staleHandleReleasePause = 100 * time.Millisecond
	preOpenSettlePause      = 500 * time.Millisecond
)

// releaseStaleHandles opens and immediately releases a span of device
// indices before the real open. Works around drivers which hold a
// handle from a crashed previous run. TODO(tauraamui): confirm this is
// still needed on v4l2, it originates from a Windows DSHOW quirk.
func releaseStaleHandles(span int) {
	for i := 0; i < span; i++ {
		vc, err := openVideoCapture(i)
		if err != nil {
			continue
		}
		if err := closeVideoCapture(vc); err != nil {
			log.Debug("pre-open cleanup release of device %d failed: %s", i, err)
		}
		time.Sleep(staleHandleReleasePause)
	}
	if span > 0 {
		time.Sleep(preOpenSettlePause)
	}
}

type openCVConnection struct {
	uuid   string
	mu     sync.Mutex
	isOpen bool
	vc     *gocv.VideoCapture
}

func (c *openCVConnection) connect(cancel context.Context, device int, sett Settings) error {
	releaseStaleHandles(sett.CleanupIndexSpan)

	// buffered so an open which loses the race against cancellation
	// never blocks the sender goroutine
	connAndError := make(chan openVideoStreamResult, 1)
	go openVideoStream(device, connAndError)
	select {
	case r := <-connAndError:
		if r.err != nil {
			return r.err
		}
		c.vc = r.vc
		c.applyResolution(sett)
		c.isOpen = true
		return nil
	case <-cancel.Done():
		go releaseLateHandle(connAndError)
		return xerror.New("connection cancelled")
	}
}

// releaseLateHandle waits out an open which completed after the
// connect was cancelled and releases the device handle it produced.
func releaseLateHandle(connAndError chan openVideoStreamResult) {
	r := <-connAndError
	if r.vc == nil {
		return
	}
	if err := closeVideoCapture(r.vc); err != nil {
		log.Error("unable to release device handle opened after cancellation: %s", err)
	}
}

// applyResolution is best effort, drivers are free to ignore the
// requested capture size.
func (c *openCVConnection) applyResolution(sett Settings) {
	if sett.FrameWidth > 0 && sett.FrameHeight > 0 {
		c.vc.Set(gocv.VideoCaptureFrameWidth, float64(sett.FrameWidth))
		c.vc.Set(gocv.VideoCaptureFrameHeight, float64(sett.FrameHeight))
	}
}

type openVideoStreamResult struct {
	vc  *gocv.VideoCapture
	err error
}

func openVideoStream(device int, d chan openVideoStreamResult) {
	vc, err := openVideoCapture(device)
	result := openVideoStreamResult{vc: vc, err: err}
	d <- result
}

var openVideoCapture = func(device int) (*gocv.VideoCapture, error) {
	return gocv.OpenVideoCapture(device)
}

var closeVideoCapture = func(vc *gocv.VideoCapture) error {
	return vc.Close()
}

var readFromVideoConnection = func(vc *gocv.VideoCapture, mat *gocv.Mat) bool {
	if vc.IsOpened() {
		return vc.Read(mat)
	}
	return false
}

func (c *openCVConnection) UUID() string {
	if len(c.uuid) == 0 {
		c.uuid = uuid.NewString()
	}
	return c.uuid
}

func (c *openCVConnection) Read(frame videoframe.Frame) error {
	mat, ok := frame.DataRef().(*gocv.Mat)
	if !ok {
		return xerror.New("must pass OpenCV frame to OpenCV connection read")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	ok = readFromVideoConnection(c.vc, mat)
	if !ok {
		return xerror.New("unable to read from video connection")
	}
	return nil
}

func (c *openCVConnection) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.isOpen {
		return c.vc.IsOpened()
	}
	return false
}

func (c *openCVConnection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.isOpen {
		return nil
	}
	c.isOpen = false
	return c.vc.Close()
}
