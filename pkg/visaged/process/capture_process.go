package process

import (
	"context"
	"sync"
	"time"

	"github.com/tauraamui/visaged/pkg/broadcast"
	"github.com/tauraamui/visaged/pkg/camera"
	"github.com/tauraamui/visaged/pkg/detect"
	"github.com/tauraamui/visaged/pkg/log"
	"github.com/tauraamui/visaged/pkg/video/videoframe"
	"github.com/tauraamui/visaged/pkg/viewport"
	"github.com/tauraamui/xerror"
)

// FrameProcessor runs the per-frame detection cycle. Satisfied by
// detect.Processor; narrowed here so tests can stand in for it.
type FrameProcessor interface {
	Process(frame videoframe.Frame, params detect.Params) (detect.Result, error)
}

// Reconnect reopens the camera device after a read fault. The loop
// owns the returned connection from then on.
type Reconnect func(context.Context) (camera.Connection, error)

// Pauses are vars so tests run without them. The yield keeps the loop
// from pinning a core between frames, the reopen pause gives the
// driver time to settle after the faulted handle was released.
var (
	loopYieldPause = 1 * time.Millisecond
	reopenPause    = 1 * time.Second
)

type captureLoopProcess struct {
	ctx         context.Context
	cancel      context.CancelFunc
	broadcaster *broadcast.Broadcaster
	stopping    chan interface{}
	mu          sync.Mutex
	state       State
	cam         camera.Connection
	reconnect   Reconnect
	proc        FrameProcessor
	view        viewport.Viewport
}

func NewCaptureLoopProcess(
	broadcaster *broadcast.Broadcaster,
	cam camera.Connection,
	reconnect Reconnect,
	proc FrameProcessor,
	view viewport.Viewport,
) Process {
	ctx, cancel := context.WithCancel(context.Background())
	return &captureLoopProcess{
		ctx: ctx, cancel: cancel,
		broadcaster: broadcaster,
		cam:         cam, reconnect: reconnect,
		proc: proc, view: view,
		stopping: make(chan interface{}),
	}
}

func (p *captureLoopProcess) Setup() Process { return p }

func (p *captureLoopProcess) Start() {
	go p.run()
}

func (p *captureLoopProcess) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *captureLoopProcess) setState(s State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == s {
		return
	}
	log.Debug("capture loop state: %s -> %s", p.state, s)
	p.state = s
}

func (p *captureLoopProcess) run() {
	defer close(p.stopping)
	defer p.releaseCamera()
	defer p.setState(Idle)

	p.setState(Running)
	for {
		time.Sleep(loopYieldPause)
		select {
		case <-p.ctx.Done():
			return
		default:
			if !p.view.Running() {
				log.Info("viewport for camera [%s] no longer running, stopping capture", p.cam.Title())
				p.broadcaster.Send(LOOP_STOPPED_EVT)
				return
			}
			if err := p.cycle(); err != nil {
				log.Error("capture for camera [%s] cannot continue: %s", p.cam.Title(), err)
				p.broadcaster.Send(LOOP_STOPPED_EVT)
				return
			}
		}
	}
}

// cycle runs one read-detect-publish iteration. A read fault hands
// over to recovery; a processing fault only costs the current frame.
func (p *captureLoopProcess) cycle() error {
	frame, err := p.cam.Read()
	if err != nil {
		log.Warn("unable to read frame from camera [%s]: %s", p.cam.Title(), err)
		return p.recover()
	}
	defer frame.Close()

	// snapshot the tuning once so the published stats carry the exact
	// parameters this frame was detected with
	params := p.view.Params()
	result, err := p.proc.Process(frame, params)
	if err != nil {
		log.Error("dropping frame from camera [%s]: %s", p.cam.Title(), err)
		return nil
	}

	p.view.Publish(frame, viewport.Stats{
		FPS:       result.FPS,
		FaceCount: result.FaceCount,
		Params:    params,
	})
	return nil
}

// recover releases the faulted device handle, waits out the driver and
// reopens through the reconnect callback. Failing to reopen is fatal
// to the loop, a faulted read is not.
func (p *captureLoopProcess) recover() error {
	p.setState(Recovering)
	p.broadcaster.Send(LOOP_RECOVERING_EVT)
	log.Info("reinitialising camera [%s]...", p.cam.Title())

	if err := p.cam.Close(); err != nil {
		log.Error("unable to release faulted camera [%s]: %s", p.cam.Title(), err)
	}
	time.Sleep(reopenPause)

	cam, err := p.reconnect(p.ctx)
	if err != nil {
		return xerror.Errorf("unable to reopen camera after read fault: %w", err)
	}

	p.cam = cam
	p.setState(Running)
	p.broadcaster.Send(LOOP_RECOVERED_EVT)
	return nil
}

func (p *captureLoopProcess) releaseCamera() {
	if p.cam == nil {
		return
	}
	log.Warn("Closing camera connection: [%s]...", p.cam.Title())
	if err := p.cam.Close(); err != nil {
		log.Error("unable to release camera [%s]: %s", p.cam.Title(), err)
	}
}

func (p *captureLoopProcess) Stop() {
	p.cancel()
}

func (p *captureLoopProcess) Wait() {
	<-p.stopping
}
