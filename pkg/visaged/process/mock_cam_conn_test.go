package process_test

import (
	"sync"

	"github.com/tauraamui/visaged/pkg/detect"
	"github.com/tauraamui/visaged/pkg/video/videoframe"
	"github.com/tauraamui/visaged/pkg/viewport"
	"github.com/tauraamui/xerror"
)

type mockFrame struct {
	width, height int
	onClose       func()
}

func (m *mockFrame) DataRef() interface{} {
	return nil
}

func (m *mockFrame) Dimensions() videoframe.Dimensions {
	return videoframe.Dimensions{W: m.width, H: m.height}
}

func (m *mockFrame) Close() {
	if m.onClose != nil {
		m.onClose()
	}
}

// mockCameraConn serves a scripted sequence of read outcomes, a nil
// entry yields a frame, a non-nil one fails the read. Once the script
// is exhausted every further read succeeds.
type mockCameraConn struct {
	mu         sync.Mutex
	title      string
	readScript []error
	readIndex  int
	readCount  int
	closed     bool
	closeCount int
	onPostRead func()
}

func (m *mockCameraConn) UUID() string  { return "mock-cam-conn" }
func (m *mockCameraConn) Title() string { return m.title }

func (m *mockCameraConn) Read() (videoframe.Frame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.onPostRead != nil {
		defer m.onPostRead()
	}

	m.readCount++
	if m.readIndex < len(m.readScript) {
		err := m.readScript[m.readIndex]
		m.readIndex++
		if err != nil {
			return nil, err
		}
	}
	return &mockFrame{width: 640, height: 480}, nil
}

func (m *mockCameraConn) IsOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.closed
}

func (m *mockCameraConn) IsClosing() bool { return false }

// Close mirrors the real connection, repeat calls are a no-op so only
// effective releases are counted.
func (m *mockCameraConn) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	m.closeCount++
	return nil
}

func (m *mockCameraConn) reads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.readCount
}

func (m *mockCameraConn) closes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeCount
}

type stubFrameProcessor struct {
	mu        sync.Mutex
	processed int
	seen      []detect.Params
	err       error
	errUntil  int
}

func (p *stubFrameProcessor) Process(frame videoframe.Frame, params detect.Params) (detect.Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.processed++
	p.seen = append(p.seen, params)
	if p.err != nil && (p.errUntil == 0 || p.processed <= p.errUntil) {
		return detect.Result{}, p.err
	}
	return detect.Result{FaceCount: 1, FPS: 30}, nil
}

func (p *stubFrameProcessor) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.processed
}

func (p *stubFrameProcessor) seenParams() []detect.Params {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]detect.Params{}, p.seen...)
}

// countingViewport reports running until the given number of frames
// has been published, mimicking a host window being closed.
type countingViewport struct {
	mu        sync.Mutex
	published int
	stopAfter int
	stopped   bool
}

func (v *countingViewport) Publish(frame videoframe.Frame, stats viewport.Stats) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.published++
	if v.stopAfter > 0 && v.published >= v.stopAfter {
		v.stopped = true
	}
}

func (v *countingViewport) Running() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return !v.stopped
}

func (v *countingViewport) Params() detect.Params {
	return detect.DefaultParams()
}

func (v *countingViewport) publishes() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.published
}

// shiftingParamsViewport hands out different tuning on every Params
// call, mimicking a host adjusting sliders mid-run, and records the
// stats each publish carried.
type shiftingParamsViewport struct {
	mu          sync.Mutex
	paramsCalls int
	published   []viewport.Stats
	stopAfter   int
	stopped     bool
}

func (v *shiftingParamsViewport) Publish(frame videoframe.Frame, stats viewport.Stats) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.published = append(v.published, stats)
	if v.stopAfter > 0 && len(v.published) >= v.stopAfter {
		v.stopped = true
	}
}

func (v *shiftingParamsViewport) Running() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return !v.stopped
}

func (v *shiftingParamsViewport) Params() detect.Params {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.paramsCalls++
	params := detect.DefaultParams()
	params.MinNeighbors = 1 + (v.paramsCalls % 9)
	return params
}

func (v *shiftingParamsViewport) publishedStats() []viewport.Stats {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]viewport.Stats{}, v.published...)
}

var errScriptedReadFault = xerror.New("scripted device read fault")
