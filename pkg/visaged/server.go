package visaged

import (
	"context"
	"sync"

	"github.com/tauraamui/visaged/pkg/broadcast"
	"github.com/tauraamui/visaged/pkg/camera"
	"github.com/tauraamui/visaged/pkg/configdef"
	"github.com/tauraamui/visaged/pkg/detect"
	"github.com/tauraamui/visaged/pkg/log"
	"github.com/tauraamui/visaged/pkg/video/videobackend"
	"github.com/tauraamui/visaged/pkg/viewport"
	"github.com/tauraamui/visaged/pkg/visaged/process"
	"github.com/tauraamui/xerror"
)

type Server interface {
	LoadConfiguration() error
	LoadDetector() error
	AttachViewport(viewport.Viewport)
	AttachWindow()
	Connect() error
	ConnectWithCancel(context.Context) error
	SetupProcesses()
	RunProcesses()
	Events() *broadcast.Listener
	Shutdown() chan interface{}
}

func NewServer(resolver configdef.Resolver, backend videobackend.Backend) Server {
	return &server{
		configResolver: resolver,
		videoBackend:   backend,
		broadcaster:    broadcast.New(8),
		shutdownDone:   make(chan interface{}),
	}
}

type server struct {
	shutdownDone   chan interface{}
	configResolver configdef.Resolver
	config         configdef.Values
	videoBackend   videobackend.Backend
	broadcaster    *broadcast.Broadcaster
	detector       detect.Detector
	processor      *detect.Processor
	view           viewport.Viewport
	window         *viewport.Window
	captureProcess process.Process
	mu             sync.Mutex
	cam            camera.Connection
}

func (s *server) LoadConfiguration() error {
	config, err := s.configResolver.Resolve()
	if err != nil {
		return err
	}

	s.config = config
	return nil
}

// LoadDetector resolves the cascade model from the configured path,
// fetching and caching it first if it is not on disk yet.
func (s *server) LoadDetector() error {
	cascade, err := detect.LoadCascade(s.config.Detection.CascadePath, s.config.Detection.CascadeURL)
	if err != nil {
		return err
	}
	s.useDetector(cascade)
	return nil
}

func (s *server) useDetector(d detect.Detector) {
	s.detector = d
	s.processor = detect.NewProcessor(d)
}

func (s *server) AttachViewport(view viewport.Viewport) {
	s.view = view
}

// AttachWindow opens a host display window as the viewport. Call
// after LoadConfiguration so the window carries the configured
// detection tuning. Closing the window or pressing any key stops the
// capture loop.
func (s *server) AttachWindow() {
	window := viewport.NewWindow(s.config.Camera.Title, s.detectionParams())
	s.window = window
	s.view = window
}

func (s *server) Events() *broadcast.Listener {
	return s.broadcaster.Listen()
}

func (s *server) Connect() error {
	return s.connect(context.Background())
}

func (s *server) ConnectWithCancel(cancel context.Context) error {
	return s.connect(cancel)
}

func (s *server) connect(cancel context.Context) error {
	if s.config.Camera.Disabled {
		return xerror.New("camera is disabled, nothing to capture from")
	}

	conn, err := s.connectToCamera(cancel)
	if err != nil {
		return err
	}

	log.Info("Connected successfully to camera: [%s]", conn.Title())
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cam = conn
	return nil
}

func (s *server) connectToCamera(ctx context.Context) (camera.Connection, error) {
	cam := s.config.Camera
	backend := s.videoBackend
	if cam.MockCapturer {
		backend = videobackend.Mock()
	}

	log.Info("Connecting to camera: [%s]...", cam.Title)
	return camera.ConnectWithCancel(ctx, cam.Title, camera.Settings{
		Device:           cam.Device,
		FrameWidth:       cam.FrameWidth,
		FrameHeight:      cam.FrameHeight,
		WarmupAttempts:   cam.WarmupAttempts,
		CleanupIndexSpan: cam.CleanupIndexSpan,
	}, backend)
}

func (s *server) detectionParams() detect.Params {
	params, err := detect.ParamsFromConfig(s.config.Detection)
	if err != nil {
		log.Warn("invalid detection config, falling back to defaults: %s", err)
		return detect.DefaultParams()
	}
	return params
}

func (s *server) shutdown() {
	s.shutdownProcesses()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cam != nil {
		log.Warn("Closing camera connection: [%s]...", s.cam.Title())
		if err := s.cam.Close(); err != nil {
			log.Error("unable to release camera [%s]: %s", s.cam.Title(), err)
		}
		s.cam = nil
	}

	if s.detector != nil {
		if err := s.detector.Close(); err != nil {
			log.Error("unable to release detector resources: %s", err)
		}
		s.detector = nil
	}

	if s.window != nil {
		if err := s.window.Close(); err != nil {
			log.Error("unable to close display window: %s", err)
		}
		s.window = nil
	}

	close(s.shutdownDone)
}

func (s *server) Shutdown() chan interface{} {
	s.shutdown()
	return s.shutdownDone
}
