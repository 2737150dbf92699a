package visaged

import (
	"github.com/tauraamui/visaged/pkg/viewport"
	"github.com/tauraamui/visaged/pkg/visaged/process"
)

// SetupProcesses builds the capture loop around the connected camera.
// Call after LoadDetector and Connect have both succeeded. Without an
// attached viewport the loop runs headless.
func (s *server) SetupProcesses() {
	if s.view == nil {
		s.view = viewport.NewHeadless(s.detectionParams())
	}

	s.captureProcess = process.NewCaptureLoopProcess(
		s.broadcaster, s.cam, s.connectToCamera, s.processor, s.view,
	).Setup()
}

func (s *server) RunProcesses() {
	if s.captureProcess != nil {
		s.captureProcess.Start()
	}
}

func (s *server) shutdownProcesses() {
	if s.captureProcess == nil {
		return
	}
	s.captureProcess.Stop()
	s.captureProcess.Wait()
	s.captureProcess = nil
}
