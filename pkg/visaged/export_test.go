package visaged

import "github.com/tauraamui/visaged/pkg/detect"

// UseDetector swaps in a pre-built detector, letting tests bypass
// cascade model resolution.
func UseDetector(s Server, d detect.Detector) {
	if srv, ok := s.(*server); ok {
		srv.useDetector(d)
	}
}
