package videoframe

type Dimensions struct {
	W, H int
}

// Frame is one captured image. DataRef exposes the backend's native
// pixel buffer (a *gocv.Mat for the OpenCV backend); annotation
// mutates it in place. Close must be called exactly once ownership
// ends, frames are never retained across loop iterations.
type Frame interface {
	DataRef() interface{}
	Dimensions() Dimensions
	Close()
}
