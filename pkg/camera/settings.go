package camera

// Settings tunes device acquisition. WarmupAttempts bounds the number
// of validation reads performed before the device is declared usable,
// CleanupIndexSpan controls the defensive stale-handle release which
// runs before the open.
type Settings struct {
	Device           int
	FrameWidth       int
	FrameHeight      int
	WarmupAttempts   int
	CleanupIndexSpan int
}
