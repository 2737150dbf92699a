package camera

import "time"

func OverloadCloseDebouncePause(o time.Duration) func() {
	pauseRef := closeDebouncePause
	closeDebouncePause = o
	return func() { closeDebouncePause = pauseRef }
}

func OverloadWarmupReadPause(o time.Duration) func() {
	pauseRef := warmupReadPause
	warmupReadPause = o
	return func() { warmupReadPause = pauseRef }
}
