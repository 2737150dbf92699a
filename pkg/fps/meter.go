package fps

import "time"

// TimeNow is an overloadable time source to allow tests to feed
// the meter deterministic timestamps.
var TimeNow = func() time.Time {
	return time.Now()
}

// Meter derives an instantaneous frames-per-second reading from the
// gap between consecutive Tick calls. It holds a single timestamp of
// state and is intended for sequential use by one goroutine only.
type Meter struct {
	lastTick time.Time
}

func NewMeter() *Meter {
	return &Meter{}
}

// Tick records a frame boundary and returns the rate implied by the
// elapsed time since the previous tick. The first call, and any call
// landing on an identical timestamp, reports 0 rather than faulting
// on the zero interval.
func (m *Meter) Tick() int {
	now := TimeNow()
	elapsed := now.Sub(m.lastTick)
	first := m.lastTick.IsZero()
	m.lastTick = now

	if first || elapsed <= 0 {
		return 0
	}
	return int(time.Second / elapsed)
}
