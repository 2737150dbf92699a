package process

import "time"

func OverloadLoopYieldPause(p time.Duration) func() {
	ref := loopYieldPause
	loopYieldPause = p
	return func() { loopYieldPause = ref }
}

func OverloadReopenPause(p time.Duration) func() {
	ref := reopenPause
	reopenPause = p
	return func() { reopenPause = ref }
}
