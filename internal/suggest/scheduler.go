package suggest

import "time"

// Timer is a pending debounce callback.
type Timer interface {
	Stop() bool
}

// Scheduler runs f after d. The real implementation is time.AfterFunc.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// RealScheduler schedules on the wall clock.
type RealScheduler struct{}

// AfterFunc implements Scheduler.
func (RealScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
