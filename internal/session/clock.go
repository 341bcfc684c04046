package session

import "time"

// Clock abstracts wall time and timer scheduling so TTL behavior is
// testable with a virtual clock instead of real timers.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a cancelable scheduled call.
type Timer interface {
	// Stop cancels the timer; it reports whether the call was prevented.
	Stop() bool
}

// realClock delegates to the time package.
type realClock struct{}

// RealClock returns the wall clock.
func RealClock() Clock {
	return realClock{}
}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
