package sas

import "time"

// Clock supplies the current time as Unix epoch seconds.
//
// The generator queries it exactly once per Generate call and once per
// IsExpired call. Implementations must be monotonically non-decreasing
// in practice; no leap-second handling is expected.
type Clock interface {
	Now() uint64
}

// ClockFunc adapts a plain function to the Clock interface.
type ClockFunc func() uint64

// Now implements Clock.
func (f ClockFunc) Now() uint64 { return f() }

// SystemClock reads the wall clock via time.Now.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() uint64 { return uint64(time.Now().Unix()) }
