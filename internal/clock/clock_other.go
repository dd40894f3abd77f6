//go:build !linux && !darwin

package clock

import "time"

var epoch = time.Now()

type monotonic struct{}

// Monotonic falls back to the monotonic reading carried by time.Time.
func Monotonic() Clock {
	return monotonic{}
}

func (monotonic) Now() (time.Duration, error) {
	return time.Since(epoch), nil
}
