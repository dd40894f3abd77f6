// Package clock provides the monotonic timer used to time kernels.
package clock

import (
	"errors"
	"sync"
	"time"
)

// ErrClockUnavailable is returned when the OS refuses to report the
// monotonic clock.
var ErrClockUnavailable = errors.New("monotonic clock unavailable")

// Clock reports the time elapsed since an arbitrary fixed epoch. Successive
// readings within a process never decrease. Readings are integer
// nanoseconds so that differences are exact.
type Clock interface {
	Now() (time.Duration, error)
}

// Seconds reads c as floating point seconds since its epoch.
func Seconds(c Clock) (float64, error) {
	d, err := c.Now()
	if err != nil {
		return 0, err
	}
	return d.Seconds(), nil
}

// Fake is a manually driven Clock. Kernels under test call Advance to
// simulate their cost.
type Fake struct {
	mu  sync.Mutex
	now time.Duration
	err error
}

func NewFake(start time.Duration) *Fake {
	return &Fake{now: start}
}

func (f *Fake) Now() (time.Duration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	return f.now, nil
}

func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	f.now += d
	f.mu.Unlock()
}

// Set jumps to an absolute reading, which may go backwards.
func (f *Fake) Set(d time.Duration) {
	f.mu.Lock()
	f.now = d
	f.mu.Unlock()
}

// Fail makes every following reading return err. Pass nil to recover.
func (f *Fake) Fail(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}
