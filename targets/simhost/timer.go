//go:build !tinygo

// Package simhost provides a Linux-host core.IntervalTimer backed by a
// timerfd, giving the pipeline a real OS timer to run against instead of
// time.Ticker's soft scheduling. golang.org/x/sys is only an indirect
// dependency in the teacher repo (pulled in by tinygo.org/x/drivers);
// this is the one place in the module that imports it directly, so the
// full three-interrupt-priority pipeline can be driven end to end on a
// developer machine with timing closer to a real deadline-scheduled
// interrupt than a plain goroutine sleep loop.
package simhost

import (
	"sync"

	"golang.org/x/sys/unix"

	"steppulse/core"
)

// Timer implements core.IntervalTimer using CLOCK_MONOTONIC timerfd.
// Each Timer owns one fd and one reader goroutine; cmd/sim creates one,
// as the DDA pulse tick source.
type Timer struct {
	fd int

	mu      sync.Mutex
	fire    func()
	enabled bool
	stop    chan struct{}
}

// NewTimer creates a disabled Timer. Enable's period argument is in
// nanoseconds.
func NewTimer() (*Timer, error) {
	fd, err := unix.TimerfdCreate(unix.CLOCK_MONOTONIC, 0)
	if err != nil {
		return nil, err
	}
	return &Timer{fd: fd}, nil
}

// Enable arms the timerfd to fire every period nanoseconds and starts
// the reader goroutine that invokes fire on each expiry. Recreates the
// underlying timerfd if a previous Disable closed it.
func (t *Timer) Enable(period uint32, fire func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.fd < 0 {
		fd, err := unix.TimerfdCreate(unix.CLOCK_MONOTONIC, 0)
		if err != nil {
			return
		}
		t.fd = fd
	}

	t.fire = fire
	spec := unix.ItimerSpec{
		Interval: unix.NsecToTimespec(int64(period)),
		Value:    unix.NsecToTimespec(int64(period)),
	}
	if err := unix.TimerfdSettime(t.fd, 0, &spec, nil); err != nil {
		return
	}

	if t.enabled {
		return
	}
	t.enabled = true
	t.stop = make(chan struct{})
	go t.loop(t.fd, t.stop)
}

// Disable stops the timer. It closes the underlying timerfd so the
// reader goroutine's blocking Read unblocks with an error and exits,
// rather than leaving it parked on a disarmed fd forever.
func (t *Timer) Disable() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.enabled {
		return
	}
	t.enabled = false
	close(t.stop)
	unix.Close(t.fd)
	t.fd = -1
}

// Reset re-arms the timer's period without changing its enabled state,
// used when a new DDA segment is loaded mid-flight.
func (t *Timer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.enabled || t.fd < 0 {
		return
	}
	var cur unix.ItimerSpec
	if err := unix.TimerfdGettime(t.fd, &cur); err != nil {
		return
	}
	period := cur.Interval.Nano()
	if period == 0 {
		return
	}
	spec := unix.ItimerSpec{
		Interval: unix.NsecToTimespec(period),
		Value:    unix.NsecToTimespec(period),
	}
	_ = unix.TimerfdSettime(t.fd, 0, &spec, nil)
}

func (t *Timer) loop(fd int, stop chan struct{}) {
	buf := make([]byte, 8)
	for {
		n, err := unix.Read(fd, buf)
		select {
		case <-stop:
			return
		default:
		}
		if err != nil || n != 8 {
			return
		}
		t.mu.Lock()
		fire := t.fire
		t.mu.Unlock()
		if fire != nil {
			fire()
		}
	}
}

var _ core.IntervalTimer = (*Timer)(nil)
