//go:build rp2350

package main

import (
	"runtime/volatile"
	"unsafe"

	"steppulse/core"
)

// RP2350 Timer peripheral memory map. The RP2350 moves TIMER0 to a
// different base address than the RP2040; register offsets within the
// block are the same.
const (
	timerBase     = 0x400B0000
	timerTimeRawH = timerBase + 0x24
	timerTimeRawL = timerBase + 0x28
)

var (
	timerRawH = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTimeRawH)))
	timerRawL = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTimeRawL)))
)

// InitClock lets the RP2350's 1MHz free-running timer stabilize after
// TinyGo's clock init, then seeds core's software clock from it.
func InitClock() {
	_ = timerRawL.Get()
	_ = timerRawL.Get()
	_ = timerRawL.Get()
	UpdateSystemTime()
}

// GetHardwareTime reads the low 32 bits of the RP2350's microsecond timer.
func GetHardwareTime() uint32 {
	return timerRawL.Get()
}

// GetHardwareUptime reads the full 64-bit hardware timer, retrying if a
// rollover is detected mid-read.
func GetHardwareUptime() uint64 {
	for {
		high1 := timerRawH.Get()
		low := timerRawL.Get()
		high2 := timerRawH.Get()
		if high1 == high2 {
			return (uint64(high1) << 32) | uint64(low)
		}
	}
}

// UpdateSystemTime pushes the hardware timer's current value into
// core's software clock.
func UpdateSystemTime() {
	core.SetTime(GetHardwareTime())
}

// hwTimer implements core.IntervalTimer over the RP2350's free-running
// microsecond counter. See targets/rp2040/clock.go's hwTimer for the
// polling-vs-compare-match tradeoff; identical here.
type hwTimer struct {
	period  uint32
	fire    func()
	enabled bool
	stop    chan struct{}
}

func newHWTimer() *hwTimer { return &hwTimer{} }

func (t *hwTimer) Enable(period uint32, fire func()) {
	t.period = period
	t.fire = fire
	if t.enabled {
		return
	}
	t.enabled = true
	t.stop = make(chan struct{})
	go t.loop(t.stop)
}

func (t *hwTimer) Disable() {
	if !t.enabled {
		return
	}
	t.enabled = false
	close(t.stop)
}

func (t *hwTimer) Reset() {}

func (t *hwTimer) loop(stop chan struct{}) {
	next := GetHardwareTime() + t.period
	for {
		select {
		case <-stop:
			return
		default:
		}
		if GetHardwareTime()-next < 1<<31 {
			if t.fire != nil {
				t.fire()
			}
			next += t.period
		}
	}
}

var _ core.IntervalTimer = (*hwTimer)(nil)
