//go:build rp2040

package main

import (
	"runtime/volatile"
	"unsafe"

	"steppulse/core"
)

// RP2040 Timer peripheral memory map.
const (
	timerBase     = 0x40054000
	timerTIMERAWH = timerBase + 0x08 // Raw timer high word
	timerTIMERAWL = timerBase + 0x0C // Raw timer low word
)

var (
	timerRAWH = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWH)))
	timerRAWL = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))
)

// InitClock lets the RP2040's free-running 1MHz timer stabilize after
// TinyGo's own clock init, then seeds core's software clock from it.
func InitClock() {
	_ = timerRAWL.Get()
	_ = timerRAWL.Get()
	UpdateSystemTime()
}

// GetHardwareTime reads the low 32 bits of the RP2040's microsecond timer.
func GetHardwareTime() uint32 {
	return timerRAWL.Get()
}

// GetHardwareUptime reads the full 64-bit hardware timer, retrying if a
// rollover is detected mid-read.
func GetHardwareUptime() uint64 {
	for {
		high1 := timerRAWH.Get()
		low := timerRAWL.Get()
		high2 := timerRAWH.Get()
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

// hwTimer implements core.IntervalTimer over the RP2040's free-running
// microsecond counter, polled from a dedicated goroutine. Real hardware
// compare-match interrupts would give tighter jitter, but TinyGo's RP2040
// alarm peripheral bindings aren't part of this module's dependency
// surface; polling the same 1MHz counter this package already reads for
// core.GetTime keeps the timing source consistent between the software
// clock and the DDA tick source.
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

func (t *hwTimer) Reset() {
	// Does nothing: the polling loop's deadline is not restarted. The
	// loop advances its deadline by t.period after each fire, so a
	// changed period takes effect from the next tick.
}

func (t *hwTimer) loop(stop chan struct{}) {
	next := GetHardwareTime() + t.period
	for {
		select {
		case <-stop:
			return
		default:
		}
		if GetHardwareTime()-next < 1<<31 { // wraparound-safe "now >= next"
			if t.fire != nil {
				t.fire()
			}
			next += t.period
		}
	}
}

var _ core.IntervalTimer = (*hwTimer)(nil)
