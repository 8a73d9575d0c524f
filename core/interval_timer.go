package core

// IntervalTimer is the abstract interface for the DDA pulse tick source.
// The medium-priority load request does not use it: dda.Core schedules
// that as a core.Timer on the scheduler list instead. The rp2040 and
// rp2350 targets back it with a goroutine polling the hardware
// microsecond counter; targets/simhost backs it with a Linux timerfd.
type IntervalTimer interface {
	// Enable arms the timer so Fire will be called every period ticks
	// (in this timer's own tick units) until Disable is called.
	Enable(period uint32, fire func())

	// Disable stops the timer. Safe to call even if already disabled.
	Disable()

	// Reset clears the timer's internal counter back to zero without
	// changing whether it is enabled, matching the AVR original's
	// pattern of re-arming a segment's duration without a full
	// enable/disable cycle.
	Reset()
}
