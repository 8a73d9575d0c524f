package dda

import "steppulse/core"

// Core wires a Preparer, Loader and PulseGenerator around one shared
// Runtime/Prep pair and exposes the three entry points each priority
// level calls: RequestExecMove (medium priority, called by the planner
// collaborator when it has a segment ready), RunLoadRequests (medium
// priority, servicing the load request the pulse generator raises when
// a segment drains), and Tick (highest priority, the DDA timer ISR). Mirrors the
// st_request_exec_move / _request_load_move / ISR(DDA_TIMER_ISR_vect)
// split in the AVR source, collapsed into one Go type since Go has no
// hardware interrupt-priority levels to mirror directly.
type Core struct {
	runtime  *Runtime
	prep     *Prep
	preparer *Preparer
	loader   *Loader
	pulse    *PulseGenerator

	// loadTimer is the core scheduler's software timer for the
	// medium-priority load request, mirroring how the AVR original's
	// _request_load_move triggers a software interrupt rather than
	// loading inline from ISR context. loadPending tracks whether it is
	// currently armed, so a burst of drain notifications before the
	// medium-priority context runs doesn't queue the same timer twice.
	loadTimer   core.Timer
	loadPending bool
	lastLoadOK  bool
	lastLoadErr error
}

// NewCore assembles a full pipeline. fDda is the DDA tick frequency in
// Hz (config.Constants.FDda); backend emits hardware step pulses; gpio
// and dirPins let the loader drive direction lines; polarity is the
// per-motor XOR mask the preparer applies to every commanded direction
// bit (config.Constants.{Z,R}AxisMotorPolarity).
func NewCore(fDda float64, backend core.StepPulseBackend, gpio core.GPIODriver, dirPins [MotorCount]core.GPIOPin, polarity [MotorCount]uint8) *Core {
	c := &Core{
		runtime:  NewRuntime(),
		prep:     NewPrep(),
		preparer: NewPreparer(fDda, polarity),
		loader:   NewLoader(gpio, dirPins),
	}
	c.pulse = NewPulseGenerator(backend, c.requestLoadMove)
	return c
}

// requestLoadMove is called from the pulse generator when a segment
// drains. It arms the core scheduler's software timer for an immediate
// callback rather than loading inline, mirroring _request_load_move
// triggering a software interrupt from ISR context in the AVR original.
// The actual load happens when RunLoadRequests dispatches the timer,
// which the medium-priority context polls (or, on host/simhost builds,
// a goroutine loop calls directly).
func (c *Core) requestLoadMove() {
	c.scheduleLoad()
}

// scheduleLoad arms loadTimer if it isn't already pending. Safe to call
// from either the pulse ISR (via requestLoadMove) or from a prep call
// that finds the runtime idle (via kickLoadIfIdle).
func (c *Core) scheduleLoad() {
	if c.loadPending {
		return
	}
	c.loadPending = true
	c.loadTimer = core.Timer{WakeTime: core.GetTime(), Handler: c.dispatchLoad}
	core.ScheduleTimer(&c.loadTimer)
}

// dispatchLoad is the loadTimer's handler, run from TimerDispatch inside
// RunLoadRequests. It performs the actual load and records the outcome
// for RunLoadRequests to return, then reports SF_DONE since a load
// request never needs to reschedule itself.
func (c *Core) dispatchLoad(*core.Timer) uint8 {
	c.loadPending = false
	c.lastLoadOK, c.lastLoadErr = c.loader.LoadMove(c.runtime, c.prep, c.pulse.Token())
	return core.SF_DONE
}

// RequestExecMove asks the preparer to stage a new line segment. steps
// carries magnitude only (its sign is ignored); directions is the
// commanded direction bit per motor, XORed against configured polarity
// by the preparer. Returns PrepBufferFull if the Prep buffer hasn't been
// drained by the loader yet; the caller (the planner collaborator)
// should retry rather than block, exactly as st_request_exec_move's
// caller does.
func (c *Core) RequestExecMove(steps [MotorCount]float64, directions [MotorCount]uint8, seconds float64) (PrepStatus, error) {
	status, err := c.preparer.PrepLine(c.prep, steps, directions, seconds)
	c.kickLoadIfIdle(status)
	return status, err
}

// RequestNullMove asks the preparer to stage a dwell of the given
// duration.
func (c *Core) RequestNullMove(seconds float64) (PrepStatus, error) {
	status, err := c.preparer.PrepNull(c.prep, seconds)
	c.kickLoadIfIdle(status)
	return status, err
}

// kickLoadIfIdle requests an immediate load when a prep succeeds while
// the runtime has nothing in flight. Without this, a segment prepared
// while the pipeline is idle would sit in Prep forever: normally a
// drained Runtime is what triggers the next load request, but an idle
// pipeline has nothing left to drain.
func (c *Core) kickLoadIfIdle(status PrepStatus) {
	if status == PrepOK && c.runtime.DdaTicksDowncount <= 0 {
		c.scheduleLoad()
	}
}

// RunLoadRequests dispatches the core scheduler's software-timer list,
// servicing whatever load request is due. It is idempotent and
// non-blocking: call it from a medium-priority context (a software
// interrupt on real hardware, or a dedicated goroutine/poll loop on
// host builds). Returns true if a segment was loaded.
func (c *Core) RunLoadRequests() (bool, error) {
	c.lastLoadOK, c.lastLoadErr = false, nil
	core.ProcessTimers()
	return c.lastLoadOK, c.lastLoadErr
}

// Tick advances the pulse generator by one DDA tick. Call this from the
// highest-priority context (the DDA hardware timer's interrupt handler,
// or a precise interval timer on host builds).
func (c *Core) Tick() bool {
	return c.pulse.Tick(c.runtime)
}

// IsBusy reports whether the runtime is mid-segment or a load is still
// pending, i.e. whether the motors have more queued motion. Mirrors
// st_isbusy in the AVR source.
func (c *Core) IsBusy() bool {
	return c.runtime.DdaTicksDowncount > 0 || c.loadPending || c.prep.ExecState() == ExecStateOwnedByLoader
}

// VerifyIntegrity checks both the Runtime and Prep sentinels. A false
// result means memory corruption has occurred and motion must be
// stopped; controller.MotorController.Poll reports it to the controller's
// FaultHandler.
func (c *Core) VerifyIntegrity() bool {
	return c.runtime.VerifyIntegrity() && c.prep.VerifyIntegrity()
}

// ReadStepCounts returns a copy of each motor's free-running step
// counter. It copies with plain reads: no lock is taken and interrupts
// are not disabled, so a Tick running concurrently can change the
// counters while they are being copied.
func (c *Core) ReadStepCounts() [MotorCount]uint32 {
	return c.runtime.StepCount
}

// RequestReset arms the accumulator-reset flag the loader will consume
// on its next load, forcing a clean restart of the phase accumulators.
// Used by the controller after a stop/estop.
func (c *Core) RequestReset() {
	c.prep.RequestReset()
}
