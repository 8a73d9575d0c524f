package dda

import "steppulse/core"

// corruptError is the error LoadMove returns when a buffer's sentinels no
// longer match MagicStart at load time.
type corruptError struct{ what string }

func (e *corruptError) Error() string { return "dda: " + e.what + " corrupt, magic sentinel mismatch" }

// ErrPrepCorrupt and ErrRuntimeCorrupt are returned by LoadMove when the
// respective buffer's sentinel check fails.
var (
	ErrPrepCorrupt    = &corruptError{what: "prep"}
	ErrRuntimeCorrupt = &corruptError{what: "runtime"}
)

// Loader moves a prepared segment from Prep into Runtime, arming the
// accumulators for the pulse generator. Mirrors _load_move in the AVR
// source, called from the medium-priority load-request context.
type Loader struct {
	gpio core.GPIODriver

	// dirPins maps motor index to its direction pin, set at init. Step
	// pulses are emitted by the pulse generator's StepPulseBackend, not
	// by the loader; the loader only ever touches direction, which only
	// needs to be valid before the first pulse of a segment.
	dirPins [MotorCount]core.GPIOPin
}

// NewLoader builds a Loader that drives direction pins through the given
// GPIODriver.
func NewLoader(gpio core.GPIODriver, dirPins [MotorCount]core.GPIOPin) *Loader {
	return &Loader{gpio: gpio, dirPins: dirPins}
}

// LoadMove attempts to load the next prepared segment into rt. It returns
// (true, nil) if a segment was loaded, (false, nil) if Prep held nothing
// new (the queue is drained, i.e. motion complete), or a non-nil error if
// either buffer failed its integrity check.
//
// Called from the loader's medium-priority context; safe to call
// repeatedly (e.g. on a polling foreground loop in host/simulated builds)
// since a no-op load is just an ExecState read.
func (l *Loader) LoadMove(rt *Runtime, p *Prep, token PulseToken) (bool, error) {
	if !rt.VerifyIntegrity() {
		return false, ErrRuntimeCorrupt
	}
	if p.ExecState() != ExecStateOwnedByLoader {
		return false, nil
	}
	if !p.VerifyIntegrity() {
		return false, ErrPrepCorrupt
	}

	reset := p.consumeResetFlag()
	prevTicks := rt.DdaTicksTotal

	rt.DdaTicksTotal = p.DdaTicks
	rt.DdaTicksDowncount = int32(p.DdaTicks)

	// Anti-stall heuristic: if the new segment is much shorter than the
	// one it follows, carrying the old phase residual forward risks a
	// stepper stall on the first few ticks of the new segment. Force a
	// clean restart of the accumulators in that case. Matches the AVR
	// original's dda_ticks * ACCUMULATOR_RESET_FACTOR < prev_ticks check,
	// including its unsigned arithmetic: prevTicks starts at zero, so the
	// check never fires on the very first segment (see DESIGN.md Open
	// Question 2).
	forceReset := reset || p.DdaTicks*AccumulatorResetFactor < prevTicks
	if forceReset {
		core.RecordTiming(core.EvtAccumulatorReset, 0xFF, core.GetTime(), p.DdaTicks, prevTicks)
	}

	if p.MoveType == MoveNull {
		for i := 0; i < MotorCount; i++ {
			rt.Motors[i] = MotorState{}
		}
		p.MoveType = MoveEmpty
		p.SetExecState(ExecStateOwnedByExec)
		core.RecordTiming(core.EvtLoadMove, 0xFF, core.GetTime(), p.DdaTicks, 0)
		return true, nil
	}

	for i := 0; i < MotorCount; i++ {
		pm := p.Motors[i]
		m := &rt.Motors[i]

		m.Direction = pm.Direction
		m.StepsToGo = pm.Steps
		m.SubstepIncr = int32(pm.Steps)

		if forceReset || m.StepsToGo == 0 {
			m.Substeps = -int32(rt.DdaTicksTotal)
		}
		// else: accumulator carries its residual value forward unchanged,
		// matching the original's behavior of never re-priming Substeps
		// when the heuristic doesn't fire.

		// Direction setting can be omitted for an axis with no steps this
		// segment, matching _load_move's `if (phase_increment != 0)` guard
		// exactly; the gate is on step count, not on the direction bit,
		// since Direction 0 is now itself a valid post-polarity pin level.
		if m.StepsToGo != 0 && l.gpio != nil {
			level := pm.Direction != 0
			_ = l.gpio.SetPin(l.dirPins[i], level)
		}
	}

	p.MoveType = MoveEmpty
	p.SetExecState(ExecStateOwnedByExec)
	core.RecordTiming(core.EvtLoadMove, 0xFF, core.GetTime(), p.DdaTicks, 0)
	core.RecordTiming(core.EvtPulseArm, 0xFF, core.GetTime(), rt.DdaTicksTotal, 0)
	return true, nil
}
