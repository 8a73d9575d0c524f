// Package dda implements the triple-buffered step-pulse generation pipeline:
// Preparer -> Loader -> PulseGenerator, connected by the Runtime/Prep
// handshake. This mirrors the producer/consumer relationship of
// st_prep_line/_load_move/ISR(DDA_TIMER_ISR_vect) in
// original_source/AVR/MotorController/stepper.c, reworked into three
// Go types connected by an explicit ownership token instead of shared
// global statics guarded by cli()/sei().
package dda

import "sync/atomic"

// MotorCount is the number of motors this pipeline drives (Z and R).
const MotorCount = 2

// AccumulatorResetFactor is the anti-stall heuristic threshold: a newly
// loaded segment's DdaTicks is compared against the previous segment's
// ticks, and if dda_ticks * AccumulatorResetFactor < prevTicks the phase
// accumulators are reset rather than carried forward. Matches the AVR
// original's ACCUMULATOR_RESET_FACTOR exactly (intentionally unsigned
// arithmetic; see DESIGN.md for the wraparound discussion).
const AccumulatorResetFactor = 2

// ExecState values record who currently owns the Prep buffer, forming a
// single-producer/single-consumer handshake between the exec (medium
// priority) and loader (medium priority, different trigger) contexts.
const (
	ExecStateOwnedByExec uint32 = iota
	ExecStateOwnedByLoader
)

// PrepMoveType tags what kind of segment Prep currently holds. It
// replaces the original's bare move_type integer plus prep_state pair
// with a single sum type: a Prep buffer is either empty, holds a real
// line segment, or holds a null (dwell/no-step) segment.
type PrepMoveType uint8

const (
	// MoveEmpty means the Prep buffer holds nothing the loader should act on.
	MoveEmpty PrepMoveType = iota
	// MoveALine is a normal multi-axis step segment.
	MoveALine
	// MoveNull is a segment with zero steps on every motor (a pure time
	// delay), e.g. a dwell. The loader still arms the DDA timer for it
	// but the pulse generator emits no pulses.
	MoveNull
)

// MagicStart is the sentinel value used to detect Prep/Runtime memory
// corruption, exactly as st_prep_line's magic_start check in the AVR
// source. VerifyIntegrity compares this against both buffers' sentinel
// fields on every foreground poll.
const MagicStart uint32 = 0x12345678

// PulseToken is a marker value that Loader.LoadMove takes as a parameter.
// It carries no data and nothing checks it: Runtime's fields are
// exported, Tick does not take a token, and PulseToken{} can be written
// anywhere. The pulse generator creates one at construction time and
// returns it from Token.
type PulseToken struct{ _ [0]int }

// MotorState is one motor's live DDA state inside Runtime. Substeps and
// SubstepIncr mirror the AVR original's per-axis fields in stRunMotor_t.
type MotorState struct {
	Substeps    int32 // DDA phase accumulator (signed, can go negative)
	SubstepIncr int32 // per-tick phase increment, derived from step count
	Direction   uint8 // pin-level direction bit (post-polarity-XOR), diagnostic only
	StepsToGo   uint32
}

// Runtime is the single currently-executing segment's state, written by
// the loader (when it loads a segment) and by the pulse generator (on
// every tick). Grounded on stRunSingleton_t in the AVR source.
type Runtime struct {
	MagicStart      uint32
	DdaTicksDowncount int32
	DdaTicksTotal     uint32
	Motors            [MotorCount]MotorState
	StepCount         [MotorCount]uint32 // free-running step counters (supplemented feature)
	MagicEnd          uint32
}

// NewRuntime returns a zeroed, sentinel-stamped Runtime ready for the
// pulse generator to own.
func NewRuntime() *Runtime {
	return &Runtime{MagicStart: MagicStart, MagicEnd: MagicStart}
}

// VerifyIntegrity reports whether both sentinel fields still hold
// MagicStart. A mismatch indicates memory corruption and should be
// reported out of band (controller.MotorController.Poll passes it to the
// controller's FaultHandler), never silently recovered from.
func (r *Runtime) VerifyIntegrity() bool {
	return r.MagicStart == MagicStart && r.MagicEnd == MagicStart
}

// Prep is the next-to-load segment, produced by the Preparer and
// consumed by the Loader. ExecState governs ownership: the preparer may
// only write when it observes ExecStateOwnedByExec, and must flip the
// state to ExecStateOwnedByLoader as its last act. Grounded on
// stPrepSingleton_t in the AVR source.
type Prep struct {
	MagicStart uint32

	execState atomic.Uint32
	resetFlag atomic.Bool

	MoveType PrepMoveType
	Motors   [MotorCount]PrepMotor

	DdaTicks uint32 // computed segment length in DDA ticks

	MagicEnd uint32
}

// PrepMotor is one motor's prepared-but-not-yet-loaded step parameters.
// Steps is rounded to the nearest integer by the preparer; the rounding
// residual is intentionally dropped at segment boundaries rather than
// carried forward, matching ik_kinematics' use of float intermediates
// only up to the point of truncation (see DESIGN.md). Direction is the
// commanded direction bit already XORed against motor polarity by the
// preparer (directions[m] ^ motor_polarity[m], per st_prep_line), so the
// loader never needs to know about polarity itself.
type PrepMotor struct {
	Steps     uint32
	Direction uint8
}

// NewPrep returns a zeroed, sentinel-stamped Prep owned by the exec side.
func NewPrep() *Prep {
	p := &Prep{MagicStart: MagicStart, MagicEnd: MagicStart}
	p.execState.Store(ExecStateOwnedByExec)
	return p
}

// ExecState returns the current owner of this Prep buffer.
func (p *Prep) ExecState() uint32 { return p.execState.Load() }

// SetExecState updates ownership. Called by the preparer (Exec->Loader)
// and by the loader once it has consumed the buffer (Loader->Exec).
func (p *Prep) SetExecState(v uint32) { p.execState.Store(v) }

// RequestReset sets the reset flag the loader consults on its next load:
// when set, the loader forces the phase accumulators to -DdaTicks instead
// of carrying the previous segment's residual forward. Set by the
// controller after a stop/estop, never by the pipeline itself.
func (p *Prep) RequestReset() { p.resetFlag.Store(true) }

// consumeResetFlag reads and clears the reset flag; only the loader calls
// this, as part of taking ownership of a prepared segment.
func (p *Prep) consumeResetFlag() bool {
	return p.resetFlag.Swap(false)
}

// VerifyIntegrity reports whether both sentinel fields still hold
// MagicStart.
func (p *Prep) VerifyIntegrity() bool {
	return p.MagicStart == MagicStart && p.MagicEnd == MagicStart
}

// PrepStatus is the typed result of a prepare attempt, replacing
// the AVR original's bare stat_t return codes with values callers can
// switch on without consulting a header.
type PrepStatus uint8

const (
	// PrepOK means the segment was accepted and is ready for the loader.
	PrepOK PrepStatus = iota
	// PrepBufferFull means the Prep buffer was still owned by the loader;
	// the caller must retry once ExecState flips back.
	PrepBufferFull
	// PrepRejectedZeroDuration means the segment's computed DdaTicks was
	// zero; a zero-length segment can never be loaded safely.
	PrepRejectedZeroDuration
	// PrepRejectedCorrupt means VerifyIntegrity failed on the Prep buffer
	// before the preparer could write to it.
	PrepRejectedCorrupt
)

// Error implements the error interface so PrepStatus can be returned
// directly where a failure needs to propagate as an error, while still
// being switchable as a plain value where it doesn't.
func (s PrepStatus) Error() string {
	switch s {
	case PrepOK:
		return "dda: ok"
	case PrepBufferFull:
		return "dda: prep buffer full"
	case PrepRejectedZeroDuration:
		return "dda: rejected, zero duration"
	case PrepRejectedCorrupt:
		return "dda: rejected, corrupt prep buffer"
	default:
		return "dda: unknown status"
	}
}
