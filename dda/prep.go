package dda

import (
	"math"

	"steppulse/core"
)

// Preparer turns a kinematics-mapped step vector and a segment duration
// into a prepared DDA segment, mirroring st_prep_line in the AVR source.
// It owns no hardware state; its only job is arithmetic plus the
// ExecState handshake with whatever Loader is reading the same Prep.
type Preparer struct {
	fDda     float64           // DDA frequency in Hz, from config
	polarity [MotorCount]uint8 // per-motor XOR mask, from config
}

// NewPreparer builds a Preparer that computes segment ticks at the given
// DDA tick frequency (config.Constants.FDda) and applies polarity (a
// per-motor XOR mask) to every commanded direction bit it prepares.
func NewPreparer(fDda float64, polarity [MotorCount]uint8) *Preparer {
	return &Preparer{fDda: fDda, polarity: polarity}
}

// PrepLine prepares a real step segment from motor step counts (signed,
// fractional from kinematics; only the magnitude is used) and an
// explicit commanded direction bit per motor, matching st_prep_line's
// `steps[], directions[], microseconds` signature exactly: direction is
// never derived from the sign of steps, it is directions[m] XORed
// against this motor's configured polarity. It returns PrepBufferFull
// without modifying p if the loader still owns the buffer; callers must
// retry on the next exec request rather than block, matching the
// original's non-blocking _exec_move behavior.
func (pr *Preparer) PrepLine(p *Prep, steps [MotorCount]float64, directions [MotorCount]uint8, seconds float64) (PrepStatus, error) {
	if !p.VerifyIntegrity() {
		return PrepRejectedCorrupt, PrepRejectedCorrupt
	}
	if p.ExecState() != ExecStateOwnedByExec {
		return PrepBufferFull, PrepBufferFull
	}

	ddaTicks := uint32(seconds * pr.fDda)
	if ddaTicks == 0 {
		return PrepRejectedZeroDuration, PrepRejectedZeroDuration
	}

	p.MoveType = MoveALine
	p.DdaTicks = ddaTicks
	for i := 0; i < MotorCount; i++ {
		rounded := uint32(math.Round(math.Abs(steps[i])))
		dir := directions[i] ^ pr.polarity[i]
		p.Motors[i] = PrepMotor{Steps: rounded, Direction: dir}
	}

	p.SetExecState(ExecStateOwnedByLoader)
	core.RecordTiming(core.EvtPrepLine, 0xFF, core.GetTime(), ddaTicks, 0)
	return PrepOK, nil
}

// PrepNull prepares a dwell: a segment with the given duration and zero
// steps on every motor. The loader still arms the DDA timer for it so
// the pipeline's timing stays consistent, but the pulse generator emits
// no pulses while it runs. Mirrors st_prep_null in the AVR source.
func (pr *Preparer) PrepNull(p *Prep, seconds float64) (PrepStatus, error) {
	if !p.VerifyIntegrity() {
		return PrepRejectedCorrupt, PrepRejectedCorrupt
	}
	if p.ExecState() != ExecStateOwnedByExec {
		return PrepBufferFull, PrepBufferFull
	}

	ddaTicks := uint32(seconds * pr.fDda)
	if ddaTicks == 0 {
		return PrepRejectedZeroDuration, PrepRejectedZeroDuration
	}

	p.MoveType = MoveNull
	p.DdaTicks = ddaTicks
	for i := 0; i < MotorCount; i++ {
		p.Motors[i] = PrepMotor{Steps: 0, Direction: 0}
	}

	p.SetExecState(ExecStateOwnedByLoader)
	core.RecordTiming(core.EvtPrepLine, 0xFF, core.GetTime(), ddaTicks, 0)
	return PrepOK, nil
}
