// Package controller assembles the dda pipeline behind a single
// foreground-facing type, mirroring the bring-up and polling
// responsibilities of standalone/manager.go in the teacher repo (trimmed
// of its gcode/host-I/O surface, which is out of scope here; see
// spec.md's Non-goals).
package controller

import (
	"steppulse/config"
	"steppulse/core"
	"steppulse/dda"
	"steppulse/kinematics"
)

// FaultHandler is called when VerifyIntegrity or Poll detects a
// corrupted pipeline. It is never called from the pulse ISR context;
// only from Poll, which callers run at background/foreground priority.
type FaultHandler func(reason string)

// MotorController owns one fully wired dda.Core plus the kinematics
// mapper that feeds it, and exposes the small surface a foreground loop
// or host demo needs: submit a move, poll for completion, and find out
// about corruption.
type MotorController struct {
	core    *dda.Core
	mapper  *kinematics.Mapper
	cfg     *config.Constants
	onFault FaultHandler

	// MotionComplete latches true once Poll observes the pipeline fully
	// drained after having been busy; cleared the next time a move is
	// submitted. Exported so host demos/tests can read it directly
	// without round-tripping through a method.
	MotionComplete bool

	wasBusy bool
}

// New builds a MotorController from already-loaded config and a
// concrete step-pulse backend/GPIO driver pair, typically supplied by
// target-specific bring-up code (targets/rp2040, targets/rp2350,
// targets/simhost).
func New(cfg *config.Constants, backend core.StepPulseBackend, gpio core.GPIODriver, dirPins [dda.MotorCount]core.GPIOPin, onFault FaultHandler) (*MotorController, error) {
	mapper, err := kinematics.NewMapper(
		kinematics.AxisConfig{PulsesPerUnit: cfg.ZAxisPulsesPerUnit, Inhibited: cfg.ZAxisInhibited},
		kinematics.AxisConfig{PulsesPerUnit: cfg.RAxisPulsesPerUnit, Inhibited: cfg.RAxisInhibited},
	)
	if err != nil {
		return nil, err
	}

	polarity := [dda.MotorCount]uint8{cfg.ZAxisMotorPolarity, cfg.RAxisMotorPolarity}
	return &MotorController{
		core:    dda.NewCore(cfg.FDda, backend, gpio, dirPins, polarity),
		mapper:  mapper,
		cfg:     cfg,
		onFault: onFault,
	}, nil
}

// SubmitMove maps axis travel (length units) over the given duration
// into motor steps and hands it to the dda pipeline. Returns
// dda.PrepBufferFull if the pipeline hasn't drained its previous move
// yet; callers should retry rather than treat it as a hard failure.
func (mc *MotorController) SubmitMove(travel [kinematics.AxisCount]float64, seconds float64) (dda.PrepStatus, error) {
	if seconds <= 0 {
		return dda.PrepRejectedZeroDuration, dda.PrepRejectedZeroDuration
	}

	steps := mc.mapper.Map(travel, seconds*1e6)

	absTravel := travel[kinematics.ZAxis]*travel[kinematics.ZAxis] + travel[kinematics.RAxis]*travel[kinematics.RAxis]
	if absTravel < mc.cfg.Epsilon*mc.cfg.Epsilon {
		status, err := mc.core.RequestNullMove(seconds)
		if status == dda.PrepOK {
			mc.MotionComplete = false
		}
		return status, err
	}

	// Commanded direction bit per motor, derived from the sign of the
	// mapped step count; the preparer XORs this against motor polarity,
	// it never reads the sign of steps itself (steps carries magnitude
	// only from here on).
	var directions [dda.MotorCount]uint8
	for i, s := range steps {
		if s >= 0 {
			directions[i] = 1
		}
	}

	status, err := mc.core.RequestExecMove(steps, directions, seconds)
	if status == dda.PrepOK {
		mc.MotionComplete = false
	}
	return status, err
}

// Poll must be called regularly from a background/foreground loop (or a
// goroutine, on host builds). It services pending load requests,
// verifies pipeline integrity, and updates MotionComplete.
func (mc *MotorController) Poll() {
	if !mc.core.VerifyIntegrity() {
		if mc.onFault != nil {
			mc.onFault("pipeline integrity check failed: magic sentinel mismatch")
		}
		return
	}

	if _, err := mc.core.RunLoadRequests(); err != nil {
		if mc.onFault != nil {
			mc.onFault(err.Error())
		}
		return
	}

	busy := mc.core.IsBusy()
	if mc.wasBusy && !busy {
		mc.MotionComplete = true
	}
	mc.wasBusy = busy
}

// Tick advances the pulse generator by one DDA tick. Call from the
// highest-priority context available on the target platform.
func (mc *MotorController) Tick() bool {
	return mc.core.Tick()
}

// EStop requests an immediate accumulator reset on the next load, used
// after an emergency stop to guarantee the next move starts with clean
// phase accumulators rather than carrying a stale residual forward.
func (mc *MotorController) EStop() {
	mc.core.RequestReset()
}

// StepCounts returns each motor's free-running step counter.
func (mc *MotorController) StepCounts() [dda.MotorCount]uint32 {
	return mc.core.ReadStepCounts()
}

// IsBusy reports whether the pipeline still has queued or in-flight
// motion.
func (mc *MotorController) IsBusy() bool {
	return mc.core.IsBusy()
}
