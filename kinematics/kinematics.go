// Package kinematics converts joint travel in length units into signed
// motor step counts. It is the pure-function upstream collaborator of the
// DDA pipeline: no retained state, no timing decisions, and it never
// truncates to integer (that happens in the preparer, which rounds each
// count to the nearest whole step and drops the fraction).
//
// Grounded on standalone/kinematics/cartesian.go's 1:1 Cartesian mapping in
// the teacher repo, trimmed to the two-motor Z/R machine this core drives,
// and on ik_kinematics() in original_source/AVR/MotorController/kinematics.c
// for the axis-inhibit and float-step behavior.
package kinematics

import "errors"

// AxisCount is the number of machine axes mapped by this kinematics.
const AxisCount = 2

// MotorCount is the number of motors driven by this core (Z and R).
const MotorCount = 2

// Axis indices.
const (
	ZAxis = 0
	RAxis = 1
)

// AxisConfig describes one axis's mapping onto its motor.
type AxisConfig struct {
	PulsesPerUnit float64 // steps per length unit, matches spec's PulsesPerUnit
	Inhibited     bool    // inhibited axes always produce zero joint travel
}

// Mapper is a pure Cartesian joint->motor mapping for a two-axis machine.
// It holds only configuration, never per-move state.
type Mapper struct {
	axes [AxisCount]AxisConfig
}

// NewMapper builds a Cartesian mapper for the Z and R axes.
func NewMapper(zAxis, rAxis AxisConfig) (*Mapper, error) {
	if zAxis.PulsesPerUnit <= 0 || rAxis.PulsesPerUnit <= 0 {
		return nil, errors.New("kinematics: PulsesPerUnit must be positive")
	}
	return &Mapper{axes: [AxisCount]AxisConfig{zAxis, rAxis}}, nil
}

// Map converts axis travel (length units) into signed motor step counts.
// microseconds passes through unchanged; it is not used by a Cartesian
// mapper but is part of the contract so other kinematics (not implemented
// here; see spec.md's Non-goals for delta/SCARA) can use segment duration
// for velocity-dependent corrections.
//
// Step counts are returned as float64, never truncated here. The DDA
// preparer rounds each one to a whole step count; the fractional
// remainder is not carried into the next segment.
func (m *Mapper) Map(travel [AxisCount]float64, microseconds float64) [MotorCount]float64 {
	var joint [AxisCount]float64
	for i, axis := range m.axes {
		if axis.Inhibited {
			joint[i] = 0
			continue
		}
		joint[i] = travel[i]
	}

	var steps [MotorCount]float64
	for i, axis := range m.axes {
		steps[i] = joint[i] * axis.PulsesPerUnit
	}
	return steps
}
