// Package config loads and validates the step-pulse core's tunable
// constants from JSON, applying defaults for anything the file omits.
// Grounded on standalone/config/config.go's LoadConfig/applyDefaults
// pattern in the teacher repo: plain encoding/json, no third-party config
// library, because the teacher never reaches for one either and the
// config surface here is small and flat.
package config

import (
	"encoding/json"
	"errors"
	"os"
)

// Constants holds every tunable value the dda and kinematics packages
// need, loaded once at startup.
type Constants struct {
	// FDda is the DDA tick frequency in Hz (the rate Core.Tick is
	// expected to be called at).
	FDda float64 `json:"f_dda"`

	// Substeps is loaded and defaulted but not read by any other
	// package: controller.New does not pass it on, and the dda pipeline
	// applies no substep factor (a motor's phase increment is its rounded
	// step count, and each step subtracts the segment's tick count).
	Substeps int `json:"substeps"`

	// AccumulatorResetFactor is loaded and defaulted but not read by any
	// other package: the loader's anti-stall check uses the constant
	// dda.AccumulatorResetFactor, so changing this value has no effect.
	AccumulatorResetFactor uint32 `json:"accumulator_reset_factor"`

	ZAxisPulsesPerUnit float64 `json:"z_axis_pulses_per_unit"`
	RAxisPulsesPerUnit float64 `json:"r_axis_pulses_per_unit"`

	// ZAxisMotorPolarity and RAxisMotorPolarity are XOR masks (0 or 1)
	// applied to that motor's commanded direction bit before it reaches
	// the direction pin, for wiring that runs the motor backwards
	// relative to the machine's positive travel convention. Matches
	// Z_AXIS_MOTOR_POLARITY/R_AXIS_MOTOR_POLARITY in the AVR original
	// exactly (a one-bit XOR mask, not a sign multiplier).
	ZAxisMotorPolarity uint8 `json:"z_axis_motor_polarity"`
	RAxisMotorPolarity uint8 `json:"r_axis_motor_polarity"`

	ZAxisInhibited bool `json:"z_axis_inhibited"`
	RAxisInhibited bool `json:"r_axis_inhibited"`

	// Epsilon is the minimum travel magnitude (length units) below which
	// a move is treated as a null move rather than a line.
	Epsilon float64 `json:"epsilon"`

	// VibrationTripThreshold is the raw ADXL345 acceleration magnitude
	// (counts, ~256 per g at the driver's configured +/-16g range) above
	// which a target's vibration monitor estops the pipeline, catching a
	// crashed axis or runaway chatter the step pipeline itself can't see.
	VibrationTripThreshold int16 `json:"vibration_trip_threshold"`
}

// defaults matches the AVR original's tuned values where spec.md gives
// no other guidance.
func defaults() Constants {
	return Constants{
		FDda:                   50000,
		Substeps:               16,
		AccumulatorResetFactor: 2,
		ZAxisPulsesPerUnit:     3200,
		RAxisPulsesPerUnit:     3200,
		ZAxisMotorPolarity:     0,
		RAxisMotorPolarity:     0,
		Epsilon:                1e-6,
		VibrationTripThreshold: 2048, // ~8g at +/-16g range
	}
}

// applyDefaults fills any zero-valued field in c with its default. Bool
// fields and the polarity XOR masks are never defaulted since false/0
// (no inversion) are themselves valid configured values, not an
// omitted-field sentinel.
func applyDefaults(c *Constants) {
	d := defaults()
	if c.FDda == 0 {
		c.FDda = d.FDda
	}
	if c.Substeps == 0 {
		c.Substeps = d.Substeps
	}
	if c.AccumulatorResetFactor == 0 {
		c.AccumulatorResetFactor = d.AccumulatorResetFactor
	}
	if c.ZAxisPulsesPerUnit == 0 {
		c.ZAxisPulsesPerUnit = d.ZAxisPulsesPerUnit
	}
	if c.RAxisPulsesPerUnit == 0 {
		c.RAxisPulsesPerUnit = d.RAxisPulsesPerUnit
	}
	if c.Epsilon == 0 {
		c.Epsilon = d.Epsilon
	}
	if c.VibrationTripThreshold == 0 {
		c.VibrationTripThreshold = d.VibrationTripThreshold
	}
}

// Validate checks invariants applyDefaults can't fix by substitution.
func (c *Constants) Validate() error {
	if c.FDda <= 0 {
		return errors.New("config: f_dda must be positive")
	}
	if c.ZAxisPulsesPerUnit <= 0 || c.RAxisPulsesPerUnit <= 0 {
		return errors.New("config: pulses_per_unit must be positive")
	}
	if c.ZAxisMotorPolarity > 1 {
		return errors.New("config: z_axis_motor_polarity must be 0 or 1")
	}
	if c.RAxisMotorPolarity > 1 {
		return errors.New("config: r_axis_motor_polarity must be 0 or 1")
	}
	return nil
}

// Load reads Constants from a JSON file at path, applying defaults for
// any omitted field and validating the result.
func Load(path string) (*Constants, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Constants
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	applyDefaults(&c)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Default returns a fresh Constants populated entirely with defaults,
// useful for tests and for cmd/sim's no-config-file demo mode.
func Default() *Constants {
	c := defaults()
	return &c
}
