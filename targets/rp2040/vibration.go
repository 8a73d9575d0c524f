//go:build rp2040

package main

import (
	"machine"

	"tinygo.org/x/drivers/adxl345"
)

// VibrationMonitor wraps an ADXL345 accelerometer on I2C0 and trips a
// crash/chatter fault when any axis's raw reading exceeds a threshold.
// Grounded on the teacher's own adxl345 resonance-measurement example
// (examples/drivers/adxl345_example.go), which sampled the same sensor
// for input-shaping; repurposed here from continuous frequency sampling
// to a simple threshold check suited to this firmware's two-axis lathe
// motion instead of a 3D printer's.
type VibrationMonitor struct {
	sensor    adxl345.Device
	threshold int16
}

// NewVibrationMonitor configures an ADXL345 at its default I2C address
// (0x53, SDO/ALT pulled low) on I2C0, matching the teacher example's
// wiring: SDA=GPIO4, SCL=GPIO5, 400kHz bus.
func NewVibrationMonitor(threshold int16) *VibrationMonitor {
	machine.I2C0.Configure(machine.I2CConfig{Frequency: 400000})
	sensor := adxl345.New(machine.I2C0)
	sensor.Configure()
	sensor.SetRange(adxl345.RANGE_16G)
	sensor.SetRate(adxl345.RATE_0_78HZ)
	return &VibrationMonitor{sensor: sensor, threshold: threshold}
}

// Tripped reports whether the most recent acceleration sample exceeds
// the configured threshold on any axis.
func (v *VibrationMonitor) Tripped() bool {
	x, y, z := v.sensor.ReadRawAcceleration()
	return abs16(x) > v.threshold || abs16(y) > v.threshold || abs16(z) > v.threshold
}

func abs16(n int16) int16 {
	if n < 0 {
		return -n
	}
	return n
}
