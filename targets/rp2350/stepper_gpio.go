//go:build rp2350

package main

import (
	"machine"

	"steppulse/core"
	"steppulse/dda"
)

// GPIOBackend implements core.StepPulseBackend with direct GPIO
// bit-banging: a busy-wait loop holds the step pin high for roughly the
// driver's minimum pulse width. Adapted from the teacher's StepperGPIO,
// which drove exactly one motor; this tracks one pin per motor index so
// a single backend instance can serve both Z and R.
type GPIOBackend struct {
	configured [dda.MotorCount]bool
	pins       [dda.MotorCount]machine.Pin
}

// motorPulseNops is the number of empty-loop iterations used to hold the
// step pin high. ~300 iterations at 150MHz gives roughly a 2us pulse,
// matching the AVR original driver's minimum step width.
const motorPulseNops = 300

// NewGPIOBackend returns an unconfigured bit-bang step-pulse backend.
func NewGPIOBackend() *GPIOBackend {
	return &GPIOBackend{}
}

// Init configures motor's step pin as a digital output, idle low.
func (b *GPIOBackend) Init(motor int, pin core.GPIOPin) error {
	p := machine.Pin(pin)
	p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	p.Low()
	b.pins[motor] = p
	b.configured[motor] = true
	core.DebugPrintln("[GPIO] step pulse backend initialized: motor=" + itoa(motor) + " pin=" + itoa(int(pin)))
	return nil
}

// Pulse drives motor's step pin high, busy-waits roughly the driver's
// minimum pulse width, then drives it low. Called from the
// highest-priority DDA tick context; must stay short and non-blocking
// beyond this fixed delay.
func (b *GPIOBackend) Pulse(motor int) {
	if !b.configured[motor] {
		return
	}
	pin := b.pins[motor]
	pin.High()
	for i := 0; i < motorPulseNops; i++ {
	}
	pin.Low()
}

// GetName returns the backend implementation name for diagnostics.
func (b *GPIOBackend) GetName() string { return "gpio-bitbang" }
