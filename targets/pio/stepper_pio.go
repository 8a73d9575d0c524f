//go:build rp2040

// Package pio implements a core.StepPulseBackend on top of the RP2040's
// PIO blocks, giving hardware-timed, jitter-free step pulses instead of
// a CPU busy-wait. Adapted from the teacher repo's PIOStepperBackend:
// the original encoded a burst pulse-count-plus-delay command per PIO
// push, suited to its own interval-stepper algorithm. The DDA pulse
// generator instead calls Pulse once per overflowing tick, so the
// program here is simplified to a single fixed-width one-shot pulse and
// direction is dropped from the PIO program entirely: dda.Loader already
// drives direction through core.GPIODriver before the segment's first
// pulse, so the state machine only ever needs to know "pulse now".
package pio

import (
	"machine"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"

	"steppulse/core"
)

// buildPulseProgram assembles a PIO program that blocks on the TX FIFO,
// then emits one fixed-width pulse on its SET pin per word pulled.
// Command words are compared against the AVR original's handshake model:
// no pulse count is needed since the pulse generator calls Pulse exactly
// once per physical step.
func buildPulseProgram() []uint16 {
	asm := rp2pio.AssemblerV0{SidesetBits: 0}
	return []uint16{
		// .wrap_target
		asm.Pull(false, true).Encode(),                   // 0: pull block
		asm.Set(rp2pio.SetDestPins, 1).Delay(7).Encode(),  // 1: set pins, 1 [7]
		asm.Set(rp2pio.SetDestPins, 0).Encode(),           // 2: set pins, 0
		// .wrap
	}
}

const pulseProgramOrigin = 0

// pioMotor holds one motor's claimed state machine and step pin.
type pioMotor struct {
	pio     *rp2pio.PIO
	sm      rp2pio.StateMachine
	stepPin machine.Pin
	ready   bool
}

// Backend implements core.StepPulseBackend across up to 8 motors (2 PIO
// blocks x 4 state machines each), though this firmware only ever wires
// up dda.MotorCount of them.
type Backend struct {
	motors   [8]pioMotor
	nextPIO  uint8
	nextSM   uint8
}

// NewBackend returns an unconfigured PIO step-pulse backend; call Init
// once per motor before the pulse generator starts ticking.
func NewBackend() *Backend {
	return &Backend{}
}

func (b *Backend) allocate() (*rp2pio.PIO, rp2pio.StateMachine, bool) {
	for i := 0; i < 8; i++ {
		pioNum := b.nextPIO
		smNum := b.nextSM

		b.nextSM++
		if b.nextSM >= 4 {
			b.nextSM = 0
			b.nextPIO = (b.nextPIO + 1) % 2
		}

		var pioHW *rp2pio.PIO
		if pioNum == 0 {
			pioHW = rp2pio.PIO0
		} else {
			pioHW = rp2pio.PIO1
		}
		sm := pioHW.StateMachine(smNum)
		if !sm.TryClaim() {
			continue
		}
		return pioHW, sm, true
	}
	return nil, rp2pio.StateMachine{}, false
}

// Init configures motor's step pin on a freshly claimed state machine
// running the one-shot pulse program.
func (b *Backend) Init(motor int, pin core.GPIOPin) error {
	pioHW, sm, ok := b.allocate()
	if !ok {
		return errNoStateMachine
	}

	stepPin := machine.Pin(pin)

	program := buildPulseProgram()
	offset, err := pioHW.AddProgram(program, pulseProgramOrigin)
	if err != nil {
		return err
	}

	stepPin.Configure(machine.PinConfig{Mode: pioHW.PinMode()})

	cfg := rp2pio.DefaultStateMachineConfig()
	cfg.SetSetPins(stepPin, 1)
	cfg.SetWrap(offset+uint8(len(program))-1, offset)
	cfg.SetClkDivIntFrac(1000, 0)

	sm.Init(offset, cfg)
	sm.SetPindirsConsecutive(stepPin, 1, true)
	sm.SetPinsConsecutive(stepPin, 1, false)
	sm.SetEnabled(true)

	b.motors[motor] = pioMotor{pio: pioHW, sm: sm, stepPin: stepPin, ready: true}
	return nil
}

// Pulse pushes one pulse command to motor's state machine FIFO. Called
// from the highest-priority DDA tick context; the busy-wait below is
// bounded by the FIFO depth draining at the PIO program's fixed rate and
// is expected to never actually spin in practice at any sane step rate.
func (b *Backend) Pulse(motor int) {
	m := &b.motors[motor]
	if !m.ready {
		return
	}
	for m.sm.IsTxFIFOFull() {
	}
	m.sm.TxPut(0)
}

// GetName returns the backend implementation name for diagnostics.
func (b *Backend) GetName() string { return "pio" }

// Info reports this backend's timing characteristics.
func (b *Backend) Info() core.StepPulseBackendInfo {
	return core.StepPulseBackendInfo{
		Name:          b.GetName(),
		MaxStepRate:   500000,
		MinPulseNs:    64,
		TypicalJitter: 10,
	}
}

type pioError string

func (e pioError) Error() string { return string(e) }

const errNoStateMachine = pioError("pio: no free state machine available")
