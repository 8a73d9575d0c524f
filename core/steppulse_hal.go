package core

// StepPulseBackend is the hardware abstraction for emitting a single step
// pulse on a motor's step pin. Direction is not part of this interface: the
// loader owns the direction pin and writes it directly through GPIODriver,
// since the pulse generator's hot path only ever toggles the step line.
//
// Implementations must guarantee the driver's minimum pulse width. On cores
// fast enough that back-to-back instructions no longer provide ~1us of
// separation, Pulse must insert an explicit delay or hand the pulse off to
// a hardware one-shot (see targets/pio).
type StepPulseBackend interface {
	// Init configures the step pin for the given motor index (0=Z, 1=R).
	Init(motor int, pin GPIOPin) error

	// Pulse emits one step pulse on the motor's step pin. Called from the
	// highest-priority context once per DDA tick that motor's accumulator
	// overflows; must be fast and must not block.
	Pulse(motor int)

	// GetName returns the backend implementation name for diagnostics.
	GetName() string
}

// StepPulseBackendInfo describes a backend's timing characteristics.
type StepPulseBackendInfo struct {
	Name          string
	MaxStepRate   uint32 // Maximum steps/second per motor
	MinPulseNs    uint32 // Minimum step pulse width (ns)
	TypicalJitter uint32 // Typical timing jitter (ns)
}
