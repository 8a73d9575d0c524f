package dda

import (
	"testing"

	"steppulse/core"
)

// fakeBackend counts pulses per motor instead of driving real pins.
type fakeBackend struct {
	pulses [MotorCount]int
}

func (b *fakeBackend) Init(motor int, pin core.GPIOPin) error { return nil }
func (b *fakeBackend) Pulse(motor int)                        { b.pulses[motor]++ }
func (b *fakeBackend) GetName() string                        { return "fake" }

// fakeGPIO records the last level written to each pin, standing in for
// core.GPIODriver so tests can observe direction pin writes.
type fakeGPIO struct {
	levels map[core.GPIOPin]bool
}

func newFakeGPIO() *fakeGPIO { return &fakeGPIO{levels: make(map[core.GPIOPin]bool)} }

func (g *fakeGPIO) ConfigureOutput(pin core.GPIOPin) error        { return nil }
func (g *fakeGPIO) ConfigureInputPullUp(pin core.GPIOPin) error   { return nil }
func (g *fakeGPIO) ConfigureInputPullDown(pin core.GPIOPin) error { return nil }
func (g *fakeGPIO) SetPin(pin core.GPIOPin, value bool) error     { g.levels[pin] = value; return nil }
func (g *fakeGPIO) GetPin(pin core.GPIOPin) (bool, error)         { return g.levels[pin], nil }
func (g *fakeGPIO) ReadPin(pin core.GPIOPin) bool                 { return g.levels[pin] }

// noDirections is a convenience commanded-direction vector for tests that
// don't care about direction, keeping call sites short.
var noDirections = [MotorCount]uint8{0, 0}

func newPipeline() (*Preparer, *Loader, *PulseGenerator, *Runtime, *Prep, *fakeBackend) {
	rt := NewRuntime()
	p := NewPrep()
	preparer := NewPreparer(1000, [MotorCount]uint8{}) // 1000 Hz DDA tick rate, no polarity inversion
	backend := &fakeBackend{}
	loader := &Loader{} // gpio nil is fine; only direction writes use it
	pulse := NewPulseGenerator(nil, nil)
	pulse.backend = backend
	return preparer, loader, pulse, rt, p, backend
}

// runUntilDrained ticks until the segment completes or a tick budget is
// exhausted, loading the next segment in between as the real medium
// priority context would.
func runUntilDrained(t *testing.T, loader *Loader, pulse *PulseGenerator, rt *Runtime, p *Prep, budget int) int {
	t.Helper()
	ticks := 0
	loaded, err := loader.LoadMove(rt, p, pulse.Token())
	if err != nil {
		t.Fatalf("LoadMove: %v", err)
	}
	if !loaded {
		t.Fatalf("expected a segment to load")
	}
	for ticks < budget {
		drained := pulse.Tick(rt)
		ticks++
		if drained {
			return ticks
		}
	}
	t.Fatalf("segment did not drain within %d ticks", budget)
	return ticks
}

func TestSingleStraightMove(t *testing.T) {
	preparer, loader, pulse, rt, p, backend := newPipeline()

	status, err := preparer.PrepLine(p, [MotorCount]float64{100, 0}, noDirections, 0.1)
	if status != PrepOK || err != nil {
		t.Fatalf("PrepLine: status=%v err=%v", status, err)
	}

	runUntilDrained(t, loader, pulse, rt, p, 1000)

	if backend.pulses[0] != 100 {
		t.Errorf("motor0 pulses = %d, want 100", backend.pulses[0])
	}
	if backend.pulses[1] != 0 {
		t.Errorf("motor1 pulses = %d, want 0", backend.pulses[1])
	}
	if rt.StepCount[0] != 100 {
		t.Errorf("StepCount[0] = %d, want 100", rt.StepCount[0])
	}
}

// TestDirectionPolarityXOR exercises spec scenario 2 directly: the same
// step magnitude as a straight move, but a different commanded direction
// bit, must flip the Z direction pin. Direction is never derived from
// the sign of steps; only directions[] (XORed with polarity) decides it.
func TestDirectionPolarityXOR(t *testing.T) {
	rt := NewRuntime()
	p := NewPrep()
	gpio := newFakeGPIO()
	preparer := NewPreparer(1000, [MotorCount]uint8{0, 0}) // zero polarity: no inversion
	loader := NewLoader(gpio, [MotorCount]core.GPIOPin{5, 6})
	pulse := NewPulseGenerator(&fakeBackend{}, nil)

	status, err := preparer.PrepLine(p, [MotorCount]float64{1000, 0}, [MotorCount]uint8{1, 0}, 0.1)
	if status != PrepOK || err != nil {
		t.Fatalf("PrepLine: status=%v err=%v", status, err)
	}
	if _, err := loader.LoadMove(rt, p, pulse.Token()); err != nil {
		t.Fatalf("LoadMove: %v", err)
	}
	if !gpio.levels[5] {
		t.Error("Z direction pin = low, want high for directions=[1,0], polarity=0")
	}

	// Same steps, directions=[0,0] this time: pin must flip back.
	rt2, p2 := NewRuntime(), NewPrep()
	status, err = preparer.PrepLine(p2, [MotorCount]float64{1000, 0}, [MotorCount]uint8{0, 0}, 0.1)
	if status != PrepOK || err != nil {
		t.Fatalf("second PrepLine: status=%v err=%v", status, err)
	}
	if _, err := loader.LoadMove(rt2, p2, pulse.Token()); err != nil {
		t.Fatalf("second LoadMove: %v", err)
	}
	if gpio.levels[5] {
		t.Error("Z direction pin = high, want low for directions=[0,0], polarity=0")
	}
}

// TestMotorPolarityInversion checks that a nonzero polarity mask flips
// the pin level for the same commanded direction bit, matching
// directions[m] ^ motor_polarity[m] in st_prep_line exactly.
func TestMotorPolarityInversion(t *testing.T) {
	rt := NewRuntime()
	p := NewPrep()
	gpio := newFakeGPIO()
	preparer := NewPreparer(1000, [MotorCount]uint8{1, 0}) // Z polarity inverted
	loader := NewLoader(gpio, [MotorCount]core.GPIOPin{5, 6})
	pulse := NewPulseGenerator(&fakeBackend{}, nil)

	status, err := preparer.PrepLine(p, [MotorCount]float64{1000, 0}, [MotorCount]uint8{1, 0}, 0.1)
	if status != PrepOK || err != nil {
		t.Fatalf("PrepLine: status=%v err=%v", status, err)
	}
	if _, err := loader.LoadMove(rt, p, pulse.Token()); err != nil {
		t.Fatalf("LoadMove: %v", err)
	}
	if gpio.levels[5] {
		t.Error("Z direction pin = high, want low: directions=[1,0] XOR polarity=[1,0] = 0")
	}
}

func TestTwoAxisBresenham(t *testing.T) {
	preparer, loader, pulse, rt, p, backend := newPipeline()

	status, _ := preparer.PrepLine(p, [MotorCount]float64{100, 30}, noDirections, 0.1)
	if status != PrepOK {
		t.Fatalf("PrepLine status = %v", status)
	}
	runUntilDrained(t, loader, pulse, rt, p, 1000)

	if backend.pulses[0] != 100 {
		t.Errorf("motor0 pulses = %d, want 100", backend.pulses[0])
	}
	if backend.pulses[1] != 30 {
		t.Errorf("motor1 pulses = %d, want 30", backend.pulses[1])
	}
}

func TestAccumulatorResetOnShortSegment(t *testing.T) {
	preparer, loader, pulse, rt, p, _ := newPipeline()

	// Long first segment, then a much shorter one: should trigger the
	// accumulator-reset heuristic on load.
	status, _ := preparer.PrepLine(p, [MotorCount]float64{100, 0}, noDirections, 1.0) // 1000 ticks
	if status != PrepOK {
		t.Fatalf("PrepLine status = %v", status)
	}
	runUntilDrained(t, loader, pulse, rt, p, 5000)

	status, _ = preparer.PrepLine(p, [MotorCount]float64{1, 0}, noDirections, 0.001) // 1 tick
	if status != PrepOK {
		t.Fatalf("second PrepLine status = %v", status)
	}
	loaded, err := loader.LoadMove(rt, p, pulse.Token())
	if err != nil || !loaded {
		t.Fatalf("second LoadMove: loaded=%v err=%v", loaded, err)
	}
	if rt.Motors[0].Substeps != -int32(rt.DdaTicksTotal) {
		t.Errorf("accumulator not reset: Substeps=%d DdaTicksTotal=%d", rt.Motors[0].Substeps, rt.DdaTicksTotal)
	}
}

func TestNullMove(t *testing.T) {
	preparer, loader, pulse, rt, p, backend := newPipeline()

	status, err := preparer.PrepNull(p, 0.01)
	if status != PrepOK || err != nil {
		t.Fatalf("PrepNull: status=%v err=%v", status, err)
	}

	loaded, err := loader.LoadMove(rt, p, pulse.Token())
	if err != nil || !loaded {
		t.Fatalf("LoadMove: loaded=%v err=%v", loaded, err)
	}
	for i := 0; i < MotorCount; i++ {
		if rt.Motors[i].SubstepIncr != 0 {
			t.Errorf("motor %d SubstepIncr = %d, want 0", i, rt.Motors[i].SubstepIncr)
		}
	}
	ticks := 0
	for ticks < 1000 {
		if pulse.Tick(rt) {
			break
		}
		ticks++
	}
	if backend.pulses[0] != 0 || backend.pulses[1] != 0 {
		t.Errorf("null move produced pulses: %v", backend.pulses)
	}
}

func TestMotionCompleteWhenQueueDrained(t *testing.T) {
	_, loader, pulse, rt, p, _ := newPipeline()

	loaded, err := loader.LoadMove(rt, p, pulse.Token())
	if err != nil {
		t.Fatalf("LoadMove: %v", err)
	}
	if loaded {
		t.Fatalf("expected no segment to load from an untouched Prep buffer")
	}
}

func TestRejectZeroDuration(t *testing.T) {
	preparer, _, _, _, p, _ := newPipeline()

	status, err := preparer.PrepLine(p, [MotorCount]float64{10, 0}, noDirections, 0)
	if status != PrepRejectedZeroDuration {
		t.Errorf("status = %v, want PrepRejectedZeroDuration", status)
	}
	if err == nil {
		t.Error("expected non-nil error for zero duration")
	}
	if p.ExecState() != ExecStateOwnedByExec {
		t.Error("rejected prep must not change ExecState ownership")
	}
}

func TestPrepBufferFullWhileLoaderOwnsIt(t *testing.T) {
	preparer, _, _, _, p, _ := newPipeline()

	status, err := preparer.PrepLine(p, [MotorCount]float64{10, 0}, noDirections, 0.01)
	if status != PrepOK || err != nil {
		t.Fatalf("first PrepLine: status=%v err=%v", status, err)
	}

	status, err = preparer.PrepLine(p, [MotorCount]float64{20, 0}, noDirections, 0.01)
	if status != PrepBufferFull {
		t.Errorf("status = %v, want PrepBufferFull", status)
	}
	if err == nil {
		t.Error("expected non-nil error for a full buffer")
	}
}

func TestVerifyIntegrityDetectsCorruption(t *testing.T) {
	rt := NewRuntime()
	if !rt.VerifyIntegrity() {
		t.Fatal("fresh runtime should verify clean")
	}
	rt.MagicEnd = 0xDEADBEEF
	if rt.VerifyIntegrity() {
		t.Error("corrupted runtime must fail VerifyIntegrity")
	}
}
