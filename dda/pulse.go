package dda

import "steppulse/core"

// PulseGenerator drives the DDA tick loop: on every tick it advances each
// motor's phase accumulator and fires a step pulse when it overflows,
// mirroring ISR(DDA_TIMER_ISR_vect) in the AVR source. Tick takes no
// PulseToken; the generator holds the token and hands it out through
// Token for Loader.LoadMove, the other code that writes a Runtime.
type PulseGenerator struct {
	backend core.StepPulseBackend
	token   PulseToken

	// onDrained is invoked when Tick finds DdaTicksDowncount has reached
	// zero; it should trigger a load request in the next-priority
	// context. Left nil in tests that drive loading manually.
	onDrained func()
}

// NewPulseGenerator mints the single PulseToken for a Runtime's lifetime
// and binds the generator to the given step-pulse backend.
func NewPulseGenerator(backend core.StepPulseBackend, onDrained func()) *PulseGenerator {
	return &PulseGenerator{backend: backend, onDrained: onDrained, token: PulseToken{}}
}

// Token returns this generator's capability token, needed by any other
// pipeline stage (currently just Loader.LoadMove) that must mutate the
// same Runtime.
func (g *PulseGenerator) Token() PulseToken { return g.token }

// Tick advances one DDA tick. Returns true if the segment drained on this
// tick (DdaTicksDowncount reached zero), in which case the caller must
// arrange for Loader.LoadMove to run before the next Tick, or the
// generator will keep ticking a drained, zero-increment segment
// (equivalent to an idle/motion-complete state, not an error).
func (g *PulseGenerator) Tick(rt *Runtime) bool {
	if !rt.VerifyIntegrity() {
		core.RecordTiming(core.EvtCorruption, 0xFF, core.GetTime(), 0, 0)
		return false
	}
	if rt.DdaTicksDowncount <= 0 {
		return false
	}

	for i := 0; i < MotorCount; i++ {
		m := &rt.Motors[i]
		if m.SubstepIncr == 0 {
			continue
		}
		m.Substeps += m.SubstepIncr
		if m.Substeps > 0 {
			if g.backend != nil {
				g.backend.Pulse(i)
			}
			rt.StepCount[i]++
			if m.StepsToGo > 0 {
				m.StepsToGo--
			}
			m.Substeps -= int32(rt.DdaTicksTotal)
		}
	}

	rt.DdaTicksDowncount--
	if rt.DdaTicksDowncount <= 0 {
		core.RecordTiming(core.EvtMotionComplete, 0xFF, core.GetTime(), rt.DdaTicksTotal, 0)
		if g.onDrained != nil {
			g.onDrained()
		}
		return true
	}
	return false
}
