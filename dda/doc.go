// Package dda implements the step-pulse generation core: Preparer stages
// segments, Loader arms them into the live Runtime, and PulseGenerator
// ticks the phase accumulators that emit step pulses. See Core for
// the assembled pipeline and the three priority-level entry points
// (RequestExecMove, RunLoadRequests, Tick) that external callers use.
package dda
