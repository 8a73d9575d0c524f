// Command sim drives the step-pulse core end to end on a plain Linux
// host, with no hardware: a consoleBackend counts pulses instead of driving
// pins, and targets/simhost's timerfd-backed core.IntervalTimer supplies
// the DDA tick source. Useful for smoke-testing the pipeline's timing
// and for demoing it without a board.
package main

import (
	"fmt"
	"os"
	"time"

	"steppulse/config"
	"steppulse/controller"
	"steppulse/core"
	"steppulse/dda"
	"steppulse/kinematics"
	"steppulse/planner"
	"steppulse/targets/simhost"
)

// consoleBackend keeps a running pulse count per motor, standing in for
// a real core.StepPulseBackend; main prints the totals at the end.
type consoleBackend struct {
	pulses [dda.MotorCount]uint64
}

func (b *consoleBackend) Init(motor int, pin core.GPIOPin) error { return nil }
func (b *consoleBackend) Pulse(motor int)                        { b.pulses[motor]++ }
func (b *consoleBackend) GetName() string                        { return "console" }

func main() {
	cfg := config.Default()
	backend := &consoleBackend{}

	faulted := false
	mc, err := controller.New(cfg, backend, nil, [dda.MotorCount]core.GPIOPin{0, 1}, func(reason string) {
		fmt.Fprintln(os.Stderr, "fault:", reason)
		faulted = true
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "controller.New:", err)
		os.Exit(1)
	}

	pulseTimer, err := simhost.NewTimer()
	if err != nil {
		fmt.Fprintln(os.Stderr, "simhost.NewTimer:", err)
		os.Exit(1)
	}
	periodNs := uint32(1e9 / cfg.FDda)
	pulseTimer.Enable(periodNs, func() { mc.Tick() })
	defer pulseTimer.Disable()

	q := &planner.Queue{}
	q.Enqueue(planner.Move{Travel: [kinematics.AxisCount]float64{20, 0}, Seconds: 0.5})
	q.Enqueue(planner.Move{Travel: [kinematics.AxisCount]float64{0, 10}, Seconds: 0.25})
	q.Enqueue(planner.Move{Travel: [kinematics.AxisCount]float64{-20, -10}, Seconds: 0.5})

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		mc.Poll()
		if faulted {
			os.Exit(1)
		}
		if _, err := q.Pump(mc); err != nil {
			fmt.Fprintln(os.Stderr, "pump:", err)
			os.Exit(1)
		}
		if q.Len() == 0 && mc.MotionComplete && !mc.IsBusy() {
			break
		}
		time.Sleep(time.Millisecond)
	}

	fmt.Printf("Z steps: %d, R steps: %d\n", backend.pulses[kinematics.ZAxis], backend.pulses[kinematics.RAxis])
}
