//go:build rp2040

// Command rp2040 is the bring-up entry point for the RP2040 target: it
// wires a PIO-backed core.StepPulseBackend and the board's GPIO driver
// into a controller.MotorController, then runs the three priority
// contexts the original AVR firmware split across interrupt levels as
// three goroutines synchronized through dda.Core's handshake. Stripped
// down from the teacher's rp2040/main.go, which spent most of its bulk
// on the Klipper host-protocol/USB bring-up this module has no use for
// (see spec.md's Non-goals on Host I/O).
package main

import (
	"machine"
	"time"

	"steppulse/config"
	"steppulse/controller"
	"steppulse/core"
	"steppulse/dda"
	"steppulse/kinematics"
	"steppulse/targets/pio"
)

// Pin assignments for the two motors this firmware drives.
const (
	zStepPin core.GPIOPin = 2
	zDirPin  core.GPIOPin = 3
	rStepPin core.GPIOPin = 4
	rDirPin  core.GPIOPin = 5
)

func main() {
	if err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0}); err != nil {
		return
	}

	InitClock()
	core.TimerInit()

	gpioDriver := NewRPGPIODriver()
	core.SetGPIODriver(gpioDriver)

	backend := pio.NewBackend()
	if err := backend.Init(kinematics.ZAxis, zStepPin); err != nil {
		panic(err)
	}
	if err := backend.Init(kinematics.RAxis, rStepPin); err != nil {
		panic(err)
	}

	cfg := config.Default()

	mc, err := controller.New(cfg, backend, gpioDriver, [dda.MotorCount]core.GPIOPin{zDirPin, rDirPin}, func(reason string) {
		core.DebugPrintln("[FAULT] " + reason)
	})
	if err != nil {
		panic(err)
	}

	pulseTimer := newHWTimer()
	pulseTimer.Enable(uint32(1e6/cfg.FDda), func() { mc.Tick() })

	vibration := NewVibrationMonitor(cfg.VibrationTripThreshold)

	go func() {
		for {
			mc.Poll()
			if vibration.Tripped() {
				core.DebugPrintln("[FAULT] vibration threshold exceeded, estopping")
				mc.EStop()
			}
			time.Sleep(100 * time.Microsecond)
		}
	}()

	demoLoop(mc)
}

// demoLoop drives a small fixed motion sequence so the firmware does
// something observable without a host link; real deployments replace
// this with whatever upstream planner submits moves via mc.SubmitMove.
func demoLoop(mc *controller.MotorController) {
	moves := []struct {
		travel  [kinematics.AxisCount]float64
		seconds float64
	}{
		{[kinematics.AxisCount]float64{10, 0}, 0.5},
		{[kinematics.AxisCount]float64{0, 5}, 0.25},
		{[kinematics.AxisCount]float64{-10, -5}, 0.5},
	}

	for {
		for _, m := range moves {
			for {
				status, _ := mc.SubmitMove(m.travel, m.seconds)
				if status == dda.PrepOK {
					break
				}
				time.Sleep(time.Millisecond)
			}
			for !mc.MotionComplete {
				time.Sleep(time.Millisecond)
			}
		}
	}
}
