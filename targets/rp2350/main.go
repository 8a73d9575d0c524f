//go:build rp2350

// Command rp2350 is the bring-up entry point for the RP2350 target.
// Same controller wiring as targets/rp2040/main.go, except that it brings
// up the debug UART, has no vibration monitor, and is backed by
// a bit-banged GPIOBackend instead of the PIO one: this module's PIO
// program (targets/pio) is gated to rp2040 only, matching the teacher's
// own per-target choice of stepper backend (rp2350's original firmware
// used GPIO bit-banging too, see stepper_gpio.go).
package main

import (
	"machine"
	"time"

	"steppulse/config"
	"steppulse/controller"
	"steppulse/core"
	"steppulse/dda"
	"steppulse/kinematics"
)

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

	InitDebugUART()

	backend := NewGPIOBackend()
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

	go func() {
		for {
			mc.Poll()
			time.Sleep(100 * time.Microsecond)
		}
	}()

	demoLoop(mc)
}

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
