//go:build rp2040

package main

import (
	"device/rp"
	_ "embed"
	"machine"
	"runtime/interrupt"
	"time"

	"picobldc/config"
	"picobldc/console"
	"picobldc/core"
)

//go:embed bldc.json
var boardConfig []byte

// NVIC priorities, lower value wins. The backup alarm must never wait on
// the scheduler.
const (
	alarmPriority = 0x40
	pwmPriority   = 0x80

	watchdogTimeoutMS = 100
)

var fw *core.Firmware

func main() {
	// Disable watchdog on boot to clear any previous state
	_ = machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0})

	port := newConsolePort()
	time.Sleep(time.Second) // let the host open the CDC port
	say(port, "Welcome to PicoBLDC\n")

	cfg, err := config.LoadConfig(boardConfig)
	if err != nil {
		halt(port, "config: "+err.Error())
	}
	if cfg.Debug {
		core.SetDebugWriter(port.debugWriter)
		core.SetDebugEnabled(true)
	}

	drv := core.Drivers{
		GPIO:     NewRPGPIODriver(),
		PWM:      NewRP2040PWMDriver(),
		ADC:      NewRPADCDriver(),
		Alarm:    RPAlarmDriver{},
		Watchdog: RPWatchdog{},
	}
	hooks := core.Hooks{
		Sample: core.NewADCSampleHook(drv.ADC, cfg.Pins),
	}
	fw, err = core.New(*cfg, drv, hooks)
	if err != nil {
		halt(port, "firmware: "+err.Error())
	}

	if cfg.Debug {
		core.DebugPrintln("phase output self-test")
		if err := fw.TestPhaseOutputs(time.Sleep); err != nil {
			core.DebugPrintln("self-test: " + err.Error())
		}
	}
	if err := fw.Init(); err != nil {
		halt(port, "init: "+err.Error())
	}

	var monitor console.BusMonitor
	if cfg.BusMonitor {
		if m, err := newBusMonitor(cfg.Pins); err != nil {
			say(port, "bus monitor: "+err.Error()+"\n")
		} else {
			monitor = m
		}
	}

	// Start the watchdog before the scheduler that refreshes it
	_ = machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: watchdogTimeoutMS})
	_ = machine.Watchdog.Start()

	alarm := interrupt.New(rp.IRQ_TIMER_IRQ_1, func(interrupt.Interrupt) {
		fw.Backup.Fire()
	})
	alarm.SetPriority(alarmPriority)
	alarm.Enable()
	fw.Backup.Start()

	wrap := interrupt.New(rp.IRQ_PWM_IRQ_WRAP, func(interrupt.Interrupt) {
		fw.Scheduler.Tick()
	})
	wrap.SetPriority(pwmPriority)
	wrap.Enable()

	core.DebugPrintln("scheduler running, " + core.Utoa(cfg.PWMPeriodUS) + "us period")

	// The console only returns on EOF, which the CDC port never reports
	for {
		_ = console.New(fw.State, port, monitor).Run()
	}
}

func say(port *consolePort, s string) {
	_, _ = port.Write([]byte(s))
}

// halt reports a fatal setup error forever; the motor is never driven
func halt(port *consolePort, msg string) {
	for {
		say(port, "\r\nFATAL "+msg)
		time.Sleep(2 * time.Second)
	}
}
