package core

import "time"

// Drivers are the peripheral implementations a target provides
type Drivers struct {
	GPIO     GPIODriver
	PWM      PWMDriver
	ADC      ADCDriver
	Alarm    AlarmDriver
	Watchdog WatchdogDriver // optional
}

// Hooks are the regulation collaborators; either may be nil
type Hooks struct {
	Sample  SampleHook
	Control ControlHook
}

// Firmware owns the controller state and the objects both interrupts run.
// Targets call Scheduler.Tick from the PWM wrap interrupt and Backup.Fire
// from the alarm interrupt; the console works against State.
type Firmware struct {
	Config    Config
	State     *ControlState
	Scheduler *LoopScheduler
	Backup    *BackupTimer
	Direction *DirectionFilter
	Blink     *StatusBlinker
	Command   *CommandSampler

	drivers Drivers
}

// New validates cfg and wires the state machines without touching hardware
func New(cfg Config, drv Drivers, hooks Hooks) (*Firmware, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if drv.GPIO == nil || drv.PWM == nil || drv.ADC == nil || drv.Alarm == nil {
		return nil, ConfigError{"drivers", "GPIO, PWM, ADC and alarm drivers are required"}
	}

	state := NewControlState(cfg.SpeedCmdMin, cfg.ComMagMin)
	dir := NewDirectionFilter(drv.GPIO, cfg.Pins.DirSwitch, state,
		cfg.DebounceLow, cfg.DebounceHigh, cfg.DebounceInitial)
	blink := NewStatusBlinker(drv.GPIO, state, cfg.Pins, cfg.BlinkMax)
	cmd := NewCommandSampler(drv.ADC, cfg.Pins.CommandIn, state, cfg.SpeedLoopCountMax, cfg.SpeedCmdMin)

	sched, err := NewLoopScheduler(SchedulerConfig{
		PWM:       drv.PWM,
		IRQPin:    cfg.Pins.Phase[0],
		PhasePin:  cfg.Pins.Phase[0],
		State:     state,
		CountMax:  cfg.PWMCountMax,
		Mode:      cfg.Loop,
		DutyMin:   cfg.ComMagMin,
		DutyMax:   cfg.ComMagMax,
		Watchdog:  drv.Watchdog,
		Direction: dir,
		Blink:     blink,
		Command:   cmd,
		Sample:    hooks.Sample,
		Control:   hooks.Control,
	})
	if err != nil {
		return nil, err
	}

	return &Firmware{
		Config:    cfg,
		State:     state,
		Scheduler: sched,
		Backup:    NewBackupTimer(drv.Alarm, cfg.PWMPeriodUS),
		Direction: dir,
		Blink:     blink,
		Command:   cmd,
		drivers:   drv,
	}, nil
}

// Init performs the one-time peripheral setup: switch input, LEDs, analog
// channels, the phase PWM slice at its initial duty, and the wrap interrupt.
// Call before enabling either interrupt.
func (f *Firmware) Init() error {
	p := f.Config.Pins
	g := f.drivers.GPIO

	if err := g.ConfigureInputPullUp(p.DirSwitch); err != nil {
		return err
	}
	for _, led := range [...]GPIOPin{p.LEDYellow, p.LEDGreen, p.LEDRed} {
		if err := g.ConfigureOutput(led); err != nil {
			return err
		}
	}

	adc := f.drivers.ADC
	if err := adc.Init(); err != nil {
		return err
	}
	for _, ch := range [...]ADCChannelID{p.CommandIn, p.BusIn, p.BackEMFIn, p.CurrentIn} {
		if err := adc.ConfigureChannel(ch); err != nil {
			return err
		}
	}

	pwm := f.drivers.PWM
	err := pwm.ConfigureSlice(p.Phase[0], SliceConfig{
		PeriodNS:  uint64(f.Config.PWMPeriodUS) * 1000,
		Prescaler: f.Config.PWMPrescaler,
		Wrap:      uint32(f.Config.ComMagMax),
	})
	if err != nil {
		return err
	}
	if err := pwm.SetDuty(p.Phase[0], PWMValue(f.State.Duty())); err != nil {
		return err
	}
	pwm.ClearIRQ(p.Phase[0])
	return pwm.EnableWrapIRQ(p.Phase[0])
}

// TestPhaseOutputs pulses each of the six phase pins in turn as plain GPIO.
// Run before Init, which hands phase 1H back to the PWM slice.
func (f *Firmware) TestPhaseOutputs(sleep func(time.Duration)) error {
	g := f.drivers.GPIO
	for _, pin := range f.Config.Pins.Phase {
		if err := g.ConfigureOutput(GPIOPin(pin)); err != nil {
			return err
		}
	}
	for _, pin := range f.Config.Pins.Phase {
		if err := g.SetPin(GPIOPin(pin), true); err != nil {
			return err
		}
		sleep(250 * time.Millisecond)
		if err := g.SetPin(GPIOPin(pin), false); err != nil {
			return err
		}
		sleep(250 * time.Millisecond)
	}
	return nil
}
