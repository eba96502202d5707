package core

import "sync/atomic"

// Step selects the sub-task serviced by one PWM interrupt
type Step uint8

// Steps in rotation order, highest priority first
const (
	StepWatchdog  Step = iota // refresh the watchdog
	StepDirection             // direction switch filter
	StepBlink                 // status LEDs
	StepCommand               // command potentiometer
	StepSample                // regulation sampling hook
	StepControl               // regulation control hook, duty update
	StepCount     = int(iota)
)

func (s Step) String() string {
	switch s {
	case StepWatchdog:
		return "watchdog"
	case StepDirection:
		return "direction"
	case StepBlink:
		return "blink"
	case StepCommand:
		return "command"
	case StepSample:
		return "sample"
	case StepControl:
		return "control"
	default:
		return "step" + itoa(int(s))
	}
}

// Next returns the step that follows s in the rotation
func (s Step) Next() Step {
	return Step((int(s) + 1) % StepCount)
}

// LoopScheduler is the PWM-cycle interrupt body. Every Tick runs exactly one
// sub-task, so each sub-task is serviced at interrupt rate / StepCount.
//
// Sub-tasks must be non-blocking and finish well inside one PWM period.
// Nothing here enforces that.
type LoopScheduler struct {
	pwm    PWMDriver
	irqPin PWMPin
	state  *ControlState

	countMax uint32
	count    uint32 // pwm_cycle_count
	step     Step   // step_index

	table [StepCount]func()

	watchdog WatchdogDriver
	sample   SampleHook
	control  ControlHook
	recorder SampleRecorder
	mode     LoopMode

	dutyMin, dutyMax uint8
	phasePin         PWMPin

	ticks   atomic.Uint32
	resyncs atomic.Uint32
	runs    [StepCount]atomic.Uint32
}

// SchedulerConfig gathers what LoopScheduler needs besides its sub-tasks
type SchedulerConfig struct {
	PWM       PWMDriver
	IRQPin    PWMPin // pin whose slice raises the wrap interrupt
	PhasePin  PWMPin // pin the duty magnitude is written to
	State     *ControlState
	CountMax  uint32
	Mode      LoopMode
	DutyMin   uint8
	DutyMax   uint8
	Watchdog  WatchdogDriver
	Direction *DirectionFilter
	Blink     *StatusBlinker
	Command   *CommandSampler
	Sample    SampleHook
	Control   ControlHook
}

// NewLoopScheduler builds the dispatch table. CountMax must be a positive
// multiple of StepCount so the cycle-boundary reset lands on step 0.
func NewLoopScheduler(cfg SchedulerConfig) (*LoopScheduler, error) {
	if cfg.CountMax == 0 || cfg.CountMax%uint32(StepCount) != 0 {
		return nil, ConfigError{"pwm_count_max", "must be a positive multiple of " + itoa(StepCount)}
	}
	if cfg.PWM == nil || cfg.State == nil {
		return nil, ConfigError{"scheduler", "PWM driver and state are required"}
	}
	if cfg.Direction == nil || cfg.Blink == nil || cfg.Command == nil {
		return nil, ConfigError{"scheduler", "direction, blink and command sub-tasks are required"}
	}

	s := &LoopScheduler{
		pwm:      cfg.PWM,
		irqPin:   cfg.IRQPin,
		state:    cfg.State,
		countMax: cfg.CountMax,
		// One short of the boundary: the first interrupt opens a cycle
		count:    cfg.CountMax - 1,
		watchdog: cfg.Watchdog,
		sample:   cfg.Sample,
		control:  cfg.Control,
		recorder: SampleRecorder{state: cfg.State},
		mode:     cfg.Mode,
		dutyMin:  cfg.DutyMin,
		dutyMax:  cfg.DutyMax,
		phasePin: cfg.PhasePin,
	}
	s.table = [StepCount]func(){
		StepWatchdog:  s.refreshWatchdog,
		StepDirection: cfg.Direction.Update,
		StepBlink:     cfg.Blink.Update,
		StepCommand:   cfg.Command.Update,
		StepSample:    s.runSample,
		StepControl:   s.runControl,
	}
	return s, nil
}

// Tick is the PWM wrap interrupt handler
func (s *LoopScheduler) Tick() {
	// Acknowledge first so a wrap during the sub-task is not lost
	s.pwm.ClearIRQ(s.irqPin)
	s.ticks.Add(1)

	s.count++
	if s.count >= s.countMax {
		s.count = 0
		if s.step != StepWatchdog {
			// The rotation was out of phase with the cycle
			RecordEvent(EvtResync, uint32(s.step))
		}
		s.step = StepWatchdog
		s.resyncs.Add(1)
	}

	step := s.step
	s.table[step]()
	s.runs[step].Add(1)
	s.step = step.Next()
}

func (s *LoopScheduler) refreshWatchdog() {
	if s.watchdog != nil {
		s.watchdog.Update()
	}
}

func (s *LoopScheduler) runSample() {
	if s.sample != nil {
		s.sample.Sample(&s.recorder, s.mode)
	}
}

func (s *LoopScheduler) runControl() {
	if s.control == nil {
		return
	}
	st := s.state
	duty := s.control.Control(ControlInput{
		Mode:      s.mode,
		Command:   st.Command(),
		Feedback:  st.Feedback(),
		Direction: st.Direction(),
		Running:   st.Running(),
		Fault:     st.Fault(),
		Duty:      st.Duty(),
	})
	if duty < s.dutyMin {
		duty = s.dutyMin
	}
	if duty > s.dutyMax {
		duty = s.dutyMax
	}
	if duty == st.Duty() {
		return
	}
	// Publish only what the hardware accepted
	if err := s.pwm.SetDuty(s.phasePin, PWMValue(duty)); err != nil {
		RecordEvent(EvtPWMError, uint32(s.phasePin))
		return
	}
	st.setDuty(duty)
	RecordEvent(EvtDuty, uint32(duty))
}

// Step returns the sub-task the next Tick will run
func (s *LoopScheduler) Step() Step {
	return s.step
}

// CycleCount returns pwm_cycle_count
func (s *LoopScheduler) CycleCount() uint32 {
	return s.count
}

// Ticks returns the number of interrupts serviced
func (s *LoopScheduler) Ticks() uint32 {
	return s.ticks.Load()
}

// Resyncs returns how many times the cycle counter wrapped
func (s *LoopScheduler) Resyncs() uint32 {
	return s.resyncs.Load()
}

// Runs returns how many times step has executed
func (s *LoopScheduler) Runs(step Step) uint32 {
	if int(step) >= StepCount {
		return 0
	}
	return s.runs[step].Load()
}

// Mode returns the loop mode passed to the regulation hooks
func (s *LoopScheduler) Mode() LoopMode {
	return s.mode
}
