package core

import "sync/atomic"

// Direction is the desired rotation sense of the motor
type Direction uint8

const (
	Forward Direction = iota
	Reverse
)

func (d Direction) String() string {
	if d == Reverse {
		return "REV"
	}
	return "FWD"
}

// LoopMode selects what the command potentiometer sets
type LoopMode uint8

const (
	LoopTorque LoopMode = iota // current loop
	LoopSpeed                  // speed loop
)

func (m LoopMode) String() string {
	if m == LoopTorque {
		return "torque"
	}
	return "speed"
}

// MarshalText implements encoding.TextMarshaler for the JSON config
func (m LoopMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler for the JSON config
func (m *LoopMode) UnmarshalText(b []byte) error {
	switch string(b) {
	case "torque", "current":
		*m = LoopTorque
	case "speed", "":
		*m = LoopSpeed
	default:
		return ConfigError{"loop", "unknown loop mode " + string(b)}
	}
	return nil
}

// ControlState is the record shared between the PWM interrupt and the
// foreground. Each field lives in its own atomic word. Sub-tasks write through
// the unexported setters; the foreground only reads, plus the operator
// methods that drive the override source and the run/stop flag.
type ControlState struct {
	direction atomic.Uint32
	command   atomic.Uint32
	duty      atomic.Uint32
	feedback  atomic.Uint32
	busRaw    atomic.Uint32
	bemfRaw   atomic.Uint32

	override    atomic.Bool
	overrideDir atomic.Uint32
	overrideCmd atomic.Uint32

	running atomic.Bool
	fault   atomic.Bool

	commandMin uint8
}

// StateSnapshot is a consistent copy of ControlState
type StateSnapshot struct {
	Direction       Direction
	Command         uint8
	Duty            uint8
	Feedback        uint16
	RawBusVoltage   uint16
	RawBackEMF      uint16
	Override        bool
	OverrideDir     Direction
	OverrideCommand uint8
	Running         bool
	Fault           bool
}

// NewControlState returns the power-on state: forward, command at its floor,
// duty at dutyMin, hardware sensing in control, motor stopped.
func NewControlState(commandMin, dutyMin uint8) *ControlState {
	s := &ControlState{commandMin: commandMin}
	s.command.Store(uint32(commandMin))
	s.duty.Store(uint32(dutyMin))
	s.overrideCmd.Store(uint32(commandMin))
	return s
}

func (s *ControlState) Direction() Direction {
	return Direction(s.direction.Load())
}

// Command is the published speed or torque command
func (s *ControlState) Command() uint8 {
	return uint8(s.command.Load())
}

// Duty is the PWM modulation index last written by the control step
func (s *ControlState) Duty() uint8 {
	return uint8(s.duty.Load())
}

// Feedback is the latest regulation sample (speed or current)
func (s *ControlState) Feedback() uint16 {
	return uint16(s.feedback.Load())
}

func (s *ControlState) RawBusVoltage() uint16 {
	return uint16(s.busRaw.Load())
}

func (s *ControlState) RawBackEMF() uint16 {
	return uint16(s.bemfRaw.Load())
}

func (s *ControlState) OverrideActive() bool {
	return s.override.Load()
}

func (s *ControlState) Running() bool {
	return s.running.Load()
}

func (s *ControlState) Fault() bool {
	return s.fault.Load()
}

// OverrideDirection is the direction the console supplies while override is active
func (s *ControlState) OverrideDirection() Direction {
	return Direction(s.overrideDir.Load())
}

// OverrideCommand is the command the console supplies while override is active
func (s *ControlState) OverrideCommand() uint8 {
	return uint8(s.overrideCmd.Load())
}

// Snapshot copies every field inside a short critical section so the
// foreground sees one coherent scheduler state.
func (s *ControlState) Snapshot() StateSnapshot {
	is := disableInterrupts()
	snap := StateSnapshot{
		Direction:       s.Direction(),
		Command:         s.Command(),
		Duty:            s.Duty(),
		Feedback:        s.Feedback(),
		RawBusVoltage:   s.RawBusVoltage(),
		RawBackEMF:      s.RawBackEMF(),
		Override:        s.OverrideActive(),
		OverrideDir:     s.OverrideDirection(),
		OverrideCommand: s.OverrideCommand(),
		Running:         s.Running(),
		Fault:           s.Fault(),
	}
	restoreInterrupts(is)
	return snap
}

// EnableOverride hands direction and command to the console, seeded from the
// live values. The flag is published last so the interrupt never pairs it
// with stale override values.
func (s *ControlState) EnableOverride() {
	if s.override.Load() {
		return
	}
	s.overrideDir.Store(s.direction.Load())
	s.overrideCmd.Store(s.command.Load())
	s.override.Store(true)
	RecordEvent(EvtOverrideOn, s.command.Load())
}

// DisableOverride returns control to hardware sensing
func (s *ControlState) DisableOverride() {
	if s.override.Swap(false) {
		RecordEvent(EvtOverrideOff, 0)
	}
}

// SetOverrideDirection sets the console direction. It reports false, and
// changes nothing, while hardware sensing is in control.
func (s *ControlState) SetOverrideDirection(d Direction) bool {
	if !s.override.Load() {
		return false
	}
	s.overrideDir.Store(uint32(d))
	return true
}

// SetOverrideCommand sets the console command, clamped to [commandMin, 255],
// and returns the stored value.
func (s *ControlState) SetOverrideCommand(v uint8) uint8 {
	if v < s.commandMin {
		v = s.commandMin
	}
	s.overrideCmd.Store(uint32(v))
	return v
}

// Start sets the run flag consumed by the control hook
func (s *ControlState) Start() { s.running.Store(true) }

// Stop clears the run flag and any latched fault
func (s *ControlState) Stop() {
	s.running.Store(false)
	s.fault.Store(false)
}

// Setters below are called from interrupt context only, each by the one
// sub-task that owns the field.

func (s *ControlState) setDirection(d Direction) {
	s.direction.Store(uint32(d))
}

func (s *ControlState) setCommand(v uint8) {
	s.command.Store(uint32(v))
}

func (s *ControlState) setDuty(v uint8) {
	s.duty.Store(uint32(v))
}

func (s *ControlState) setFeedback(v uint16) {
	s.feedback.Store(uint32(v))
}

func (s *ControlState) setBusVoltage(v uint16) {
	s.busRaw.Store(uint32(v))
}

func (s *ControlState) setBackEMF(v uint16) {
	s.bemfRaw.Store(uint32(v))
}

func (s *ControlState) raiseFault() {
	if !s.fault.Swap(true) {
		RecordEvent(EvtFault, 0)
	}
}
