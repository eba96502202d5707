package core

// BlinkPhase is the state of the status LED machine
type BlinkPhase uint8

const (
	BlinkIdle BlinkPhase = iota // waiting for the counter to restart
	BlinkOn                     // indicator asserted
	BlinkHold                   // indicator cleared until wraparound
)

func (p BlinkPhase) String() string {
	switch p {
	case BlinkOn:
		return "ON"
	case BlinkHold:
		return "HOLD"
	default:
		return "IDLE"
	}
}

// Condition classes shown by the status LEDs
type Condition uint8

const (
	ConditionNormal   Condition = iota // green: hardware sensing in control
	ConditionOverride                  // yellow: console in control
	ConditionFault                     // red: fault latched, motor stopped
)

// StatusBlinker encodes the operating condition as a blink on one of three
// LEDs, paced by its own invocation counter instead of a timer.
//
// Blink frequency = interrupt rate / StepCount / blinkMax.
type StatusBlinker struct {
	gpio  GPIODriver
	state *ControlState

	yellow, green, red GPIOPin

	max     uint32
	counter uint32
	phase   BlinkPhase
	shown   Condition
}

// NewStatusBlinker creates the blink machine for the given LED pins
func NewStatusBlinker(gpio GPIODriver, state *ControlState, pins PinConfig, blinkMax uint32) *StatusBlinker {
	return &StatusBlinker{
		gpio:   gpio,
		state:  state,
		yellow: pins.LEDYellow,
		green:  pins.LEDGreen,
		red:    pins.LEDRed,
		max:    blinkMax,
	}
}

// Update advances the machine by one tick. Runs as scheduler step 2.
func (b *StatusBlinker) Update() {
	b.counter++

	if b.counter == 1 && b.phase == BlinkIdle {
		b.shown = b.condition()
		b.set(b.red, b.shown == ConditionFault)
		b.set(b.yellow, b.shown == ConditionOverride)
		b.set(b.green, b.shown == ConditionNormal)
		b.phase = BlinkOn
	}
	if b.counter == b.max/2 && b.phase == BlinkOn {
		b.set(b.yellow, false)
		b.set(b.red, false)
		b.set(b.green, false)
		b.phase = BlinkHold
	}
	if b.counter > b.max {
		b.counter = 0
		b.phase = BlinkIdle
	}
}

func (b *StatusBlinker) condition() Condition {
	switch {
	case b.state.Fault():
		return ConditionFault
	case b.state.OverrideActive():
		return ConditionOverride
	default:
		return ConditionNormal
	}
}

func (b *StatusBlinker) set(pin GPIOPin, on bool) {
	if err := b.gpio.SetPin(pin, on); err != nil {
		RecordEvent(EvtGPIOError, uint32(pin))
	}
}

// Phase returns the current machine state
func (b *StatusBlinker) Phase() BlinkPhase {
	return b.phase
}

// Counter returns the blink tick counter
func (b *StatusBlinker) Counter() uint32 {
	return b.counter
}

// Shown returns the condition class latched at the last ON transition
func (b *StatusBlinker) Shown() Condition {
	return b.shown
}
