package core

// DirectionFilter turns the raw direction switch into a stable Direction
// with a leaky-bucket counter and schmitt-trigger thresholds.
//
// A high reading (switch open against the pull-up) fills the bucket toward
// Reverse, a low reading drains it toward Forward. The counter saturates at
// the threshold it crossed, so a switch held in one position for
// high-low+1 readings always settles, and bounce inside the band cannot
// flip the output.
type DirectionFilter struct {
	gpio  GPIODriver
	pin   GPIOPin
	state *ControlState

	low, high uint8
	count     uint8
	level     bool
	output    Direction
}

// NewDirectionFilter creates a filter reading pin, starting at initial
func NewDirectionFilter(gpio GPIODriver, pin GPIOPin, state *ControlState, low, high, initial uint8) *DirectionFilter {
	return &DirectionFilter{
		gpio:  gpio,
		pin:   pin,
		state: state,
		low:   low,
		high:  high,
		count: initial,
	}
}

// Update reads the switch once and publishes the direction.
// Runs as scheduler step 1.
func (f *DirectionFilter) Update() {
	level, err := f.gpio.GetPin(f.pin)
	if err != nil {
		RecordEvent(EvtGPIOError, uint32(f.pin))
	} else {
		f.level = level
		f.feed(level)
	}

	// Override wins downstream, the filter keeps tracking the switch
	if f.state.OverrideActive() {
		f.state.setDirection(f.state.OverrideDirection())
	} else {
		f.state.setDirection(f.output)
	}
}

func (f *DirectionFilter) feed(level bool) {
	if level {
		if f.count < 255 {
			f.count++
		}
	} else if f.count > 0 {
		f.count--
	}

	if f.count <= f.low {
		f.output = Forward
		f.count = f.low
	}
	if f.count >= f.high {
		f.output = Reverse
		f.count = f.high
	}
}

// Output is the filtered switch direction, ignoring any override
func (f *DirectionFilter) Output() Direction {
	return f.output
}

// Count is the current hysteresis counter
func (f *DirectionFilter) Count() uint8 {
	return f.count
}

// Level is the last raw switch reading
func (f *DirectionFilter) Level() bool {
	return f.level
}
