package core

// CommandSampler reads the command potentiometer at a fraction of the step
// rate and publishes the speed or torque command.
type CommandSampler struct {
	adc   ADCDriver
	ch    ADCChannelID
	state *ControlState

	countMax uint32
	floor    uint8

	count   uint32
	value   uint8 // last hardware-derived command
	samples uint32
}

// NewCommandSampler creates a sampler converting once every countMax+1 calls
func NewCommandSampler(adc ADCDriver, ch ADCChannelID, state *ControlState, countMax uint32, floor uint8) *CommandSampler {
	return &CommandSampler{
		adc:      adc,
		ch:       ch,
		state:    state,
		countMax: countMax,
		floor:    floor,
		value:    floor,
	}
}

// Update runs as scheduler step 3
func (s *CommandSampler) Update() {
	s.count++
	if s.count > s.countMax {
		s.count = 0
		raw, err := s.adc.ReadRaw(s.ch)
		if err != nil {
			RecordEvent(EvtADCError, uint32(s.ch))
		} else {
			s.value = ScaleCommand(raw, s.floor)
			s.samples++
		}
	}

	// The console value replaces whatever the pot produced this call
	if s.state.OverrideActive() {
		s.state.setCommand(s.state.OverrideCommand())
		return
	}
	s.state.setCommand(s.value)
}

// ScaleCommand maps a 12-bit conversion onto the 8-bit command domain,
// clamped up to floor.
func ScaleCommand(raw ADCValue, floor uint8) uint8 {
	v := uint8((raw & ADCMax) >> 4)
	if v < floor {
		v = floor
	}
	return v
}

// Samples returns how many conversions have been taken
func (s *CommandSampler) Samples() uint32 {
	return s.samples
}

// Phase returns the position inside the decimation window
func (s *CommandSampler) Phase() uint32 {
	return s.count
}
