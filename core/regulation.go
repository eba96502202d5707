package core

// The regulation law (PI compensation, back-EMF PLL) is not part of this
// firmware. Steps 4 and 5 call these hooks; a nil hook makes the step a no-op.

// SampleHook captures the quantity the active loop regulates.
// Runs as scheduler step 4 and must not block.
type SampleHook interface {
	Sample(rec *SampleRecorder, mode LoopMode)
}

// ControlHook computes a new duty magnitude from the command and the latest
// sample. Runs as scheduler step 5 and must not block. The returned value is
// clamped to [ComMagMin, ComMagMax] before it reaches the PWM.
type ControlHook interface {
	Control(in ControlInput) uint8
}

// SampleHookFunc adapts a function to SampleHook
type SampleHookFunc func(rec *SampleRecorder, mode LoopMode)

func (f SampleHookFunc) Sample(rec *SampleRecorder, mode LoopMode) {
	f(rec, mode)
}

// ControlHookFunc adapts a function to ControlHook
type ControlHookFunc func(in ControlInput) uint8

func (f ControlHookFunc) Control(in ControlInput) uint8 {
	return f(in)
}

// SampleRecorder is the write access a SampleHook gets to ControlState
type SampleRecorder struct {
	state *ControlState
}

// SetBusVoltage stores the raw DC bus reading
func (r *SampleRecorder) SetBusVoltage(raw uint16) {
	r.state.setBusVoltage(raw)
}

// SetBackEMF stores the raw back-EMF reading
func (r *SampleRecorder) SetBackEMF(raw uint16) {
	r.state.setBackEMF(raw)
}

// SetFeedback stores the regulated quantity (speed or current)
func (r *SampleRecorder) SetFeedback(v uint16) {
	r.state.setFeedback(v)
}

// RaiseFault latches the fault condition until the operator stops the motor
func (r *SampleRecorder) RaiseFault() {
	r.state.raiseFault()
}

// ControlInput is what a ControlHook sees of ControlState
type ControlInput struct {
	Mode      LoopMode
	Command   uint8
	Feedback  uint16
	Direction Direction
	Running   bool
	Fault     bool
	Duty      uint8 // current duty magnitude
}

// ADCSampleHook samples the bus voltage and back-EMF dividers, and the
// current shunt as feedback in torque mode. In speed mode the feedback
// belongs to the back-EMF period measurement, which is left to a
// commutation-aware hook.
type ADCSampleHook struct {
	ADC       ADCDriver
	BusIn     ADCChannelID
	BackEMFIn ADCChannelID
	CurrentIn ADCChannelID
}

// NewADCSampleHook creates a hook for the board channels in pins
func NewADCSampleHook(adc ADCDriver, pins PinConfig) *ADCSampleHook {
	return &ADCSampleHook{
		ADC:       adc,
		BusIn:     pins.BusIn,
		BackEMFIn: pins.BackEMFIn,
		CurrentIn: pins.CurrentIn,
	}
}

// Sample implements SampleHook
func (h *ADCSampleHook) Sample(rec *SampleRecorder, mode LoopMode) {
	if v, ok := h.read(h.BusIn); ok {
		rec.SetBusVoltage(v)
	}
	if v, ok := h.read(h.BackEMFIn); ok {
		rec.SetBackEMF(v)
	}
	if mode == LoopTorque {
		if v, ok := h.read(h.CurrentIn); ok {
			rec.SetFeedback(v)
		}
	}
}

func (h *ADCSampleHook) read(ch ADCChannelID) (uint16, bool) {
	raw, err := h.ADC.ReadRaw(ch)
	if err != nil {
		RecordEvent(EvtADCError, uint32(ch))
		return 0, false
	}
	return uint16(raw & ADCMax), true
}
