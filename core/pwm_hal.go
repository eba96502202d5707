package core

// PWMPin identifies a hardware pin capable of PWM output
type PWMPin uint32

// PWMValue is the duty cycle value (0 to the configured wrap)
type PWMValue uint32

// SliceConfig describes the counter setup of one PWM slice.
type SliceConfig struct {
	PeriodNS  uint64 // PWM period in nanoseconds
	Prescaler uint32 // Clock divider applied before the counter
	Wrap      uint32 // Counter reload value; duty values are relative to it
}

// PWMDriver is the abstract PWM interface that core code uses.
// Platform-specific implementations handle actual hardware control.
type PWMDriver interface {
	// ConfigureSlice configures the slice that drives pin and starts it running
	ConfigureSlice(pin PWMPin, cfg SliceConfig) error

	// SetDuty sets the on-time of pin, 0 (fully off) to cfg.Wrap (fully on)
	SetDuty(pin PWMPin, value PWMValue) error

	// EnableWrapIRQ routes the wrap event of pin's slice to the PWM interrupt
	EnableWrapIRQ(pin PWMPin) error

	// ClearIRQ acknowledges the wrap interrupt of pin's slice.
	// Must be safe to call from interrupt context.
	ClearIRQ(pin PWMPin)
}
