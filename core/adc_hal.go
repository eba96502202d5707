package core

// ADCChannelID identifies a logical ADC channel.
type ADCChannelID uint8

// ADCValue is the raw ADC reading as seen by the rest of the firmware.
// Convention here: 12-bit value (0-4095) in the low bits.
type ADCValue uint16

// ADCMax is the largest value a 12-bit conversion can produce.
const ADCMax = 0x0FFF

// ADCDriver is the abstract ADC interface that core code uses.
type ADCDriver interface {
	// Init powers up and configures the ADC peripheral.
	Init() error

	// ConfigureChannel prepares a channel for analog input.
	// For pin-muxed channels, this should set pin to analog mode.
	ConfigureChannel(ch ADCChannelID) error

	// ReadRaw selects the channel and performs a one-shot conversion.
	ReadRaw(ch ADCChannelID) (ADCValue, error)
}
