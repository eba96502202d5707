//go:build rp2040

package main

import (
	"device/rp"
	"errors"
	"machine"

	"picobldc/core"
)

var (
	errPinNotConfigured = errors.New("pin not configured")
	errADCChannel       = errors.New("unsupported ADC channel")
	errADCTimeout       = errors.New("ADC conversion timeout")
)

// readyPolls bounds the busy-wait for one conversion (about 2us at 48MHz ADC clock)
const readyPolls = 1000

// RPADCDriver implements core.ADCDriver with direct register access, so a
// conversion is one select, one start and one result read. The machine
// package is only used to route the pins to the ADC.
type RPADCDriver struct {
	configured [4]bool
}

// NewRPADCDriver constructs the driver but does not Init() it yet
func NewRPADCDriver() *RPADCDriver {
	return &RPADCDriver{}
}

func (d *RPADCDriver) Init() error {
	machine.InitADC()
	return nil
}

// ConfigureChannel routes the GPIO behind external channel 0-3 to the ADC
func (d *RPADCDriver) ConfigureChannel(ch core.ADCChannelID) error {
	var adc machine.ADC
	switch ch {
	case 0:
		adc = machine.ADC{Pin: machine.ADC0}
	case 1:
		adc = machine.ADC{Pin: machine.ADC1}
	case 2:
		adc = machine.ADC{Pin: machine.ADC2}
	case 3:
		adc = machine.ADC{Pin: machine.ADC3}
	default:
		return errADCChannel
	}

	if err := adc.Configure(machine.ADCConfig{}); err != nil {
		return err
	}
	d.configured[ch] = true
	return nil
}

// ReadRaw selects ch and returns one 12-bit conversion (0-4095).
// Called from the PWM interrupt, so it never allocates.
func (d *RPADCDriver) ReadRaw(ch core.ADCChannelID) (core.ADCValue, error) {
	if int(ch) >= len(d.configured) || !d.configured[ch] {
		return 0, errADCChannel
	}

	rp.ADC.CS.ReplaceBits(
		uint32(ch)<<rp.ADC_CS_AINSEL_Pos,
		rp.ADC_CS_AINSEL_Msk,
		0,
	)
	rp.ADC.CS.SetBits(rp.ADC_CS_START_ONCE)

	for i := 0; !rp.ADC.CS.HasBits(rp.ADC_CS_READY); i++ {
		if i == readyPolls {
			return 0, errADCTimeout
		}
	}
	return core.ADCValue(rp.ADC.RESULT.Get()) & core.ADCMax, nil
}
