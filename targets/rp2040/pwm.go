//go:build rp2040

package main

import (
	"device/rp"
	"errors"
	"machine"
	"runtime/volatile"
	"unsafe"

	"picobldc/core"
)

var errPWMNotConfigured = errors.New("PWM slice not configured")

// pwmPeripheral is an interface for PWM hardware peripherals
// This abstracts over TinyGo's unexported *pwmGroup type
type pwmPeripheral interface {
	Configure(config machine.PWMConfig) error
	Channel(pin machine.Pin) (uint8, error)
	Set(channel uint8, value uint32)
}

// sliceRegs is one slice's register block; the eight blocks are contiguous
type sliceRegs struct {
	CSR volatile.Register32
	DIV volatile.Register32
	CTR volatile.Register32
	CC  volatile.Register32
	TOP volatile.Register32
}

const sliceRegsSize = 0x14

// RP2040PWMDriver implements core.PWMDriver on the RP2040's eight slices.
// GPIO N belongs to slice (N>>1)&7, channel A for even N and B for odd.
type RP2040PWMDriver struct {
	peripherals [8]pwmPeripheral
	channels    map[core.PWMPin]uint8
}

// NewRP2040PWMDriver creates a new RP2040 PWM driver
func NewRP2040PWMDriver() *RP2040PWMDriver {
	return &RP2040PWMDriver{
		channels: make(map[core.PWMPin]uint8),
	}
}

func sliceOf(pin core.PWMPin) uint8 {
	return uint8((pin >> 1) & 0x7)
}

func regsOf(slice uint8) *sliceRegs {
	base := uintptr(unsafe.Pointer(&rp.PWM.CH0_CSR))
	return (*sliceRegs)(unsafe.Pointer(base + uintptr(slice)*sliceRegsSize))
}

// ConfigureSlice routes pin to its slice and sets the counter up for the
// six-step drive: integer clock divider cfg.Prescaler, wrap at cfg.Wrap.
// TinyGo's Configure does the pin muxing and enables the slice; the divider
// and TOP are then written directly because Configure picks its own.
func (d *RP2040PWMDriver) ConfigureSlice(pin core.PWMPin, cfg core.SliceConfig) error {
	slice := sliceOf(pin)
	pwm := d.peripherals[slice]
	if pwm == nil {
		pwm = getPWMPeripheral(slice)
		d.peripherals[slice] = pwm
	}

	if err := pwm.Configure(machine.PWMConfig{Period: cfg.PeriodNS}); err != nil {
		return err
	}
	channel, err := pwm.Channel(machine.Pin(pin))
	if err != nil {
		return err
	}
	d.channels[pin] = channel

	if cfg.Prescaler != 0 {
		regs := regsOf(slice)
		regs.DIV.Set(cfg.Prescaler << rp.PWM_CH0_DIV_INT_Pos)
		regs.TOP.Set(cfg.Wrap)
	}
	return nil
}

// SetDuty writes the compare level; with TOP equal to the wrap the value is
// used as-is. Safe from interrupt context.
func (d *RP2040PWMDriver) SetDuty(pin core.PWMPin, value core.PWMValue) error {
	channel, exists := d.channels[pin]
	if !exists {
		return errPWMNotConfigured
	}
	d.peripherals[sliceOf(pin)].Set(channel, uint32(value))
	return nil
}

// EnableWrapIRQ unmasks the wrap interrupt of pin's slice. The NVIC side is
// registered with interrupt.New in main.
func (d *RP2040PWMDriver) EnableWrapIRQ(pin core.PWMPin) error {
	if _, exists := d.channels[pin]; !exists {
		return errPWMNotConfigured
	}
	rp.PWM.INTE.SetBits(1 << sliceOf(pin))
	return nil
}

// ClearIRQ acknowledges the wrap flag (write one to clear)
func (d *RP2040PWMDriver) ClearIRQ(pin core.PWMPin) {
	rp.PWM.INTR.Set(1 << sliceOf(pin))
}

// getPWMPeripheral returns the PWM peripheral for a given slice number
func getPWMPeripheral(sliceNum uint8) pwmPeripheral {
	switch sliceNum {
	case 0:
		return machine.PWM0
	case 1:
		return machine.PWM1
	case 2:
		return machine.PWM2
	case 3:
		return machine.PWM3
	case 4:
		return machine.PWM4
	case 5:
		return machine.PWM5
	case 6:
		return machine.PWM6
	default:
		return machine.PWM7
	}
}
