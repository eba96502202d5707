//go:build rp2040

package main

import (
	"errors"
	"machine"

	"picobldc/core"

	"tinygo.org/x/drivers/ina260"
)

var (
	errMonitorAbsent = errors.New("INA260 not responding")
	errI2CPins       = errors.New("i2c_sda/i2c_scl are not an SDA/SCL pair of one I2C block")
)

// busMonitor reads the motor supply through an INA260 on the
// configured SDA/SCL pins.
type busMonitor struct {
	dev ina260.Device
}

// i2cFor returns the I2C block muxed onto sda and scl. On the RP2040 the
// function cycles every four pins: SDA0 SCL0 SDA1 SCL1.
func i2cFor(sda, scl core.GPIOPin) (*machine.I2C, error) {
	if sda > 29 || scl > 29 || sda%2 != 0 || scl%4 != sda%4+1 {
		return nil, errI2CPins
	}
	if sda%4 == 0 {
		return machine.I2C0, nil
	}
	return machine.I2C1, nil
}

// newBusMonitor configures the bus and the sensor. It fails if nothing
// answers at the INA260 address.
func newBusMonitor(pins core.PinConfig) (*busMonitor, error) {
	bus, err := i2cFor(pins.I2CSDA, pins.I2CSCL)
	if err != nil {
		return nil, err
	}
	err = bus.Configure(machine.I2CConfig{
		Frequency: 400 * machine.KHz,
		SDA:       machine.Pin(pins.I2CSDA),
		SCL:       machine.Pin(pins.I2CSCL),
	})
	if err != nil {
		return nil, err
	}

	dev := ina260.New(bus)
	if !dev.Connected() {
		return nil, errMonitorAbsent
	}
	dev.Configure(ina260.Config{
		AverageMode:     0x2, // 16 samples
		VoltConvTime:    0x4, // 1.1ms
		CurrentConvTime: 0x4,
		Mode:            0x7, // continuous shunt and bus
	})
	return &busMonitor{dev: dev}, nil
}

// Read implements console.BusMonitor
func (m *busMonitor) Read() (millivolts, milliamps int32, err error) {
	if !m.dev.Connected() {
		return 0, 0, errMonitorAbsent
	}
	return m.dev.Voltage() / 1000, m.dev.Current() / 1000, nil
}
