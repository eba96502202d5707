package config

import (
	"encoding/json"

	"picobldc/core"
)

// LoadConfig parses a JSON configuration and returns a validated Config.
// Fields left out, or set to zero, take the board defaults.
func LoadConfig(jsonData []byte) (*core.Config, error) {
	// LoopMode's zero value is torque, so an absent "loop" must start as speed
	config := core.Config{Loop: core.LoopSpeed}

	err := json.Unmarshal(jsonData, &config)
	if err != nil {
		return nil, err
	}

	applyDefaults(&config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// applyDefaults fills in missing configuration values with the board defaults
func applyDefaults(config *core.Config) {
	def := Default()

	// Timing
	if config.PWMPeriodUS == 0 {
		config.PWMPeriodUS = def.PWMPeriodUS
	}
	if config.PWMCountMax == 0 {
		config.PWMCountMax = def.PWMCountMax
	}
	if config.PWMPrescaler == 0 {
		config.PWMPrescaler = def.PWMPrescaler
	}
	if config.BlinkMax == 0 {
		config.BlinkMax = def.BlinkMax
	}

	// Modulation and command range
	if config.ComMagMin == 0 {
		config.ComMagMin = def.ComMagMin
	}
	if config.ComMagMax == 0 {
		config.ComMagMax = def.ComMagMax
	}
	if config.SpeedCmdMin == 0 {
		config.SpeedCmdMin = def.SpeedCmdMin
	}
	if config.SpeedLoopCountMax == 0 {
		config.SpeedLoopCountMax = def.SpeedLoopCountMax
	}

	// Direction switch filter
	if config.DebounceLow == 0 {
		config.DebounceLow = def.DebounceLow
	}
	if config.DebounceHigh == 0 {
		config.DebounceHigh = def.DebounceHigh
	}
	if config.DebounceInitial == 0 {
		config.DebounceInitial = def.DebounceInitial
	}

	// GPIO 0 and ADC 0 are real pins, so the pin map is only defaulted as a whole
	if config.Pins == (core.PinConfig{}) {
		config.Pins = def.Pins
	}
	// SDA and SCL can never share a pin, so both zero means unset
	if config.Pins.I2CSDA == 0 && config.Pins.I2CSCL == 0 {
		config.Pins.I2CSDA = def.Pins.I2CSDA
		config.Pins.I2CSCL = def.Pins.I2CSCL
	}
}

// Default returns the configuration of the PicoBLDC board
func Default() *core.Config {
	return &core.Config{
		PWMPeriodUS:       50, // 20kHz
		PWMCountMax:       12,
		PWMPrescaler:      25,
		BlinkMax:          800,
		Loop:              core.LoopSpeed,
		ComMagMin:         125,
		ComMagMax:         250,
		SpeedCmdMin:       50,
		SpeedLoopCountMax: 10,
		DebounceLow:       5,
		DebounceHigh:      20,
		DebounceInitial:   128,
		Pins: core.PinConfig{
			LEDYellow: 2,
			LEDGreen:  3,
			LEDRed:    4,
			DirSwitch: 5,
			Phase:     [6]core.PWMPin{10, 11, 12, 13, 14, 15},
			CommandIn: 0,
			BusIn:     1,
			BackEMFIn: 2,
			CurrentIn: 3,
			I2CSDA:    6, // I2C1
			I2CSCL:    7,
		},
	}
}
