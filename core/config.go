package core

// Pin assignments of the application board
type PinConfig struct {
	LEDYellow GPIOPin      `json:"led_yellow"`
	LEDGreen  GPIOPin      `json:"led_green"`
	LEDRed    GPIOPin      `json:"led_red"`
	DirSwitch GPIOPin      `json:"dir_switch"`
	Phase     [6]PWMPin    `json:"phase"` // 1H, 1L, 2H, 2L, 3H, 3L
	CommandIn ADCChannelID `json:"command_adc"`
	BusIn     ADCChannelID `json:"bus_adc"`
	BackEMFIn ADCChannelID `json:"bemf_adc"`
	CurrentIn ADCChannelID `json:"current_adc"`
	I2CSDA    GPIOPin      `json:"i2c_sda"` // bus monitor, used when BusMonitor is set
	I2CSCL    GPIOPin      `json:"i2c_scl"`
}

// ADCPinBase is the GPIO carrying ADC channel 0; channel n is on ADCPinBase+n.
const ADCPinBase GPIOPin = 26

// Config holds the system parameters of the controller.
// Zero values are replaced by defaults in the config package.
type Config struct {
	PWMPeriodUS       uint32    `json:"pwm_period_us"`        // 50us is 20kHz
	PWMCountMax       uint32    `json:"pwm_count_max"`        // interrupts per scheduler cycle
	PWMPrescaler      uint32    `json:"pwm_prescaler"`        // PWM clock divider
	BlinkMax          uint32    `json:"blink_max"`            // blink machine divisor
	Loop              LoopMode  `json:"loop"`                 // "torque" or "speed"
	ComMagMin         uint8     `json:"com_mag_min"`          // minimum pwm modulation index
	ComMagMax         uint8     `json:"com_mag_max"`          // maximum pwm modulation index, also the PWM wrap
	SpeedCmdMin       uint8     `json:"speed_cmd_min"`        // command floor
	SpeedLoopCountMax uint32    `json:"speed_loop_count_max"` // command decimation
	DebounceLow       uint8     `json:"debounce_low"`
	DebounceHigh      uint8     `json:"debounce_high"`
	DebounceInitial   uint8     `json:"debounce_initial"`
	Pins              PinConfig `json:"pins"`

	Debug      bool `json:"debug"`       // event ring dump on status, PWM self-test at boot
	BusMonitor bool `json:"bus_monitor"` // INA260 on Pins.I2CSDA/I2CSCL
}

// ConfigError reports a configuration value the firmware cannot run with
type ConfigError struct {
	Field  string
	Reason string
}

func (e ConfigError) Error() string {
	return "invalid config " + e.Field + ": " + e.Reason
}

// Validate checks the relations between parameters that the scheduler and
// state machines rely on.
func (c *Config) Validate() error {
	if c.PWMPeriodUS == 0 {
		return ConfigError{"pwm_period_us", "must be positive"}
	}
	if c.PWMCountMax == 0 || c.PWMCountMax%uint32(StepCount) != 0 {
		return ConfigError{"pwm_count_max", "must be a positive multiple of " + itoa(StepCount)}
	}
	if c.BlinkMax < 4 {
		return ConfigError{"blink_max", "must be at least 4"}
	}
	if c.Loop != LoopTorque && c.Loop != LoopSpeed {
		return ConfigError{"loop", "unknown loop mode"}
	}
	if c.ComMagMin == 0 || c.ComMagMin > c.ComMagMax {
		return ConfigError{"com_mag_min", "must be in [1, com_mag_max]"}
	}
	if c.SpeedCmdMin == 0 {
		return ConfigError{"speed_cmd_min", "must be positive"}
	}
	if c.DebounceLow >= c.DebounceHigh {
		return ConfigError{"debounce_low", "must be below debounce_high"}
	}
	leds := [...]GPIOPin{c.Pins.LEDYellow, c.Pins.LEDGreen, c.Pins.LEDRed}
	for i := range leds {
		for j := i + 1; j < len(leds); j++ {
			if leds[i] == leds[j] {
				return ConfigError{"pins", "status LEDs must use distinct pins"}
			}
		}
		if leds[i] == c.Pins.DirSwitch {
			return ConfigError{"pins", "direction switch shares a pin with an LED"}
		}
	}
	if c.BusMonitor {
		return c.Pins.validateI2C()
	}
	return nil
}

// validateI2C rejects bus monitor pins that another function already owns.
// Configuring the I2C bus would switch those pins away from their GPIO role.
func (p *PinConfig) validateI2C() error {
	if p.I2CSDA == p.I2CSCL {
		return ConfigError{"pins", "i2c_sda and i2c_scl must differ"}
	}
	taken := []GPIOPin{p.LEDYellow, p.LEDGreen, p.LEDRed, p.DirSwitch}
	for _, ph := range p.Phase {
		taken = append(taken, GPIOPin(ph))
	}
	for _, ch := range [...]ADCChannelID{p.CommandIn, p.BusIn, p.BackEMFIn, p.CurrentIn} {
		taken = append(taken, ADCPinBase+GPIOPin(ch))
	}
	for _, pin := range taken {
		if pin == p.I2CSDA || pin == p.I2CSCL {
			return ConfigError{"pins", "i2c pin " + Utoa(uint32(pin)) + " is already in use"}
		}
	}
	return nil
}
