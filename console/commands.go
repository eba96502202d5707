package console

import (
	"errors"

	"picobldc/core"
)

// Command is one single-character console command
type Command struct {
	Flag        byte
	Prompt      string // printed before the input is read
	InputSize   uint
	Run         func(*Console, []byte) error
	Description string
}

var (
	OptionsCommand = &Command{
		Flag: 'O',
		Run: func(c *Console, b []byte) error {
			for _, cmd := range commands {
				c.print("\n" + string(cmd.Flag) + ": " + cmd.Description)
			}
			return nil
		},
		Description: "Options",
	}
	DisplayCommand = &Command{
		Flag: 'D',
		Run: func(c *Console, b []byte) error {
			c.displayStatus()
			return nil
		},
		Description: "Display status",
	}
	UserControlCommand = &Command{
		Flag: 'U',
		Run: func(c *Console, b []byte) error {
			c.Controller.EnableOverride()
			c.print("\nUI Enabled, Hardware Control disabled")
			return nil
		},
		Description: "User Interface",
	}
	HardwareControlCommand = &Command{
		Flag: 'H',
		Run: func(c *Console, b []byte) error {
			c.Controller.DisableOverride()
			c.print("\nHardware Control enabled, UI Disabled")
			return nil
		},
		Description: "Give back to hardware",
	}
	StartCommand = &Command{
		Flag: 'S',
		Run: func(c *Console, b []byte) error {
			c.Controller.Start()
			c.print("\nMotor Start")
			return nil
		},
		Description: "Start motor",
	}
	StopCommand = &Command{
		Flag: 'E',
		Run: func(c *Console, b []byte) error {
			c.Controller.Stop()
			c.print("\nMotor Stop")
			return nil
		},
		Description: "Stop motor",
	}
	ForwardCommand = &Command{
		Flag: 'F',
		Run: func(c *Console, b []byte) error {
			return c.setDirection(core.Forward, "\nForward Direction")
		},
		Description: "Forward direction",
	}
	ReverseCommand = &Command{
		Flag: 'R',
		Run: func(c *Console, b []byte) error {
			return c.setDirection(core.Reverse, "\nReverse Direction")
		},
		Description: "Reverse direction",
	}
	VoltageCommand = &Command{
		Flag: 'V',
		Run: func(c *Console, b []byte) error {
			c.print("\nDC Voltage:" + core.PadLeft(core.Utoa(uint32(BusVolts(c.Controller.Snapshot().RawBusVoltage))), 4) + " Volts")
			return nil
		},
		Description: "DC Voltage reading",
	}
	SpeedCommand = &Command{
		Flag: 'C',
		Run: func(c *Console, b []byte) error {
			c.print("\nCurrent Speed:" + core.PadLeft(core.Utoa(uint32(c.Controller.Snapshot().Feedback)), 4))
			return nil
		},
		Description: "Current speed reading",
	}
	SetSpeedCommand = &Command{
		Flag:      'M',
		Prompt:    "\r\nEnter Speed 32-9B (HEX):  ",
		InputSize: 3, // two digits and the terminator
		Run: func(c *Console, b []byte) error {
			hi, ok1 := core.ParseHexDigit(b[0])
			lo, ok2 := core.ParseHexDigit(b[1])
			if !ok1 || !ok2 {
				return errors.New("invalid input: " + string(b[:2]))
			}
			v := c.Controller.SetOverrideCommand(hi<<4 | lo)
			c.print("\nSpeed Command: 0x" + core.Hex(uint32(v), 2))
			return nil
		},
		Description: "Set motor speed",
	}
)

// errNoOverride is returned by F and R while hardware sensing is in control
var errNoOverride = errors.New("UI not enabled, press U first")

var commands = []*Command{
	DisplayCommand,
	UserControlCommand,
	HardwareControlCommand,
	StartCommand,
	StopCommand,
	ForwardCommand,
	ReverseCommand,
	VoltageCommand,
	SpeedCommand,
	SetSpeedCommand,
}

// BusVolts scales a raw 12-bit bus reading the way the board's divider is
// calibrated: the 8-bit reading divided by four.
func BusVolts(raw uint16) uint8 {
	return uint8((raw&core.ADCMax)>>4) / 4
}
