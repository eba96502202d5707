// Package console is the operator's single-character serial interface.
//
// Each command is one character, case-insensitive, followed by one
// terminator byte that is read and ignored. The prompt is printed before
// every command.
package console

import (
	"io"

	"picobldc/core"
)

const Prompt = "\n\nPress O for options:"

// Port is the serial link the console talks over
type Port interface {
	io.ByteReader
	io.Writer
}

// Controller is what the console drives. *core.ControlState implements it.
type Controller interface {
	Snapshot() core.StateSnapshot
	EnableOverride()
	DisableOverride()
	SetOverrideDirection(core.Direction) bool
	SetOverrideCommand(uint8) uint8
	Start()
	Stop()
}

// BusMonitor is an optional external power monitor on the motor supply
type BusMonitor interface {
	Read() (millivolts, milliamps int32, err error)
}

// Console dispatches commands read from Port
type Console struct {
	Controller Controller
	Port       Port
	Monitor    BusMonitor // optional

	cmdMap map[byte]*Command
}

// New creates a console; monitor may be nil
func New(ctl Controller, port Port, monitor BusMonitor) *Console {
	c := &Console{
		Controller: ctl,
		Port:       port,
		Monitor:    monitor,
		cmdMap: map[byte]*Command{
			OptionsCommand.Flag: OptionsCommand,
		},
	}
	for _, cmd := range commands {
		c.cmdMap[cmd.Flag] = cmd
	}
	return c
}

// Run is the foreground loop. Read errors other than io.EOF are skipped;
// Run returns nil once the port reports io.EOF.
func (c *Console) Run() error {
	for {
		c.print(Prompt)

		ch, err := c.readByte()
		if err != nil {
			return nil
		}
		if _, err := c.readByte(); err != nil { // terminator
			return nil
		}

		if err := c.HandleCommand(ch); err != nil {
			if err == io.EOF {
				return nil
			}
			c.print("\nerror: " + err.Error())
		}
	}
}

// HandleCommand runs the command for ch, reading any further input it needs
func (c *Console) HandleCommand(ch byte) error {
	cmd, ok := c.cmdMap[upper(ch)]
	if !ok {
		c.print("\nCommand not recognised")
		return nil
	}

	if cmd.Prompt != "" {
		c.print(cmd.Prompt)
	}
	in := make([]byte, cmd.InputSize)
	for i := range in {
		b, err := c.readByte()
		if err != nil {
			return err
		}
		in[i] = b
	}
	return cmd.Run(c, in)
}

// readByte skips transient read errors and reports only io.EOF
func (c *Console) readByte() (byte, error) {
	for {
		b, err := c.Port.ReadByte()
		if err == nil {
			return b, nil
		}
		if err == io.EOF {
			return 0, err
		}
	}
}

func (c *Console) print(s string) {
	_, _ = c.Port.Write([]byte(s))
}

func (c *Console) setDirection(d core.Direction, msg string) error {
	if !c.Controller.SetOverrideDirection(d) {
		return errNoOverride
	}
	c.print(msg)
	return nil
}

func (c *Console) displayStatus() {
	snap := c.Controller.Snapshot()
	c.print("\nSYSTEM STATUS:\n")
	c.print(core.PadRight("Direction", 16) + ": " + core.Hex(uint32(snap.Direction), 1) + "\n")
	c.print(core.PadRight("Set Speed", 16) + ": " + core.Utoa(uint32(snap.Command)) + "\n")

	if c.Monitor != nil {
		mv, ma, err := c.Monitor.Read()
		if err != nil {
			c.print(core.PadRight("Bus Monitor", 16) + ": " + err.Error() + "\n")
		} else {
			c.print(core.PadRight("Bus Voltage", 16) + ": " + core.Itoa(int(mv)) + " mV\n")
			c.print(core.PadRight("Bus Current", 16) + ": " + core.Itoa(int(ma)) + " mA\n")
		}
	}

	if core.IsDebugEnabled() {
		c.print(core.PadRight("Events", 16) + ": " + core.Utoa(core.EventCount()) + "\n")
		core.DumpEvents(func(s string) { c.print(s + "\n") })
	}
}

func upper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - 'a' + 'A'
	}
	return b
}
