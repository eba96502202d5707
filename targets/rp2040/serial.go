//go:build rp2040

package main

import (
	"machine"
	"time"
)

// consolePort adapts machine.Serial (USB CDC on the Pico) to console.Port.
// ReadByte blocks until a byte arrives, like getchar.
type consolePort struct {
	serial machine.Serialer
}

func newConsolePort() *consolePort {
	_ = machine.Serial.Configure(machine.UARTConfig{})
	return &consolePort{serial: machine.Serial}
}

func (p *consolePort) ReadByte() (byte, error) {
	for p.serial.Buffered() == 0 {
		time.Sleep(time.Millisecond)
	}
	return p.serial.ReadByte()
}

func (p *consolePort) Write(b []byte) (int, error) {
	return p.serial.Write(b)
}

// debugWriter sends core debug output to the console port
func (p *consolePort) debugWriter(s string) {
	_, _ = p.serial.Write([]byte("[DBG] " + s + "\r\n"))
}
