//go:build !wasm

package serial

import (
	"fmt"
	"time"

	"github.com/tarm/serial"
)

// NativePort wraps the tarm/serial implementation
type NativePort struct {
	port *serial.Port
	cfg  *Config
}

// Open opens a native serial port. An empty device name picks the first
// RP2040 board found.
func Open(cfg *Config) (Port, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	device := cfg.Device
	if device == "" {
		found, err := FindPico()
		if err != nil {
			return nil, err
		}
		device = found
	}

	port, err := serial.OpenPort(&serial.Config{
		Name:        device,
		Baud:        cfg.Baud,
		ReadTimeout: time.Duration(cfg.ReadTimeout) * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", device, err)
	}

	opened := *cfg
	opened.Device = device
	return &NativePort{port: port, cfg: &opened}, nil
}

// Device returns the path that was opened
func (p *NativePort) Device() string {
	return p.cfg.Device
}

// Read returns 0, nil when the read timeout expires
func (p *NativePort) Read(b []byte) (int, error) {
	return p.port.Read(b)
}

func (p *NativePort) Write(b []byte) (int, error) {
	return p.port.Write(b)
}

func (p *NativePort) Close() error {
	if p.port != nil {
		return p.port.Close()
	}
	return nil
}

// Flush discards unread input, e.g. a half-received reply
func (p *NativePort) Flush() error {
	return p.port.Flush()
}
