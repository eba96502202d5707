//go:build !wasm

package serial

import (
	"fmt"
	"sort"
	"strings"

	bugst "go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// PortInfo describes one serial port found on the host
type PortInfo struct {
	Name    string
	USB     bool
	VID     string
	PID     string
	Product string
}

// Raspberry Pi Foundation USB vendor ID, used by the Pico's CDC port
const PicoVID = "2E8A"

// IsPico reports whether the port looks like an RP2040 board
func (p PortInfo) IsPico() bool {
	return p.USB && strings.EqualFold(p.VID, PicoVID)
}

// ListPorts returns the serial ports present on the host, sorted by name.
// USB details are filled in where the OS exposes them.
func ListPorts() ([]PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err == nil && len(details) > 0 {
		ports := make([]PortInfo, 0, len(details))
		for _, d := range details {
			ports = append(ports, PortInfo{
				Name:    d.Name,
				USB:     d.IsUSB,
				VID:     d.VID,
				PID:     d.PID,
				Product: d.Product,
			})
		}
		sortPorts(ports)
		return ports, nil
	}

	// Fall back to plain names
	names, err := bugst.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}
	ports := make([]PortInfo, 0, len(names))
	for _, n := range names {
		ports = append(ports, PortInfo{Name: n})
	}
	sortPorts(ports)
	return ports, nil
}

// FindPico returns the first port that looks like an RP2040 board
func FindPico() (string, error) {
	ports, err := ListPorts()
	if err != nil {
		return "", err
	}
	for _, p := range ports {
		if p.IsPico() {
			return p.Name, nil
		}
	}
	return "", fmt.Errorf("no RP2040 serial port found among %d ports", len(ports))
}

func sortPorts(ports []PortInfo) {
	sort.Slice(ports, func(i, j int) bool { return ports[i].Name < ports[j].Name })
}
