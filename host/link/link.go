// Package link drives the PicoBLDC console from the host: one command out,
// the reply collected up to the next prompt.
package link

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Prompt is printed by the firmware before every command
const Prompt = "\n\nPress O for options:"

const speedPrompt = "Enter Speed 32-9B (HEX):"

// ErrTimeout is returned when the prompt does not arrive in time
var ErrTimeout = errors.New("timed out waiting for console prompt")

// Link talks to the firmware console over a serial port. Read must return
// (0, nil) or a short read when no data is pending, as a serial port with a
// read timeout does.
type Link struct {
	mu      sync.Mutex
	port    io.ReadWriter
	timeout time.Duration
	pending strings.Builder
}

// New creates a link; timeout bounds each wait for the prompt
func New(port io.ReadWriter, timeout time.Duration) *Link {
	return &Link{port: port, timeout: timeout}
}

// Sync waits for the next prompt and discards everything before it
func (l *Link) Sync() (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.readUntil(Prompt)
}

// Send issues a single-character command and returns its reply, without
// the trailing prompt.
func (l *Link) Send(cmd byte) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	// Anything still buffered belongs to an earlier exchange
	l.pending.Reset()
	if err := l.write([]byte{cmd, '\n'}); err != nil {
		return "", err
	}
	return l.readUntil(Prompt)
}

// SetSpeed runs the M command with v as two hex digits
func (l *Link) SetSpeed(v uint8) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.write([]byte{'M', '\n'}); err != nil {
		return "", err
	}
	if _, err := l.readUntil(speedPrompt); err != nil {
		return "", err
	}
	if err := l.write([]byte(fmt.Sprintf("%02X\n", v))); err != nil {
		return "", err
	}
	return l.readUntil(Prompt)
}

func (l *Link) write(b []byte) error {
	if _, err := l.port.Write(b); err != nil {
		return fmt.Errorf("failed to write command: %w", err)
	}
	return nil
}

// readUntil reads until marker is seen and returns the text before it.
// Bytes after the marker are kept for the next call.
func (l *Link) readUntil(marker string) (string, error) {
	deadline := time.Now().Add(l.timeout)
	buf := make([]byte, 256)

	for {
		if text := l.pending.String(); strings.Contains(text, marker) {
			i := strings.Index(text, marker)
			rest := text[i+len(marker):]
			l.pending.Reset()
			l.pending.WriteString(rest)
			return strings.TrimSpace(text[:i]), nil
		}
		if time.Now().After(deadline) {
			return strings.TrimSpace(l.pending.String()), ErrTimeout
		}

		n, err := l.port.Read(buf)
		if n > 0 {
			l.pending.Write(buf[:n])
		}
		if err != nil && err != io.EOF {
			return "", fmt.Errorf("failed to read reply: %w", err)
		}
		if n == 0 {
			time.Sleep(time.Millisecond)
		}
	}
}

// Status is the parsed reply of the D command
type Status struct {
	Direction string // FWD or REV
	SetSpeed  int
	BusMV     int // 0 without a bus monitor
	BusMA     int
	Events    []string
}

// ParseStatus parses the SYSTEM STATUS block printed by D
func ParseStatus(reply string) (Status, error) {
	var st Status
	if !strings.Contains(reply, "SYSTEM STATUS:") {
		return st, fmt.Errorf("not a status reply: %q", reply)
	}

	seen := false
	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "[EVT]") {
			st.Events = append(st.Events, line)
			continue
		}
		key, val, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		val = strings.TrimSpace(val)

		switch key {
		case "Direction":
			seen = true
			if val == "1" {
				st.Direction = "REV"
			} else {
				st.Direction = "FWD"
			}
		case "Set Speed":
			n, err := strconv.Atoi(val)
			if err != nil {
				return st, fmt.Errorf("bad speed %q: %w", val, err)
			}
			st.SetSpeed = n
		case "Bus Voltage":
			st.BusMV, _ = strconv.Atoi(strings.TrimSuffix(val, " mV"))
		case "Bus Current":
			st.BusMA, _ = strconv.Atoi(strings.TrimSuffix(val, " mA"))
		}
	}
	if !seen {
		return st, fmt.Errorf("status reply without direction: %q", reply)
	}
	return st, nil
}
