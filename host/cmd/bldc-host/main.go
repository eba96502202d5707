package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/abiosoft/ishell"
	"github.com/caarlos0/env/v6"

	"picobldc/host/link"
	"picobldc/host/serial"
)

// EnvConfig supplies flag defaults from the environment
type EnvConfig struct {
	Device    string `env:"BLDC_DEVICE"`
	Baud      int    `env:"BLDC_BAUD" envDefault:"115200"`
	TimeoutMS int    `env:"BLDC_TIMEOUT_MS" envDefault:"1000"`
}

func main() {
	cfg := EnvConfig{}
	if err := env.Parse(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: bad environment: %v\n", err)
		os.Exit(1)
	}

	device := flag.String("device", cfg.Device, "Serial device path (empty finds the first RP2040)")
	baud := flag.Int("baud", cfg.Baud, "Baud rate (ignored for USB CDC)")
	timeout := flag.Int("timeout", cfg.TimeoutMS, "Reply timeout in milliseconds")
	list := flag.Bool("list", false, "List serial ports and exit")
	flag.Parse()

	if *list {
		if err := listPorts(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	portCfg := serial.DefaultConfig(*device)
	portCfg.Baud = *baud
	port, err := serial.Open(portCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer port.Close()

	l := link.New(port, time.Duration(*timeout)*time.Millisecond)

	// Prod the console so a prompt is waiting, whatever state it was left in
	_ = port.Flush()
	if _, err := l.Send('O'); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: console not answering: %v\n", err)
	}

	shell := ishell.New()
	shell.Println("PicoBLDC host shell")
	shell.ShowPrompt(true)
	addCommands(shell, l)
	shell.Run()
}

func listPorts() error {
	ports, err := serial.ListPorts()
	if err != nil {
		return err
	}
	if len(ports) == 0 {
		fmt.Println("No serial ports found")
		return nil
	}
	for _, p := range ports {
		mark := " "
		if p.IsPico() {
			mark = "*"
		}
		if p.USB {
			fmt.Printf("%s %-20s %s:%s %s\n", mark, p.Name, p.VID, p.PID, p.Product)
		} else {
			fmt.Printf("%s %s\n", mark, p.Name)
		}
	}
	return nil
}

// consoleCmds maps shell words onto console characters
var consoleCmds = []struct {
	name string
	flag byte
	help string
}{
	{"status", 'D', "show direction, set speed and bus readings"},
	{"ui", 'U', "take direction and speed from the console"},
	{"hw", 'H', "give control back to the switch and potentiometer"},
	{"start", 'S', "start the motor"},
	{"stop", 'E', "stop the motor and clear a fault"},
	{"fwd", 'F', "forward direction (ui mode)"},
	{"rev", 'R', "reverse direction (ui mode)"},
	{"volts", 'V', "DC bus voltage"},
	{"rpm", 'C', "current speed reading"},
	{"options", 'O', "firmware option menu"},
}

func addCommands(shell *ishell.Shell, l *link.Link) {
	for _, cc := range consoleCmds {
		cc := cc
		shell.AddCmd(&ishell.Cmd{
			Name: cc.name,
			Help: cc.help,
			Func: func(c *ishell.Context) {
				reply, err := l.Send(cc.flag)
				if err != nil {
					c.Err(err)
					return
				}
				c.Println(reply)
			},
		})
	}

	shell.AddCmd(&ishell.Cmd{
		Name: "speed",
		Help: "speed <value>: set the ui speed command, hex (0x80) or decimal",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Println("usage: speed <value>")
				return
			}
			v, err := parseSpeed(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			reply, err := l.SetSpeed(v)
			if err != nil {
				c.Err(err)
				return
			}
			c.Println(reply)
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "raw",
		Help: "raw <char>: send one console character",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 1 || len(c.Args[0]) != 1 {
				c.Println("usage: raw <char>")
				return
			}
			reply, err := l.Send(c.Args[0][0])
			if err != nil {
				c.Err(err)
				return
			}
			c.Println(reply)
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "watch",
		Help: "watch [n]: print status every second, n times (default 10)",
		Func: func(c *ishell.Context) {
			n := 10
			if len(c.Args) == 1 {
				if v, err := strconv.Atoi(c.Args[0]); err == nil && v > 0 {
					n = v
				}
			}
			for i := 0; i < n; i++ {
				reply, err := l.Send('D')
				if err != nil {
					c.Err(err)
					return
				}
				st, err := link.ParseStatus(reply)
				if err != nil {
					c.Err(err)
					return
				}
				c.Printf("%s speed=%d bus=%dmV %dmA\n", st.Direction, st.SetSpeed, st.BusMV, st.BusMA)
				time.Sleep(time.Second)
			}
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "ports",
		Help: "list serial ports",
		Func: func(c *ishell.Context) {
			if err := listPorts(); err != nil {
				c.Err(err)
			}
		},
	})
}

func parseSpeed(s string) (uint8, error) {
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s, base = s[2:], 16
	}
	v, err := strconv.ParseUint(s, base, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid speed %q: %w", s, err)
	}
	return uint8(v), nil
}
