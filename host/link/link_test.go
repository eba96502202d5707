package link

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

// fakeConsole answers commands the way the firmware console does
type fakeConsole struct {
	mu      sync.Mutex
	out     bytes.Buffer
	in      []byte
	replies map[string]string
	silent  bool
}

func newFakeConsole() *fakeConsole {
	f := &fakeConsole{
		replies: map[string]string{
			"D\n": "\nSYSTEM STATUS:\nDirection       : 1\nSet Speed       : 128\nBus Voltage     : 24012 mV\nBus Current     : 1500 mA\n",
			"U\n": "\nUI Enabled, Hardware Control disabled",
			"X\n": "\nCommand not recognised",
		},
	}
	f.out.WriteString("Welcome to PicoBLDC\n" + Prompt)
	return f
}

func (f *fakeConsole) Read(b []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.out.Read(b)
}

func (f *fakeConsole) Write(b []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.in = append(f.in, b...)
	if f.silent {
		return len(b), nil
	}

	cmd := string(f.in)
	switch {
	case cmd == "M\n":
		f.out.WriteString("\r\nEnter Speed 32-9B (HEX):  ")
		return len(b), nil
	case strings.HasPrefix(cmd, "M\n") && len(cmd) == 5:
		f.out.WriteString("\nSpeed Command: 0x" + cmd[2:4] + Prompt)
	default:
		f.out.WriteString(f.replies[cmd] + Prompt)
	}
	f.in = nil
	return len(b), nil
}

func TestLink(t *testing.T) {
	Convey("Given a link to the console", t, func() {
		fc := newFakeConsole()
		l := New(fc, 200*time.Millisecond)

		greeting, err := l.Sync()
		So(err, ShouldBeNil)
		So(greeting, ShouldEqual, "Welcome to PicoBLDC")

		Convey("a command returns the text before the next prompt", func() {
			reply, err := l.Send('U')
			So(err, ShouldBeNil)
			So(reply, ShouldEqual, "UI Enabled, Hardware Control disabled")
		})

		Convey("the status reply parses", func() {
			reply, err := l.Send('D')
			So(err, ShouldBeNil)

			st, err := ParseStatus(reply)
			So(err, ShouldBeNil)
			So(st.Direction, ShouldEqual, "REV")
			So(st.SetSpeed, ShouldEqual, 128)
			So(st.BusMV, ShouldEqual, 24012)
			So(st.BusMA, ShouldEqual, 1500)
		})

		Convey("set speed sends two hex digits after the speed prompt", func() {
			reply, err := l.SetSpeed(0x80)
			So(err, ShouldBeNil)
			So(reply, ShouldEqual, "Speed Command: 0x80")
		})

		Convey("a silent console times out", func() {
			fc.silent = true
			_, err := l.Send('D')
			So(err, ShouldEqual, ErrTimeout)
		})
	})
}

func TestParseStatus(t *testing.T) {
	Convey("ParseStatus", t, func() {
		Convey("reads events when debug is on", func() {
			st, err := ParseStatus("SYSTEM STATUS:\nDirection       : 0\nSet Speed       : 50\nEvents          : 2\n[EVT] #1 UI_ON v=50\n[EVT] #2 DUTY v=130\n")
			So(err, ShouldBeNil)
			So(st.Direction, ShouldEqual, "FWD")
			So(st.Events, ShouldHaveLength, 2)
			So(st.BusMV, ShouldEqual, 0)
		})

		Convey("rejects other replies", func() {
			_, err := ParseStatus("Command not recognised")
			So(err, ShouldNotBeNil)
		})

		Convey("rejects a bad speed", func() {
			_, err := ParseStatus("SYSTEM STATUS:\nDirection       : 0\nSet Speed       : fast\n")
			So(err, ShouldNotBeNil)
		})
	})
}
