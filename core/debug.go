package core

import "sync/atomic"

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// EventKind identifies a diagnostic event captured in the event ring
type EventKind uint8

// Event kinds
const (
	EvtNone        EventKind = iota
	EvtResync                // cycle boundary found the rotation off step 0, value = step
	EvtADCError              // conversion failed, value = channel
	EvtGPIOError             // pin access failed, value = pin
	EvtOverrideOn            // console took control, value = seeded command
	EvtOverrideOff           // hardware sensing back in control
	EvtFault                 // regulation hook latched a fault
	EvtDuty                  // duty magnitude changed, value = new duty
	EvtAlarmArm              // backup alarm started, value = deadline
	EvtPWMError              // duty write failed, value = pin
)

func (k EventKind) String() string {
	switch k {
	case EvtResync:
		return "RESYNC"
	case EvtADCError:
		return "ADC_ERR"
	case EvtGPIOError:
		return "GPIO_ERR"
	case EvtOverrideOn:
		return "UI_ON"
	case EvtOverrideOff:
		return "UI_OFF"
	case EvtFault:
		return "FAULT"
	case EvtDuty:
		return "DUTY"
	case EvtAlarmArm:
		return "ALARM_ARM"
	case EvtPWMError:
		return "PWM_ERR"
	default:
		return "UNKNOWN"
	}
}

const (
	EventRingSize = 32 // Keep last 32 events for post-mortem
)

// eventSlot is written from interrupt context, so every word is atomic
type eventSlot struct {
	seq   atomic.Uint32 // 0 = empty
	kind  atomic.Uint32
	value atomic.Uint32
}

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether debug output is active
	debugEnabled atomic.Bool

	eventRing [EventRingSize]eventSlot
	eventSeq  atomic.Uint32
)

// SetDebugWriter sets the platform-specific debug output function
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled.Store(enabled)
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled.Load()
}

// DebugPrintln writes a debug message using the platform-specific writer.
// Blocks on the writer, so never call it from interrupt context.
func DebugPrintln(msg string) {
	if debugEnabled.Load() && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// RecordEvent captures an event in the ring buffer.
// Non-blocking and allocation free; safe from interrupt context.
func RecordEvent(kind EventKind, value uint32) {
	seq := eventSeq.Add(1)
	slot := &eventRing[(seq-1)%EventRingSize]
	slot.seq.Store(0)
	slot.kind.Store(uint32(kind))
	slot.value.Store(value)
	slot.seq.Store(seq)
}

// EventCount returns the number of events recorded since the last clear
func EventCount() uint32 {
	return eventSeq.Load()
}

// DumpEvents writes the ring from oldest to newest
func DumpEvents(w DebugWriter) {
	if w == nil {
		return
	}
	last := eventSeq.Load()
	first := uint32(1)
	if last > EventRingSize {
		first = last - EventRingSize + 1
	}
	for seq := first; seq <= last && last != 0; seq++ {
		slot := &eventRing[(seq-1)%EventRingSize]
		if slot.seq.Load() != seq {
			continue // overwritten or half written
		}
		w("[EVT] #" + utoa(seq) + " " + EventKind(slot.kind.Load()).String() +
			" v=" + utoa(slot.value.Load()))
	}
}

// ClearEvents empties the event ring
func ClearEvents() {
	for i := range eventRing {
		eventRing[i].seq.Store(0)
		eventRing[i].kind.Store(0)
		eventRing[i].value.Store(0)
	}
	eventSeq.Store(0)
}
