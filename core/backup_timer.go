package core

import "sync/atomic"

// BackupTimer is the commutation timing backstop: an alarm interrupt that
// re-arms itself every period, independent of the PWM scheduler. The
// back-EMF commutation detector synchronizes against it.
type BackupTimer struct {
	alarm    AlarmDriver
	periodUS uint32

	armed    atomic.Bool
	fires    atomic.Uint32
	deadline atomic.Uint32
}

// NewBackupTimer creates a timer firing every periodUS microseconds
func NewBackupTimer(alarm AlarmDriver, periodUS uint32) *BackupTimer {
	return &BackupTimer{alarm: alarm, periodUS: periodUS}
}

// Start arms the first deadline
func (t *BackupTimer) Start() {
	d := t.alarm.Now() + t.periodUS
	t.deadline.Store(d)
	t.alarm.Arm(d)
	t.armed.Store(true)
	RecordEvent(EvtAlarmArm, d)
}

// Fire is the alarm interrupt handler: re-arm, then acknowledge
func (t *BackupTimer) Fire() {
	t.armed.Store(false)
	t.fires.Add(1)

	d := t.alarm.Now() + t.periodUS
	t.deadline.Store(d)
	t.alarm.Arm(d)
	t.armed.Store(true)

	t.alarm.ClearIRQ()
}

// Armed reports whether a deadline is pending
func (t *BackupTimer) Armed() bool {
	return t.armed.Load()
}

// Fires returns how many times the alarm has fired
func (t *BackupTimer) Fires() uint32 {
	return t.fires.Load()
}

// Deadline returns the pending alarm time
func (t *BackupTimer) Deadline() uint32 {
	return t.deadline.Load()
}
