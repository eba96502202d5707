//go:build rp2040

package main

import (
	"device/rp"
	"machine"
)

// The TinyGo runtime sleeps on alarm 0; the backup timer uses alarm 1.
const backupAlarm = 1

// RPAlarmDriver implements core.AlarmDriver on the 1MHz system timer
type RPAlarmDriver struct{}

// Now returns the low 32 bits of the microsecond counter
func (RPAlarmDriver) Now() uint32 {
	return rp.TIMER.TIMERAWL.Get()
}

// Arm sets alarm 1 to fire when the counter reaches deadline
func (RPAlarmDriver) Arm(deadline uint32) {
	rp.TIMER.INTE.SetBits(1 << backupAlarm)
	// Writing ALARM1 arms it
	rp.TIMER.ALARM1.Set(deadline)
}

// ClearIRQ acknowledges the alarm 1 interrupt
func (RPAlarmDriver) ClearIRQ() {
	rp.TIMER.INTR.Set(1 << backupAlarm)
}

// RPWatchdog refreshes the hardware watchdog from scheduler step 0
type RPWatchdog struct{}

func (RPWatchdog) Update() {
	machine.Watchdog.Update()
}
