package core

// AlarmDriver is the hardware timer/alarm used by the commutation backup timer.
type AlarmDriver interface {
	// Now returns the low 32 bits of the free-running microsecond timer
	Now() uint32

	// Arm sets the alarm to fire when the timer reaches deadline
	Arm(deadline uint32)

	// ClearIRQ acknowledges the alarm interrupt
	ClearIRQ()
}

// WatchdogDriver is refreshed from scheduler step 0 when present.
type WatchdogDriver interface {
	Update()
}
