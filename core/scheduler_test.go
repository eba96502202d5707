package core

import (
	"errors"
	"strings"
	"sync"
	"testing"
)

// recordSteps swaps the dispatch table for recorders so the test sees which
// sub-task each Tick ran.
func recordSteps(s *LoopScheduler) *[]Step {
	var got []Step
	for i := range s.table {
		step := Step(i)
		s.table[i] = func() { got = append(got, step) }
	}
	return &got
}

func TestStepRotationAcrossCycleBoundaries(t *testing.T) {
	for _, countMax := range []uint32{6, 12, 18, 60} {
		cfg := testConfig()
		cfg.PWMCountMax = countMax
		rig, err := newTestRig(cfg, Hooks{})
		if err != nil {
			t.Fatalf("countMax=%d: %v", countMax, err)
		}
		s := rig.fw.Scheduler
		got := recordSteps(s)

		const ticks = 600
		for i := 0; i < ticks; i++ {
			s.Tick()
		}

		if len(*got) != ticks {
			t.Fatalf("countMax=%d: expected %d dispatches, got %d", countMax, ticks, len(*got))
		}
		for i, step := range *got {
			if want := Step(i % StepCount); step != want {
				t.Fatalf("countMax=%d: tick %d ran %v, expected %v", countMax, i, step, want)
			}
		}
		// The first tick opens a cycle, then one every countMax ticks
		if want := uint32(ticks-1)/countMax + 1; s.Resyncs() != want {
			t.Errorf("countMax=%d: expected %d resyncs, got %d", countMax, want, s.Resyncs())
		}
	}
}

func TestEverySixTicksRunEachStepOnce(t *testing.T) {
	rig, err := newTestRig(testConfig(), Hooks{})
	if err != nil {
		t.Fatal(err)
	}
	s := rig.fw.Scheduler
	got := recordSteps(s)

	for i := 0; i < 120; i++ {
		s.Tick()
	}

	// Any window of six consecutive interrupts, wherever it starts
	for start := 0; start+StepCount <= len(*got); start++ {
		seen := map[Step]int{}
		for _, step := range (*got)[start : start+StepCount] {
			seen[step]++
		}
		for step := Step(0); int(step) < StepCount; step++ {
			if seen[step] != 1 {
				t.Fatalf("window at %d: step %v ran %d times", start, step, seen[step])
			}
		}
	}
	for step := Step(0); int(step) < StepCount; step++ {
		if s.Runs(step) != 20 {
			t.Errorf("Expected step %v to run 20 times, got %d", step, s.Runs(step))
		}
	}
}

func TestFirstTickOpensCycle(t *testing.T) {
	rig, err := newTestRig(testConfig(), Hooks{})
	if err != nil {
		t.Fatal(err)
	}
	s := rig.fw.Scheduler
	if s.Step() != StepWatchdog {
		t.Fatalf("Expected first step watchdog, got %v", s.Step())
	}

	s.Tick()
	if s.Resyncs() != 1 || s.CycleCount() != 0 {
		t.Errorf("Expected resync on first tick, got resyncs=%d count=%d", s.Resyncs(), s.CycleCount())
	}
	if s.Step() != StepDirection {
		t.Errorf("Expected next step direction, got %v", s.Step())
	}
}

func TestClearIRQBeforeSubTask(t *testing.T) {
	rig, err := newTestRig(testConfig(), Hooks{})
	if err != nil {
		t.Fatal(err)
	}
	s := rig.fw.Scheduler
	for i := range s.table {
		s.table[i] = func() {
			if rig.pwm.Cleared() != int(s.Ticks()) {
				t.Errorf("sub-task ran before IRQ acknowledge: cleared=%d ticks=%d", rig.pwm.Cleared(), s.Ticks())
			}
		}
	}
	for i := 0; i < 24; i++ {
		s.Tick()
	}
	if rig.pwm.Cleared() != 24 {
		t.Errorf("Expected 24 acknowledges, got %d", rig.pwm.Cleared())
	}
}

func TestCountMaxMustAlignWithSteps(t *testing.T) {
	for _, countMax := range []uint32{0, 5, 7, 50} {
		cfg := testConfig()
		cfg.PWMCountMax = countMax
		if _, err := newTestRig(cfg, Hooks{}); err == nil {
			t.Errorf("Expected error for pwm_count_max=%d", countMax)
		}
	}
}

func TestMissingHooksAreNoOps(t *testing.T) {
	rig, err := newTestRig(testConfig(), Hooks{})
	if err != nil {
		t.Fatal(err)
	}
	s := rig.fw.Scheduler
	for i := 0; i < 60; i++ {
		s.Tick()
	}
	if s.Runs(StepSample) != 10 || s.Runs(StepControl) != 10 {
		t.Errorf("Expected hook steps to be budgeted, got sample=%d control=%d",
			s.Runs(StepSample), s.Runs(StepControl))
	}
	if rig.fw.State.Duty() != 125 {
		t.Errorf("Expected duty to stay at 125, got %d", rig.fw.State.Duty())
	}
}

func TestWatchdogRefreshedOncePerCycle(t *testing.T) {
	wdt := &countingWatchdog{}
	rig := &testRig{gpio: NewMockGPIODriver(), adc: NewMockADCDriver(), pwm: NewMockPWMDriver(), alarm: &MockAlarmDriver{}}
	fw, err := New(testConfig(), Drivers{GPIO: rig.gpio, PWM: rig.pwm, ADC: rig.adc, Alarm: rig.alarm, Watchdog: wdt}, Hooks{})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 36; i++ {
		fw.Scheduler.Tick()
	}
	if wdt.updates != 6 {
		t.Errorf("Expected 6 watchdog refreshes, got %d", wdt.updates)
	}
}

func TestControlHookDutyClamped(t *testing.T) {
	var seen []ControlInput
	next := uint8(0)
	hooks := Hooks{
		Control: ControlHookFunc(func(in ControlInput) uint8 {
			seen = append(seen, in)
			return next
		}),
	}
	rig, err := newTestRig(testConfig(), hooks)
	if err != nil {
		t.Fatal(err)
	}
	fw := rig.fw
	if err := fw.Init(); err != nil {
		t.Fatal(err)
	}
	cycle := func() {
		for i := 0; i < StepCount; i++ {
			fw.Scheduler.Tick()
		}
	}

	tests := []struct {
		ret  uint8
		want uint8
	}{
		{0, 125},
		{200, 200},
		{255, 250},
		{124, 125},
	}
	for _, tt := range tests {
		next = tt.ret
		cycle()
		if fw.State.Duty() != tt.want {
			t.Errorf("hook returned %d: expected duty %d, got %d", tt.ret, tt.want, fw.State.Duty())
		}
		if rig.pwm.Duty(10) != PWMValue(tt.want) {
			t.Errorf("hook returned %d: expected PWM %d, got %d", tt.ret, tt.want, rig.pwm.Duty(10))
		}
	}

	if len(seen) != len(tests) {
		t.Fatalf("Expected %d hook calls, got %d", len(tests), len(seen))
	}
	if seen[0].Mode != LoopSpeed || seen[0].Command != 50 {
		t.Errorf("Unexpected control input %+v", seen[0])
	}
}

func TestControlHookSeesRunFlagAndMode(t *testing.T) {
	var last ControlInput
	cfg := testConfig()
	cfg.Loop = LoopTorque
	rig, err := newTestRig(cfg, Hooks{
		Control: ControlHookFunc(func(in ControlInput) uint8 {
			last = in
			return in.Duty
		}),
	})
	if err != nil {
		t.Fatal(err)
	}
	rig.fw.State.Start()
	for i := 0; i < StepCount; i++ {
		rig.fw.Scheduler.Tick()
	}
	if !last.Running || last.Mode != LoopTorque {
		t.Errorf("Expected running torque input, got %+v", last)
	}
	if rig.pwm.dutySet != 0 {
		t.Errorf("Expected no PWM write for unchanged duty, got %d", rig.pwm.dutySet)
	}
}

func TestFailedDutyWriteNotPublished(t *testing.T) {
	rig, err := newTestRig(testConfig(), Hooks{
		Control: ControlHookFunc(func(ControlInput) uint8 { return 200 }),
	})
	if err != nil {
		t.Fatal(err)
	}
	fw := rig.fw
	if err := fw.Init(); err != nil {
		t.Fatal(err)
	}
	ClearEvents()
	rig.pwm.FailDuty(errors.New("pwm write failed"))
	for i := 0; i < StepCount; i++ {
		fw.Scheduler.Tick()
	}
	if fw.State.Duty() != 125 || rig.pwm.Duty(10) != 125 {
		t.Errorf("Expected duty kept at 125, got state=%d pwm=%d", fw.State.Duty(), rig.pwm.Duty(10))
	}
	var lines []string
	DumpEvents(func(s string) { lines = append(lines, s) })
	if len(lines) != 1 || !strings.Contains(lines[0], "PWM_ERR v=10") {
		t.Errorf("Expected one PWM error event, got %q", lines)
	}

	// The next cycle retries once the hardware accepts the write
	rig.pwm.FailDuty(nil)
	for i := 0; i < StepCount; i++ {
		fw.Scheduler.Tick()
	}
	if fw.State.Duty() != 200 || rig.pwm.Duty(10) != 200 {
		t.Errorf("Expected duty 200 after recovery, got state=%d pwm=%d", fw.State.Duty(), rig.pwm.Duty(10))
	}
}

func TestOperatorEventSurvivesCycles(t *testing.T) {
	rig, err := newTestRig(testConfig(), Hooks{})
	if err != nil {
		t.Fatal(err)
	}
	ClearEvents()
	rig.fw.State.EnableOverride()
	for i := 0; i < 400; i++ {
		rig.fw.Scheduler.Tick()
	}

	var lines []string
	DumpEvents(func(s string) { lines = append(lines, s) })
	found := false
	for _, l := range lines {
		if strings.Contains(l, "UI_ON") {
			found = true
		}
		if strings.Contains(l, "RESYNC") {
			t.Errorf("Unexpected resync event in an aligned rotation: %q", l)
		}
	}
	if !found {
		t.Errorf("Expected override event to survive 400 ticks, got %q", lines)
	}
	if rig.fw.Scheduler.Resyncs() != 34 {
		t.Errorf("Expected 34 cycles counted, got %d", rig.fw.Scheduler.Resyncs())
	}
}

func TestSampleHookWritesThroughRecorder(t *testing.T) {
	cfg := testConfig()
	cfg.Loop = LoopTorque
	rig := &testRig{gpio: NewMockGPIODriver(), adc: NewMockADCDriver(), pwm: NewMockPWMDriver(), alarm: &MockAlarmDriver{}}
	rig.adc.Set(cfg.Pins.BusIn, 0x800)
	rig.adc.Set(cfg.Pins.BackEMFIn, 0x400)
	rig.adc.Set(cfg.Pins.CurrentIn, 0x123)
	fw, err := New(cfg, Drivers{GPIO: rig.gpio, PWM: rig.pwm, ADC: rig.adc, Alarm: rig.alarm},
		Hooks{Sample: NewADCSampleHook(rig.adc, cfg.Pins)})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < StepCount; i++ {
		fw.Scheduler.Tick()
	}
	snap := fw.State.Snapshot()
	if snap.RawBusVoltage != 0x800 || snap.RawBackEMF != 0x400 || snap.Feedback != 0x123 {
		t.Errorf("Unexpected samples %+v", snap)
	}
}

func TestSampleHookFault(t *testing.T) {
	rig, err := newTestRig(testConfig(), Hooks{
		Sample: SampleHookFunc(func(rec *SampleRecorder, mode LoopMode) {
			rec.RaiseFault()
		}),
	})
	if err != nil {
		t.Fatal(err)
	}
	rig.fw.State.Start()
	for i := 0; i < StepCount; i++ {
		rig.fw.Scheduler.Tick()
	}
	if !rig.fw.State.Fault() {
		t.Fatal("Expected fault latched")
	}
	rig.fw.State.Stop()
	if rig.fw.State.Fault() || rig.fw.State.Running() {
		t.Error("Expected stop to clear fault and run flag")
	}
}

func TestTickConcurrentWithForeground(t *testing.T) {
	rig, err := newTestRig(testConfig(), Hooks{})
	if err != nil {
		t.Fatal(err)
	}
	fw := rig.fw
	rig.adc.Set(0, 0xFFF)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				fw.Scheduler.Tick()
			}
		}
	}()

	for i := 0; i < 2000; i++ {
		if i%2 == 0 {
			fw.State.EnableOverride()
			fw.State.SetOverrideCommand(uint8(50 + i%100))
		} else {
			fw.State.DisableOverride()
		}
		snap := fw.State.Snapshot()
		if snap.Command < 50 {
			t.Fatalf("command left its domain: %d", snap.Command)
		}
		if snap.Duty < 125 || snap.Duty > 250 {
			t.Fatalf("duty left its domain: %d", snap.Duty)
		}
	}
	close(stop)
	wg.Wait()
}
