package core

import (
	"errors"
	"sync"
)

// MockGPIODriver is a test implementation of GPIODriver
type MockGPIODriver struct {
	mu      sync.Mutex
	pins    map[GPIOPin]bool
	outputs map[GPIOPin]bool
	pullups map[GPIOPin]bool
	writes  map[GPIOPin][]bool
	failGet bool
}

func NewMockGPIODriver() *MockGPIODriver {
	return &MockGPIODriver{
		pins:    make(map[GPIOPin]bool),
		outputs: make(map[GPIOPin]bool),
		pullups: make(map[GPIOPin]bool),
		writes:  make(map[GPIOPin][]bool),
	}
}

func (m *MockGPIODriver) ConfigureOutput(pin GPIOPin) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outputs[pin] = true
	m.pins[pin] = false
	return nil
}

func (m *MockGPIODriver) ConfigureInputPullUp(pin GPIOPin) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pullups[pin] = true
	m.pins[pin] = true
	return nil
}

func (m *MockGPIODriver) SetPin(pin GPIOPin, value bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pins[pin] = value
	m.writes[pin] = append(m.writes[pin], value)
	return nil
}

func (m *MockGPIODriver) GetPin(pin GPIOPin) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet {
		return false, errors.New("gpio read failed")
	}
	return m.pins[pin], nil
}

// Drive sets the level an input pin reads
func (m *MockGPIODriver) Drive(pin GPIOPin, level bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pins[pin] = level
}

func (m *MockGPIODriver) Level(pin GPIOPin) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pins[pin]
}

// Writes returns every value written to pin, oldest first
func (m *MockGPIODriver) Writes(pin GPIOPin) []bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]bool(nil), m.writes[pin]...)
}

// MockADCDriver returns a settable value per channel
type MockADCDriver struct {
	mu         sync.Mutex
	values     map[ADCChannelID]ADCValue
	reads      map[ADCChannelID]int
	configured map[ADCChannelID]bool
	initDone   bool
	fail       bool
}

func NewMockADCDriver() *MockADCDriver {
	return &MockADCDriver{
		values:     make(map[ADCChannelID]ADCValue),
		reads:      make(map[ADCChannelID]int),
		configured: make(map[ADCChannelID]bool),
	}
}

func (m *MockADCDriver) Init() error {
	m.initDone = true
	return nil
}

func (m *MockADCDriver) ConfigureChannel(ch ADCChannelID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configured[ch] = true
	return nil
}

func (m *MockADCDriver) ReadRaw(ch ADCChannelID) (ADCValue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return 0, errors.New("adc conversion failed")
	}
	m.reads[ch]++
	return m.values[ch], nil
}

func (m *MockADCDriver) Set(ch ADCChannelID, v ADCValue) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[ch] = v
}

func (m *MockADCDriver) Reads(ch ADCChannelID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads[ch]
}

// MockPWMDriver records slice setup, duty writes and IRQ acknowledgements
type MockPWMDriver struct {
	mu      sync.Mutex
	slices  map[PWMPin]SliceConfig
	duty    map[PWMPin]PWMValue
	irqOn   map[PWMPin]bool
	cleared int
	dutySet int
	dutyErr error // returned by SetDuty when set
}

func NewMockPWMDriver() *MockPWMDriver {
	return &MockPWMDriver{
		slices: make(map[PWMPin]SliceConfig),
		duty:   make(map[PWMPin]PWMValue),
		irqOn:  make(map[PWMPin]bool),
	}
}

func (m *MockPWMDriver) ConfigureSlice(pin PWMPin, cfg SliceConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slices[pin] = cfg
	return nil
}

func (m *MockPWMDriver) SetDuty(pin PWMPin, value PWMValue) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dutyErr != nil {
		return m.dutyErr
	}
	m.duty[pin] = value
	m.dutySet++
	return nil
}

func (m *MockPWMDriver) EnableWrapIRQ(pin PWMPin) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.irqOn[pin] = true
	return nil
}

func (m *MockPWMDriver) ClearIRQ(pin PWMPin) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleared++
}

func (m *MockPWMDriver) FailDuty(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dutyErr = err
}

func (m *MockPWMDriver) Cleared() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cleared
}

func (m *MockPWMDriver) Duty(pin PWMPin) PWMValue {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duty[pin]
}

// MockAlarmDriver is a manually advanced microsecond timer
type MockAlarmDriver struct {
	now      uint32
	deadline uint32
	ops      []string
}

func (m *MockAlarmDriver) Now() uint32 {
	return m.now
}

func (m *MockAlarmDriver) Arm(deadline uint32) {
	m.deadline = deadline
	m.ops = append(m.ops, "arm")
}

func (m *MockAlarmDriver) ClearIRQ() {
	m.ops = append(m.ops, "clear")
}

type countingWatchdog struct {
	updates int
}

func (w *countingWatchdog) Update() {
	w.updates++
}

// testConfig returns the board defaults used throughout the tests
func testConfig() Config {
	return Config{
		PWMPeriodUS:       50,
		PWMCountMax:       12,
		PWMPrescaler:      25,
		BlinkMax:          800,
		Loop:              LoopSpeed,
		ComMagMin:         125,
		ComMagMax:         250,
		SpeedCmdMin:       50,
		SpeedLoopCountMax: 10,
		DebounceLow:       5,
		DebounceHigh:      20,
		DebounceInitial:   128,
		Pins: PinConfig{
			LEDYellow: 2,
			LEDGreen:  3,
			LEDRed:    4,
			DirSwitch: 5,
			Phase:     [6]PWMPin{10, 11, 12, 13, 14, 15},
			CommandIn: 0,
			BusIn:     1,
			BackEMFIn: 2,
			CurrentIn: 3,
			I2CSDA:    6,
			I2CSCL:    7,
		},
	}
}

type testRig struct {
	gpio  *MockGPIODriver
	adc   *MockADCDriver
	pwm   *MockPWMDriver
	alarm *MockAlarmDriver
	fw    *Firmware
}

func newTestRig(cfg Config, hooks Hooks) (*testRig, error) {
	r := &testRig{
		gpio:  NewMockGPIODriver(),
		adc:   NewMockADCDriver(),
		pwm:   NewMockPWMDriver(),
		alarm: &MockAlarmDriver{},
	}
	fw, err := New(cfg, Drivers{GPIO: r.gpio, PWM: r.pwm, ADC: r.adc, Alarm: r.alarm}, hooks)
	if err != nil {
		return nil, err
	}
	r.fw = fw
	return r, nil
}
