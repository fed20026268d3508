package thermostat

import (
	"fmt"
	"sync"
)

// mockAccessory records every value pushed to it.
type mockAccessory struct {
	mu     sync.Mutex
	pushes []string

	current   float64
	target    float64
	low       float64
	high      float64
	mode      AccessoryMode
	activity  Activity
	fanActive bool
	occupied  bool
}

func (a *mockAccessory) record(format string, args ...any) {
	a.pushes = append(a.pushes, fmt.Sprintf(format, args...))
}

func (a *mockAccessory) SetCurrentTemperature(v float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.current = v
	a.record("current=%v", v)
}

func (a *mockAccessory) SetTargetTemperature(v float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.target = v
	a.record("target=%v", v)
}

func (a *mockAccessory) SetTargetTemperatureLow(v float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.low = v
	a.record("low=%v", v)
}

func (a *mockAccessory) SetTargetTemperatureHigh(v float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.high = v
	a.record("high=%v", v)
}

func (a *mockAccessory) SetTargetMode(m AccessoryMode) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.mode = m
	a.record("mode=%v", m)
}

func (a *mockAccessory) SetCurrentActivity(act Activity) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.activity = act
	a.record("activity=%v", act)
}

func (a *mockAccessory) SetFanActive(v bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.fanActive = v
	a.record("fan=%v", v)
}

func (a *mockAccessory) SetOccupied(v bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.occupied = v
	a.record("occupied=%v", v)
}

func (a *mockAccessory) reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pushes = nil
}

func (a *mockAccessory) history() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.pushes...)
}

// mockPublisher records published commands.
type mockPublisher struct {
	mu       sync.Mutex
	commands []Command
}

func (p *mockPublisher) PublishCommand(cmd Command) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.commands = append(p.commands, cmd)
}

func (p *mockPublisher) published() []Command {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Command(nil), p.commands...)
}

// mockObserver records state changes and removals.
type mockObserver struct {
	mu      sync.Mutex
	changes []Change
	removed []string
}

func (o *mockObserver) DeviceRemoved(id Identity) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.removed = append(o.removed, id.Serial)
}

func (o *mockObserver) removals() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.removed...)
}

func (o *mockObserver) StateChanged(c Change) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.changes = append(o.changes, c)
}

func (o *mockObserver) all() []Change {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Change(nil), o.changes...)
}

// mockRegistry hands out mockAccessory instances.
type mockRegistry struct {
	mu          sync.Mutex
	accessories map[string]*mockAccessory
	detached    []string
	attachErr   error
}

func newMockRegistry() *mockRegistry {
	return &mockRegistry{accessories: make(map[string]*mockAccessory)}
}

func (r *mockRegistry) Attach(id Identity, _ *Machine) (Accessory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.attachErr != nil {
		return nil, r.attachErr
	}
	acc := &mockAccessory{}
	r.accessories[id.Serial] = acc
	return acc, nil
}

func (r *mockRegistry) Detach(serial string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.accessories, serial)
	r.detached = append(r.detached, serial)
	return nil
}

func (r *mockRegistry) accessory(serial string) *mockAccessory {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.accessories[serial]
}

// mockLogger counts messages per level.
type mockLogger struct {
	mu     sync.Mutex
	errors []string
	debugs []string
}

func (l *mockLogger) Debug(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.debugs = append(l.debugs, msg)
}

func (l *mockLogger) Info(string, ...any) {}
func (l *mockLogger) Warn(string, ...any) {}

func (l *mockLogger) Error(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, msg)
}

func (l *mockLogger) errorCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.errors)
}
