package homekit

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/brutella/hap/accessory"

	"github.com/nerrad567/nolongerevil-bridge/internal/catalog"
	"github.com/nerrad567/nolongerevil-bridge/internal/thermostat"
)

// catalogTimeout bounds each catalog call made while attaching.
const catalogTimeout = 5 * time.Second

// Catalog stores accessory identities. *catalog.Catalog implements it.
type Catalog interface {
	Ensure(ctx context.Context, serial, name string) (*catalog.Record, bool, error)
	Remove(ctx context.Context, serial string) error
}

// Submitter runs a task on the thermostat loop. *thermostat.Loop
// implements it.
type Submitter interface {
	Submit(task func()) error
}

// Logger is the structured logger used by this package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// RegistryOptions configures a Registry.
type RegistryOptions struct {
	Manufacturer string
	Model        string
	Firmware     string

	Catalog Catalog
	Loop    Submitter
	Logger  Logger
}

// Registry creates one HomeKit accessory per thermostat.
//
// Thread Safety: all methods are safe for concurrent use.
type Registry struct {
	opts RegistryOptions

	mu          sync.RWMutex
	accessories map[string]*Thermostat
}

// NewRegistry creates an empty registry.
func NewRegistry(opts RegistryOptions) (*Registry, error) {
	if opts.Catalog == nil {
		return nil, fmt.Errorf("catalog is required")
	}
	if opts.Loop == nil {
		return nil, fmt.Errorf("loop is required")
	}
	return &Registry{
		opts:        opts,
		accessories: make(map[string]*Thermostat),
	}, nil
}

// Attach implements thermostat.AccessoryRegistry.
func (r *Registry) Attach(id thermostat.Identity, m *thermostat.Machine) (thermostat.Accessory, error) {
	ctx, cancel := context.WithTimeout(context.Background(), catalogTimeout)
	defer cancel()

	rec, _, err := r.opts.Catalog.Ensure(ctx, id.Serial, id.Name)
	if err != nil {
		return nil, err
	}

	acc := NewThermostat(accessory.Info{
		Name:         id.Name,
		SerialNumber: id.Serial,
		Manufacturer: r.opts.Manufacturer,
		Model:        r.opts.Model,
		Firmware:     r.opts.Firmware,
	}, id.DisplayUnits)
	acc.Id = rec.AccessoryID

	r.bind(acc, &controls{serial: id.Serial, machine: m, loop: r.opts.Loop, logger: r.opts.Logger})

	r.mu.Lock()
	r.accessories[id.Serial] = acc
	r.mu.Unlock()

	return acc, nil
}

// Detach implements thermostat.AccessoryRegistry. The catalog record is
// removed so the serial gets a fresh identity if it returns.
func (r *Registry) Detach(serial string) error {
	r.mu.Lock()
	delete(r.accessories, serial)
	r.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), catalogTimeout)
	defer cancel()
	return r.opts.Catalog.Remove(ctx, serial)
}

// Accessory returns the accessory for serial.
func (r *Registry) Accessory(serial string) (*Thermostat, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	acc, ok := r.accessories[serial]
	return acc, ok
}

// Accessories returns every accessory ordered by accessory ID.
func (r *Registry) Accessories() []*accessory.A {
	r.mu.RLock()
	defer r.mu.RUnlock()

	as := make([]*accessory.A, 0, len(r.accessories))
	for _, acc := range r.accessories {
		as = append(as, acc.A)
	}
	sort.Slice(as, func(i, j int) bool { return as[i].Id < as[j].Id })
	return as
}

// bind routes controller writes into the machine.
func (r *Registry) bind(acc *Thermostat, c *controls) {
	acc.Thermostat.TargetTemperature.OnValueRemoteUpdate(c.targetTemperature)
	acc.HeatingThreshold.OnValueRemoteUpdate(c.targetTemperatureLow)
	acc.CoolingThreshold.OnValueRemoteUpdate(c.targetTemperatureHigh)
	acc.Thermostat.TargetHeatingCoolingState.OnValueRemoteUpdate(c.targetMode)
	acc.Fan.Active.OnValueRemoteUpdate(c.fanActive)
	acc.Thermostat.TemperatureDisplayUnits.OnValueRemoteUpdate(c.displayUnits)
}

// controls are the set hooks of one accessory. They run on hap's
// goroutines and hand the work to the loop.
type controls struct {
	serial  string
	machine *thermostat.Machine
	loop    Submitter
	logger  Logger
}

func (c *controls) targetTemperature(v float64) {
	c.submit("target_temperature", v, func() { c.machine.RequestTargetTemperature(v) })
}

func (c *controls) targetTemperatureLow(v float64) {
	c.submit("target_temperature_low", v, func() { c.machine.RequestTargetTemperatureLow(v) })
}

func (c *controls) targetTemperatureHigh(v float64) {
	c.submit("target_temperature_high", v, func() { c.machine.RequestTargetTemperatureHigh(v) })
}

func (c *controls) targetMode(v int) {
	mode := thermostat.AccessoryMode(v)
	c.submit("target_mode", mode, func() { c.machine.RequestModeChange(mode) })
}

func (c *controls) fanActive(v int) {
	c.submit("fan_active", v, func() { c.machine.RequestFanActive(v == active) })
}

// displayUnits only affects how the controller renders temperatures.
func (c *controls) displayUnits(v int) {
	if c.logger != nil {
		c.logger.Debug("display units changed by controller", "serial", c.serial, "units", thermostat.DisplayUnits(v))
	}
}

func (c *controls) submit(what string, value any, task func()) {
	if c.logger != nil {
		c.logger.Debug("controller set", "serial", c.serial, "characteristic", what, "value", value)
	}
	if err := c.loop.Submit(task); err != nil && c.logger != nil {
		c.logger.Warn("controller set dropped", "serial", c.serial, "characteristic", what, "error", err)
	}
}
