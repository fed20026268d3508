package thermostat

import (
	"fmt"
	"sort"
	"strings"
)

// RouterOptions configures a Router.
type RouterOptions struct {
	// Prefix is the first topic level every device publishes under.
	Prefix string

	// Registry creates the accessory for each added device. Optional.
	Registry AccessoryRegistry

	// Publisher, Observer and Logger are handed to every Machine.
	Publisher Publisher
	Observer  Observer
	Logger    Logger
}

// SyncResult counts what Sync changed.
type SyncResult struct {
	Added   int
	Removed int
	Kept    int
}

// Router owns the serial to Machine arena and dispatches topic messages
// to the owning machine. It is not safe for concurrent use.
type Router struct {
	prefix   string
	registry AccessoryRegistry
	opts     MachineOptions
	logger   Logger
	machines map[string]*Machine
}

// NewRouter creates an empty router.
func NewRouter(opts RouterOptions) (*Router, error) {
	if opts.Prefix == "" || strings.ContainsAny(opts.Prefix, "/+#") {
		return nil, fmt.Errorf("thermostat: invalid topic prefix %q", opts.Prefix)
	}
	logger := opts.Logger
	if logger == nil {
		logger = nopLogger{}
	}
	return &Router{
		prefix:   opts.Prefix,
		registry: opts.Registry,
		opts: MachineOptions{
			Publisher: opts.Publisher,
			Observer:  opts.Observer,
			Logger:    logger,
		},
		logger:   logger,
		machines: make(map[string]*Machine),
	}, nil
}

// Prefix returns the configured topic prefix.
func (r *Router) Prefix() string {
	return r.prefix
}

// AddDevice creates the machine for id and attaches its accessory.
func (r *Router) AddDevice(id Identity) (*Machine, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	if _, exists := r.machines[id.Serial]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateDevice, id.Serial)
	}

	m := NewMachine(id, r.opts)
	if r.registry != nil {
		acc, err := r.registry.Attach(id, m)
		if err != nil {
			return nil, fmt.Errorf("attaching accessory for %s: %w", id.Serial, err)
		}
		m.AttachAccessory(acc)
	}

	r.machines[id.Serial] = m
	r.logger.Info("thermostat added", "serial", id.Serial, "name", id.Name)
	return m, nil
}

// RemoveDevice discards the machine and its accessory.
func (r *Router) RemoveDevice(serial string) error {
	m, ok := r.machines[serial]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownDevice, serial)
	}
	delete(r.machines, serial)
	m.AttachAccessory(nil)
	if ro, ok := r.opts.Observer.(RemovalObserver); ok {
		ro.DeviceRemoved(m.Identity())
	}

	if r.registry != nil {
		if err := r.registry.Detach(serial); err != nil {
			return fmt.Errorf("detaching accessory for %s: %w", serial, err)
		}
	}
	r.logger.Info("thermostat removed", "serial", serial)
	return nil
}

// Sync makes the arena match ids: unknown serials are added, serials not
// in ids are removed, the rest are kept untouched.
func (r *Router) Sync(ids []Identity) (SyncResult, error) {
	var res SyncResult
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id.Serial] = true
	}

	for _, serial := range r.Serials() {
		if wanted[serial] {
			continue
		}
		if err := r.RemoveDevice(serial); err != nil {
			return res, err
		}
		res.Removed++
	}

	for _, id := range ids {
		if _, ok := r.machines[id.Serial]; ok {
			res.Kept++
			continue
		}
		if _, err := r.AddDevice(id); err != nil {
			return res, err
		}
		res.Added++
	}

	r.logger.Info("thermostats synchronised",
		"added", res.Added,
		"removed", res.Removed,
		"kept", res.Kept,
	)
	return res, nil
}

// Machine returns the machine for serial.
func (r *Router) Machine(serial string) (*Machine, bool) {
	m, ok := r.machines[serial]
	return m, ok
}

// Serials returns the configured serials in sorted order.
func (r *Router) Serials() []string {
	serials := make([]string, 0, len(r.machines))
	for s := range r.machines {
		serials = append(serials, s)
	}
	sort.Strings(serials)
	return serials
}

// Subscriptions returns every topic the transport must subscribe to.
func (r *Router) Subscriptions() []string {
	var topics []string
	for _, serial := range r.Serials() {
		topics = append(topics, DeviceTopics(r.prefix, serial)...)
	}
	return topics
}

// Route parses topic, decodes payload and applies it to the owning
// machine. The returned error says why a message was dropped; none of
// them are fatal and callers normally only count them.
func (r *Router) Route(topic string, payload []byte) error {
	addr, err := ParseTopic(topic)
	if err != nil {
		return err
	}
	if addr.Prefix != r.prefix {
		return fmt.Errorf("%w: %q", ErrForeignPrefix, topic)
	}
	m, ok := r.machines[addr.Serial]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownDevice, addr.Serial)
	}
	return r.dispatch(m, addr, DecodePayload(payload))
}

func (r *Router) dispatch(m *Machine, addr Address, v Value) error {
	// current_temperature and availability are matched on field alone.
	switch addr.Field {
	case FieldCurrentTemperature:
		f, err := number(addr, v)
		if err != nil {
			return err
		}
		m.UpdateCurrentTemperature(f)
		return nil
	case FieldAvailability:
		r.logger.Debug("thermostat availability", "serial", addr.Serial, "scope", addr.Scope, "value", v.Text())
		return nil
	}

	switch addr.Scope + "/" + addr.Field {
	case ScopeShared + "/" + FieldTargetTemperature:
		f, err := number(addr, v)
		if err != nil {
			return err
		}
		m.UpdateTargetTemperature(f)
	case ScopeShared + "/" + FieldTargetTemperatureLow:
		f, err := number(addr, v)
		if err != nil {
			return err
		}
		m.UpdateTargetTemperatureLow(f)
	case ScopeShared + "/" + FieldTargetTemperatureHigh:
		f, err := number(addr, v)
		if err != nil {
			return err
		}
		m.UpdateTargetTemperatureHigh(f)
	case ScopeShared + "/" + FieldTargetTemperatureType:
		m.UpdateMode(v.Text())
	case ScopeDevice + "/" + FieldFanTimerActive:
		b, err := boolean(addr, v)
		if err != nil {
			return err
		}
		m.UpdateFanState(b)
	case ScopeDevice + "/" + FieldAway:
		away, err := boolean(addr, v)
		if err != nil {
			return err
		}
		m.UpdateOccupancy(!away)
	default:
		return fmt.Errorf("%w: %s/%s", ErrUnhandledField, addr.Scope, addr.Field)
	}
	return nil
}

func number(addr Address, v Value) (float64, error) {
	f, ok := v.Float()
	if !ok {
		return 0, fmt.Errorf("%w: %s/%s expects a number, got %s", ErrInvalidValue, addr.Scope, addr.Field, v)
	}
	return f, nil
}

func boolean(addr Address, v Value) (bool, error) {
	b, ok := v.Bool()
	if !ok {
		return false, fmt.Errorf("%w: %s/%s expects a boolean, got %s", ErrInvalidValue, addr.Scope, addr.Field, v)
	}
	return b, nil
}
