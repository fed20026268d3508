package thermostat

import (
	"strconv"
)

// MachineOptions holds the collaborators of a Machine. Nil fields are
// replaced with no-ops.
type MachineOptions struct {
	Publisher Publisher
	Observer  Observer
	Logger    Logger
}

// Machine holds the synchronised state of one thermostat.
//
// Inbound Update* operations apply values reported by the device and push
// them to the accessory. Outbound Request* operations apply values chosen
// on the accessory and publish a command for the device. A Machine is not
// safe for concurrent use; drive it from a Loop.
type Machine struct {
	id        Identity
	state     State
	accessory Accessory
	publisher Publisher
	observer  Observer
	logger    Logger
}

// NewMachine creates a machine in the initial state: mode off, activity
// off, occupied, all temperatures unknown.
func NewMachine(id Identity, opts MachineOptions) *Machine {
	m := &Machine{
		id:        id,
		state:     newState(),
		accessory: nopAccessory{},
		publisher: opts.Publisher,
		observer:  opts.Observer,
		logger:    opts.Logger,
	}
	if m.publisher == nil {
		m.publisher = nopPublisher{}
	}
	if m.logger == nil {
		m.logger = nopLogger{}
	}
	return m
}

// Identity returns the configured identity.
func (m *Machine) Identity() Identity {
	return m.id
}

// Serial returns the device serial.
func (m *Machine) Serial() string {
	return m.id.Serial
}

// AttachAccessory binds the accessory and pushes the full current state to
// it so its values match the getters. A nil accessory detaches.
func (m *Machine) AttachAccessory(acc Accessory) {
	if acc == nil {
		m.accessory = nopAccessory{}
		return
	}
	m.accessory = acc
	acc.SetCurrentTemperature(m.CurrentTemperature())
	acc.SetTargetTemperature(m.TargetTemperature())
	acc.SetTargetTemperatureLow(m.TargetTemperatureLow())
	acc.SetTargetTemperatureHigh(m.TargetTemperatureHigh())
	acc.SetTargetMode(m.TargetMode())
	acc.SetCurrentActivity(m.state.Activity)
	acc.SetFanActive(m.state.FanActive)
	acc.SetOccupied(m.state.Occupied)
}

// Snapshot returns a copy of the current state.
func (m *Machine) Snapshot() State {
	return m.state.clone()
}

// Getters used by the accessory's get hooks. Unknown temperatures read as
// the package defaults.

// CurrentTemperature returns the ambient reading.
func (m *Machine) CurrentTemperature() float64 {
	return valueOr(m.state.CurrentTemperature, DefaultCurrentTemperature)
}

// TargetTemperature returns the single setpoint.
func (m *Machine) TargetTemperature() float64 {
	return valueOr(m.state.TargetTemperature, DefaultTargetTemperature)
}

// TargetTemperatureLow returns the lower range bound.
func (m *Machine) TargetTemperatureLow() float64 {
	return valueOr(m.state.TargetTemperatureLow, DefaultTargetTemperatureLow)
}

// TargetTemperatureHigh returns the upper range bound.
func (m *Machine) TargetTemperatureHigh() float64 {
	return valueOr(m.state.TargetTemperatureHigh, DefaultTargetTemperatureHigh)
}

// Mode returns the device mode.
func (m *Machine) Mode() DeviceMode {
	return m.state.Mode
}

// TargetMode returns the device mode in accessory vocabulary.
func (m *Machine) TargetMode() AccessoryMode {
	return ToAccessoryMode(m.state.Mode)
}

// CurrentActivity returns the derived heating/cooling activity.
func (m *Machine) CurrentActivity() Activity {
	return m.state.Activity
}

// FanActive reports whether the fan timer is running.
func (m *Machine) FanActive() bool {
	return m.state.FanActive
}

// Occupied reports whether the device considers the home occupied.
func (m *Machine) Occupied() bool {
	return m.state.Occupied
}

// UpdateCurrentTemperature applies an ambient reading from the device.
func (m *Machine) UpdateCurrentTemperature(celsius float64) {
	m.state.CurrentTemperature = floatPtr(celsius)
	m.accessory.SetCurrentTemperature(celsius)
	m.recomputeActivity()
	m.logger.Debug("current temperature updated", "serial", m.id.Serial, "value", celsius)
	m.notify(FieldCurrentTemperature, OriginDevice)
}

// UpdateTargetTemperature applies the single setpoint from the device.
// The activity is not recomputed.
func (m *Machine) UpdateTargetTemperature(celsius float64) {
	m.state.TargetTemperature = floatPtr(celsius)
	m.accessory.SetTargetTemperature(celsius)
	m.logger.Debug("target temperature updated", "serial", m.id.Serial, "value", celsius)
	m.notify(FieldTargetTemperature, OriginDevice)
}

// UpdateTargetTemperatureLow applies the lower range bound from the device.
func (m *Machine) UpdateTargetTemperatureLow(celsius float64) {
	m.state.TargetTemperatureLow = floatPtr(celsius)
	m.accessory.SetTargetTemperatureLow(celsius)
	m.logger.Debug("target temperature low updated", "serial", m.id.Serial, "value", celsius)
	m.notify(FieldTargetTemperatureLow, OriginDevice)
}

// UpdateTargetTemperatureHigh applies the upper range bound from the device.
func (m *Machine) UpdateTargetTemperatureHigh(celsius float64) {
	m.state.TargetTemperatureHigh = floatPtr(celsius)
	m.accessory.SetTargetTemperatureHigh(celsius)
	m.logger.Debug("target temperature high updated", "serial", m.id.Serial, "value", celsius)
	m.notify(FieldTargetTemperatureHigh, OriginDevice)
}

// UpdateMode applies a device mode string. Unrecognised strings are
// stored as off.
func (m *Machine) UpdateMode(deviceMode string) {
	m.state.Mode = ParseDeviceMode(deviceMode)
	m.accessory.SetTargetMode(ToAccessoryMode(m.state.Mode))
	m.recomputeActivity()
	m.logger.Debug("mode updated", "serial", m.id.Serial, "mode", m.state.Mode)
	m.notify(FieldTargetTemperatureType, OriginDevice)
}

// UpdateFanState applies the fan timer flag from the device.
func (m *Machine) UpdateFanState(active bool) {
	m.state.FanActive = active
	m.accessory.SetFanActive(active)
	m.logger.Debug("fan state updated", "serial", m.id.Serial, "active", active)
	m.notify(FieldFanTimerActive, OriginDevice)
}

// UpdateOccupancy applies occupancy. The device reports "away"; callers
// invert it.
func (m *Machine) UpdateOccupancy(occupied bool) {
	m.state.Occupied = occupied
	m.accessory.SetOccupied(occupied)
	m.logger.Debug("occupancy updated", "serial", m.id.Serial, "occupied", occupied)
	m.notify(FieldAway, OriginDevice)
}

// RequestTargetTemperature sets the setpoint locally and publishes it.
func (m *Machine) RequestTargetTemperature(celsius float64) {
	m.state.TargetTemperature = floatPtr(celsius)
	m.publish(ScopeShared, FieldTargetTemperature, formatNumber(celsius))
	m.notify(FieldTargetTemperature, OriginAccessory)
}

// RequestTargetTemperatureLow sets the lower bound locally and publishes it.
func (m *Machine) RequestTargetTemperatureLow(celsius float64) {
	m.state.TargetTemperatureLow = floatPtr(celsius)
	m.publish(ScopeShared, FieldTargetTemperatureLow, formatNumber(celsius))
	m.notify(FieldTargetTemperatureLow, OriginAccessory)
}

// RequestTargetTemperatureHigh sets the upper bound locally and publishes it.
func (m *Machine) RequestTargetTemperatureHigh(celsius float64) {
	m.state.TargetTemperatureHigh = floatPtr(celsius)
	m.publish(ScopeShared, FieldTargetTemperatureHigh, formatNumber(celsius))
	m.notify(FieldTargetTemperatureHigh, OriginAccessory)
}

// RequestModeChange translates the accessory mode, applies it locally,
// recomputes the activity and publishes the device mode string.
func (m *Machine) RequestModeChange(mode AccessoryMode) {
	m.state.Mode = ToDeviceMode(mode)
	if normalised := ToAccessoryMode(m.state.Mode); normalised != mode {
		m.accessory.SetTargetMode(normalised)
	}
	m.recomputeActivity()
	m.publish(ScopeShared, FieldTargetTemperatureType, string(m.state.Mode))
	m.notify(FieldTargetTemperatureType, OriginAccessory)
}

// RequestFanActive sets the fan timer locally and publishes it.
func (m *Machine) RequestFanActive(active bool) {
	m.state.FanActive = active
	m.publish(ScopeDevice, FieldFanTimerActive, strconv.FormatBool(active))
	m.notify(FieldFanTimerActive, OriginAccessory)
}

func (m *Machine) recomputeActivity() {
	prev := m.state.Activity
	m.state.Activity = deriveActivity(m.state.Mode, m.state.CurrentTemperature, m.state.TargetTemperature, prev)
	m.accessory.SetCurrentActivity(m.state.Activity)
	if m.state.Activity != prev {
		m.logger.Debug("activity changed", "serial", m.id.Serial, "from", prev, "to", m.state.Activity)
	}
}

func (m *Machine) publish(scope, field, payload string) {
	m.publisher.PublishCommand(Command{
		Serial:  m.id.Serial,
		Scope:   scope,
		Field:   field,
		Payload: payload,
	})
}

func (m *Machine) notify(field string, origin Origin) {
	if m.observer == nil {
		return
	}
	m.observer.StateChanged(Change{
		Identity: m.id,
		Field:    field,
		Origin:   origin,
		State:    m.state.clone(),
	})
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
