package thermostat

import (
	"fmt"
	"strings"
)

// Topic scopes published by the thermostat.
const (
	ScopeShared = "shared"
	ScopeDevice = "device"
)

// Fields the bridge consumes or commands.
const (
	FieldCurrentTemperature    = "current_temperature"
	FieldTargetTemperature     = "target_temperature"
	FieldTargetTemperatureLow  = "target_temperature_low"
	FieldTargetTemperatureHigh = "target_temperature_high"
	FieldTargetTemperatureType = "target_temperature_type"
	FieldFanTimerActive        = "fan_timer_active"
	FieldAway                  = "away"
	FieldAvailability          = "availability"
)

// Fields that only appear in Change, never on the wire.
const (
	FieldActivity = "activity"
)

// minTopicLevels is prefix/serial/scope/field.
const minTopicLevels = 4

// commandSuffix is appended to a state topic to address the device.
const commandSuffix = "set"

// Address is a parsed state topic.
type Address struct {
	Prefix string
	Serial string
	Scope  string
	Field  string
}

// ParseTopic splits a state topic into its four leading levels. Extra
// levels are ignored.
func ParseTopic(topic string) (Address, error) {
	parts := strings.Split(topic, "/")
	if len(parts) < minTopicLevels {
		return Address{}, fmt.Errorf("%w: %q", ErrMalformedTopic, topic)
	}
	return Address{
		Prefix: parts[0],
		Serial: parts[1],
		Scope:  parts[2],
		Field:  parts[3],
	}, nil
}

// StateTopic returns <prefix>/<serial>/<scope>/<field>.
func StateTopic(prefix, serial, scope, field string) string {
	return fmt.Sprintf("%s/%s/%s/%s", prefix, serial, scope, field)
}

// CommandTopic returns <prefix>/<serial>/<scope>/<field>/set.
func CommandTopic(prefix, serial, scope, field string) string {
	return StateTopic(prefix, serial, scope, field) + "/" + commandSuffix
}

// DeviceTopics lists every topic the bridge subscribes to for one device.
// Availability is only taken at <scope>/availability; a three-level
// <prefix>/<serial>/availability is not subscribed.
func DeviceTopics(prefix, serial string) []string {
	return []string{
		StateTopic(prefix, serial, ScopeShared, FieldCurrentTemperature),
		StateTopic(prefix, serial, ScopeDevice, FieldCurrentTemperature),
		StateTopic(prefix, serial, ScopeShared, FieldTargetTemperature),
		StateTopic(prefix, serial, ScopeShared, FieldTargetTemperatureLow),
		StateTopic(prefix, serial, ScopeShared, FieldTargetTemperatureHigh),
		StateTopic(prefix, serial, ScopeShared, FieldTargetTemperatureType),
		StateTopic(prefix, serial, ScopeDevice, FieldFanTimerActive),
		StateTopic(prefix, serial, ScopeDevice, FieldAway),
		StateTopic(prefix, serial, "+", FieldAvailability),
	}
}
