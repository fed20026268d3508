package thermostat

import (
	"fmt"
	"math"
	"strings"
)

// Values reported through the get hooks before the device has sent one.
const (
	DefaultCurrentTemperature    = 20.0
	DefaultTargetTemperature     = 20.0
	DefaultTargetTemperatureLow  = 18.0
	DefaultTargetTemperatureHigh = 24.0
)

// activityThreshold is the setpoint differential, in degrees, inside which
// the thermostat is considered idle.
const activityThreshold = 0.5

// DisplayUnits selects how the accessory presents temperatures. Values
// match the HomeKit TemperatureDisplayUnits characteristic.
type DisplayUnits int

// Display units.
const (
	Celsius    DisplayUnits = 0
	Fahrenheit DisplayUnits = 1
)

// ParseDisplayUnits accepts CELSIUS or FAHRENHEIT in any case; an empty
// string is Celsius.
func ParseDisplayUnits(s string) (DisplayUnits, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "CELSIUS":
		return Celsius, nil
	case "FAHRENHEIT":
		return Fahrenheit, nil
	default:
		return Celsius, fmt.Errorf("unknown temperature display units %q", s)
	}
}

// String returns the configuration spelling of the units.
func (u DisplayUnits) String() string {
	if u == Fahrenheit {
		return "FAHRENHEIT"
	}
	return "CELSIUS"
}

// Identity is the immutable description of one configured thermostat.
type Identity struct {
	Serial       string
	Name         string
	DisplayUnits DisplayUnits
}

// Validate checks the identity can be routed.
func (id Identity) Validate() error {
	if id.Serial == "" {
		return fmt.Errorf("%w: serial is required", ErrInvalidIdentity)
	}
	if strings.ContainsAny(id.Serial, "/+#") {
		return fmt.Errorf("%w: serial %q contains topic separators", ErrInvalidIdentity, id.Serial)
	}
	return nil
}

// Activity is the derived heating/cooling status. Values match the HomeKit
// CurrentHeatingCoolingState characteristic.
type Activity int

// Activities.
const (
	ActivityOff     Activity = 0
	ActivityHeating Activity = 1
	ActivityCooling Activity = 2
)

// String returns the activity name.
func (a Activity) String() string {
	switch a {
	case ActivityHeating:
		return "heating"
	case ActivityCooling:
		return "cooling"
	default:
		return "off"
	}
}

// State is one device's synchronised attribute set. Temperatures are nil
// until the first value is received or requested.
type State struct {
	CurrentTemperature    *float64   `json:"current_temperature,omitempty"`
	TargetTemperature     *float64   `json:"target_temperature,omitempty"`
	TargetTemperatureLow  *float64   `json:"target_temperature_low,omitempty"`
	TargetTemperatureHigh *float64   `json:"target_temperature_high,omitempty"`
	Mode                  DeviceMode `json:"mode"`
	Activity              Activity   `json:"activity"`
	FanActive             bool       `json:"fan_active"`
	Occupied              bool       `json:"occupied"`
}

// newState returns the state of a device nothing has been heard from.
func newState() State {
	return State{
		Mode:     ModeOff,
		Activity: ActivityOff,
		Occupied: true,
	}
}

// clone copies the state so the copy shares no pointers with the original.
func (s State) clone() State {
	c := s
	c.CurrentTemperature = copyFloat(s.CurrentTemperature)
	c.TargetTemperature = copyFloat(s.TargetTemperature)
	c.TargetTemperatureLow = copyFloat(s.TargetTemperatureLow)
	c.TargetTemperatureHigh = copyFloat(s.TargetTemperatureHigh)
	return c
}

func copyFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func floatPtr(v float64) *float64 {
	return &v
}

func valueOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

// deriveActivity computes the heating/cooling activity from the mode and
// the single-setpoint differential. When either temperature is unknown the
// previous activity is kept, except that off always wins.
func deriveActivity(mode DeviceMode, current, target *float64, previous Activity) Activity {
	if mode == ModeOff {
		return ActivityOff
	}
	if current == nil || target == nil {
		return previous
	}

	diff := *target - *current
	switch {
	case math.Abs(diff) < activityThreshold:
		return ActivityOff
	case diff > activityThreshold && (mode == ModeHeat || mode == ModeRange):
		return ActivityHeating
	case diff < -activityThreshold && (mode == ModeCool || mode == ModeRange):
		return ActivityCooling
	default:
		return ActivityOff
	}
}
