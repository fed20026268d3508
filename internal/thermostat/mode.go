package thermostat

// DeviceMode is the thermostat's own mode vocabulary, carried on
// shared/target_temperature_type.
type DeviceMode string

// Device modes.
const (
	ModeOff   DeviceMode = "off"
	ModeHeat  DeviceMode = "heat"
	ModeCool  DeviceMode = "cool"
	ModeRange DeviceMode = "range"
)

// AccessoryMode is the accessory's target heating/cooling state. Values
// match the HomeKit TargetHeatingCoolingState characteristic.
type AccessoryMode int

// Accessory modes.
const (
	AccessoryOff  AccessoryMode = 0
	AccessoryHeat AccessoryMode = 1
	AccessoryCool AccessoryMode = 2
	AccessoryAuto AccessoryMode = 3
)

// String returns the accessory mode name.
func (m AccessoryMode) String() string {
	switch m {
	case AccessoryOff:
		return "OFF"
	case AccessoryHeat:
		return "HEAT"
	case AccessoryCool:
		return "COOL"
	case AccessoryAuto:
		return "AUTO"
	default:
		return "UNKNOWN"
	}
}

// ParseDeviceMode matches a raw mode string exactly. Anything else,
// including "HEAT" or " heat", becomes ModeOff.
func ParseDeviceMode(s string) DeviceMode {
	switch m := DeviceMode(s); m {
	case ModeOff, ModeHeat, ModeCool, ModeRange:
		return m
	default:
		return ModeOff
	}
}

// ToAccessoryMode maps a device mode to the accessory vocabulary.
// range maps to AUTO; unrecognised modes map to OFF.
func ToAccessoryMode(m DeviceMode) AccessoryMode {
	switch m {
	case ModeHeat:
		return AccessoryHeat
	case ModeCool:
		return AccessoryCool
	case ModeRange:
		return AccessoryAuto
	default:
		return AccessoryOff
	}
}

// ToDeviceMode maps an accessory mode to the device vocabulary.
// AUTO maps to range; unrecognised values map to off.
func ToDeviceMode(m AccessoryMode) DeviceMode {
	switch m {
	case AccessoryHeat:
		return ModeHeat
	case AccessoryCool:
		return ModeCool
	case AccessoryAuto:
		return ModeRange
	default:
		return ModeOff
	}
}
