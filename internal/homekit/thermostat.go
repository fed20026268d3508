package homekit

import (
	"github.com/brutella/hap/accessory"
	"github.com/brutella/hap/characteristic"
	"github.com/brutella/hap/service"

	"github.com/nerrad567/nolongerevil-bridge/internal/thermostat"
)

// HomeKit value encodings.
const (
	inactive    = 0
	active      = 1
	notOccupied = 0
	occupied    = 1
)

// Thermostat is the HomeKit accessory for one device. It implements
// thermostat.Accessory.
type Thermostat struct {
	*accessory.A

	Thermostat       *service.Thermostat
	HeatingThreshold *characteristic.HeatingThresholdTemperature
	CoolingThreshold *characteristic.CoolingThresholdTemperature
	Fan              *service.FanV2
	Occupancy        *service.OccupancySensor
}

// NewThermostat builds the accessory and its services.
func NewThermostat(info accessory.Info, units thermostat.DisplayUnits) *Thermostat {
	t := &Thermostat{}
	a := accessory.NewThermostat(info)
	t.A = a.A
	t.Thermostat = a.Thermostat

	t.Thermostat.TemperatureDisplayUnits.SetValue(int(units))

	t.HeatingThreshold = characteristic.NewHeatingThresholdTemperature()
	t.Thermostat.AddC(t.HeatingThreshold.C)
	t.CoolingThreshold = characteristic.NewCoolingThresholdTemperature()
	t.Thermostat.AddC(t.CoolingThreshold.C)

	t.Fan = service.NewFanV2()
	t.Fan.AddC(named(info.Name + " Fan").C)
	t.AddS(t.Fan.S)

	t.Occupancy = service.NewOccupancySensor()
	t.Occupancy.AddC(named(info.Name + " Occupancy").C)
	t.AddS(t.Occupancy.S)

	return t
}

func named(name string) *characteristic.Name {
	n := characteristic.NewName()
	n.SetValue(name)
	return n
}

// SetCurrentTemperature implements thermostat.Accessory.
func (t *Thermostat) SetCurrentTemperature(celsius float64) {
	t.Thermostat.CurrentTemperature.SetValue(celsius)
}

// SetTargetTemperature implements thermostat.Accessory.
func (t *Thermostat) SetTargetTemperature(celsius float64) {
	t.Thermostat.TargetTemperature.SetValue(celsius)
}

// SetTargetTemperatureLow implements thermostat.Accessory.
func (t *Thermostat) SetTargetTemperatureLow(celsius float64) {
	t.HeatingThreshold.SetValue(celsius)
}

// SetTargetTemperatureHigh implements thermostat.Accessory.
func (t *Thermostat) SetTargetTemperatureHigh(celsius float64) {
	t.CoolingThreshold.SetValue(celsius)
}

// SetTargetMode implements thermostat.Accessory.
func (t *Thermostat) SetTargetMode(mode thermostat.AccessoryMode) {
	t.Thermostat.TargetHeatingCoolingState.SetValue(int(mode))
}

// SetCurrentActivity implements thermostat.Accessory.
func (t *Thermostat) SetCurrentActivity(activity thermostat.Activity) {
	t.Thermostat.CurrentHeatingCoolingState.SetValue(int(activity))
}

// SetFanActive implements thermostat.Accessory.
func (t *Thermostat) SetFanActive(on bool) {
	v := inactive
	if on {
		v = active
	}
	t.Fan.Active.SetValue(v)
}

// SetOccupied implements thermostat.Accessory.
func (t *Thermostat) SetOccupied(home bool) {
	v := notOccupied
	if home {
		v = occupied
	}
	t.Occupancy.OccupancyDetected.SetValue(v)
}
