package telemetry

import (
	"github.com/nerrad567/nolongerevil-bridge/internal/thermostat"
)

// Measurement is the InfluxDB measurement thermostat changes are written to.
const Measurement = "thermostat"

// PointWriter queues one time series point. *influxdb.Client implements it.
type PointWriter interface {
	WritePoint(measurement string, tags map[string]string, fields map[string]interface{})
}

// History writes every state change as a point.
type History struct {
	writer PointWriter
}

// NewHistory returns a History writing through w.
func NewHistory(w PointWriter) *History {
	return &History{writer: w}
}

// StateChanged implements thermostat.Observer.
func (h *History) StateChanged(change thermostat.Change) {
	tags := map[string]string{
		"serial": change.Identity.Serial,
		"name":   change.Identity.Name,
		"origin": string(change.Origin),
		"field":  change.Field,
	}
	h.writer.WritePoint(Measurement, tags, fields(change.State))
}

func fields(s thermostat.State) map[string]interface{} {
	f := map[string]interface{}{
		"mode":       string(s.Mode),
		"activity":   int64(s.Activity),
		"fan_active": s.FanActive,
		"occupied":   s.Occupied,
	}
	if s.CurrentTemperature != nil {
		f["current_temperature"] = *s.CurrentTemperature
	}
	if s.TargetTemperature != nil {
		f["target_temperature"] = *s.TargetTemperature
	}
	if s.TargetTemperatureLow != nil {
		f["target_temperature_low"] = *s.TargetTemperatureLow
	}
	if s.TargetTemperatureHigh != nil {
		f["target_temperature_high"] = *s.TargetTemperatureHigh
	}
	return f
}
