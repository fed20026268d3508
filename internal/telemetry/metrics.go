package telemetry

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nerrad567/nolongerevil-bridge/internal/thermostat"
)

// Drop reasons used as the "reason" label.
const (
	ReasonMalformedTopic = "malformed_topic"
	ReasonForeignPrefix  = "foreign_prefix"
	ReasonUnknownDevice  = "unknown_device"
	ReasonUnhandledField = "unhandled_field"
	ReasonInvalidValue   = "invalid_value"
	ReasonOther          = "other"
)

// Metrics collects per-thermostat gauges and message counters.
type Metrics struct {
	currentTemp   *prometheus.GaugeVec
	targetTemp    *prometheus.GaugeVec
	targetLow     *prometheus.GaugeVec
	targetHigh    *prometheus.GaugeVec
	targetMode    *prometheus.GaugeVec
	activity      *prometheus.GaugeVec
	fanActive     *prometheus.GaugeVec
	occupied      *prometheus.GaugeVec
	lastChange    *prometheus.GaugeVec
	routed        prometheus.Counter
	dropped       *prometheus.CounterVec
	published     *prometheus.CounterVec
	mqttConnected prometheus.Gauge
}

// NewMetrics creates the collectors. Register the result with a
// prometheus.Registry.
func NewMetrics() *Metrics {
	labels := []string{"serial", "name"}
	return &Metrics{
		currentTemp: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "nlebridge_thermostat_current_temperature_celsius",
			Help: "Ambient temperature reported by the thermostat",
		}, labels),
		targetTemp: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "nlebridge_thermostat_target_temperature_celsius",
			Help: "Single setpoint",
		}, labels),
		targetLow: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "nlebridge_thermostat_target_temperature_low_celsius",
			Help: "Range mode lower bound (heating threshold)",
		}, labels),
		targetHigh: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "nlebridge_thermostat_target_temperature_high_celsius",
			Help: "Range mode upper bound (cooling threshold)",
		}, labels),
		targetMode: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "nlebridge_thermostat_target_mode",
			Help: "Target mode (0=off, 1=heat, 2=cool, 3=auto)",
		}, labels),
		activity: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "nlebridge_thermostat_activity",
			Help: "Derived activity (0=off, 1=heating, 2=cooling)",
		}, labels),
		fanActive: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "nlebridge_thermostat_fan_active_bool",
			Help: "Fan timer running (1=on, 0=off)",
		}, labels),
		occupied: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "nlebridge_thermostat_occupied_bool",
			Help: "Occupancy (1=home, 0=away)",
		}, labels),
		lastChange: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "nlebridge_thermostat_last_change_timestamp_seconds",
			Help: "Time of the last applied change (epoch seconds)",
		}, append(labels, "origin")),
		routed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nlebridge_mqtt_messages_routed_total",
			Help: "MQTT messages applied to a thermostat",
		}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nlebridge_mqtt_messages_dropped_total",
			Help: "MQTT messages dropped by the router",
		}, []string{"reason"}),
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nlebridge_commands_published_total",
			Help: "Commands published to thermostats",
		}, []string{"field", "result"}),
		mqttConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "nlebridge_mqtt_connected",
			Help: "MQTT connection state (1=connected, 0=disconnected)",
		}),
	}
}

// Describe implements prometheus.Collector.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range m.collectors() {
		c.Describe(ch)
	}
}

// Collect implements prometheus.Collector.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	for _, c := range m.collectors() {
		c.Collect(ch)
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.currentTemp,
		m.targetTemp,
		m.targetLow,
		m.targetHigh,
		m.targetMode,
		m.activity,
		m.fanActive,
		m.occupied,
		m.lastChange,
		m.routed,
		m.dropped,
		m.published,
		m.mqttConnected,
	}
}

// StateChanged implements thermostat.Observer.
func (m *Metrics) StateChanged(change thermostat.Change) {
	labels := prometheus.Labels{
		"serial": change.Identity.Serial,
		"name":   change.Identity.Name,
	}
	s := change.State

	if s.CurrentTemperature != nil {
		m.currentTemp.With(labels).Set(*s.CurrentTemperature)
	}
	if s.TargetTemperature != nil {
		m.targetTemp.With(labels).Set(*s.TargetTemperature)
	}
	if s.TargetTemperatureLow != nil {
		m.targetLow.With(labels).Set(*s.TargetTemperatureLow)
	}
	if s.TargetTemperatureHigh != nil {
		m.targetHigh.With(labels).Set(*s.TargetTemperatureHigh)
	}
	m.targetMode.With(labels).Set(float64(thermostat.ToAccessoryMode(s.Mode)))
	m.activity.With(labels).Set(float64(s.Activity))
	m.fanActive.With(labels).Set(boolToFloat(s.FanActive))
	m.occupied.With(labels).Set(boolToFloat(s.Occupied))

	m.lastChange.WithLabelValues(change.Identity.Serial, change.Identity.Name, string(change.Origin)).SetToCurrentTime()
}

// DeviceRemoved implements thermostat.RemovalObserver.
func (m *Metrics) DeviceRemoved(id thermostat.Identity) {
	m.Forget(id.Serial)
}

// Forget removes every series for serial.
func (m *Metrics) Forget(serial string) {
	match := prometheus.Labels{"serial": serial}
	for _, vec := range []*prometheus.GaugeVec{
		m.currentTemp, m.targetTemp, m.targetLow, m.targetHigh,
		m.targetMode, m.activity, m.fanActive, m.occupied, m.lastChange,
	} {
		vec.DeletePartialMatch(match)
	}
}

// CommandPublished implements thermostat.PublishObserver.
func (m *Metrics) CommandPublished(cmd thermostat.Command, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.published.WithLabelValues(cmd.Field, result).Inc()
}

// MessageRouted records the outcome of Router.Route.
func (m *Metrics) MessageRouted(err error) {
	if err == nil {
		m.routed.Inc()
		return
	}
	m.dropped.WithLabelValues(DropReason(err)).Inc()
}

// SetConnected records the MQTT connection state.
func (m *Metrics) SetConnected(connected bool) {
	m.mqttConnected.Set(boolToFloat(connected))
}

// DropReason maps a Route error to a metric label.
func DropReason(err error) string {
	switch {
	case errors.Is(err, thermostat.ErrMalformedTopic):
		return ReasonMalformedTopic
	case errors.Is(err, thermostat.ErrForeignPrefix):
		return ReasonForeignPrefix
	case errors.Is(err, thermostat.ErrUnknownDevice):
		return ReasonUnknownDevice
	case errors.Is(err, thermostat.ErrUnhandledField):
		return ReasonUnhandledField
	case errors.Is(err, thermostat.ErrInvalidValue):
		return ReasonInvalidValue
	default:
		return ReasonOther
	}
}

func boolToFloat(value bool) float64 {
	if value {
		return 1
	}
	return 0
}
