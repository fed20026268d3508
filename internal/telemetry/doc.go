// Package telemetry observes thermostat state changes and exports them.
//
// Metrics exposes the current state of every thermostat and counters for
// routed, dropped and published messages as Prometheus collectors.
// History appends each state change to a time series store (InfluxDB).
//
// Both implement thermostat.Observer and can be combined with
// thermostat.Observers.
package telemetry
