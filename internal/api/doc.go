// Package api implements the read-only HTTP status API for the bridge.
//
// This package provides:
//   - Health endpoint aggregating MQTT, database, and loop checks
//   - Thermostat state snapshots taken on the thermostat loop
//   - Runtime and message counters for operators
//   - Accessory catalog history from the audit journal
//   - Prometheus exposition at /metrics
//
// # Concurrency
//
// Thermostat state is owned by the thermostat loop. Handlers never touch a
// Machine directly; they read through Loop.Call, which runs the read on the
// loop goroutine and waits for it.
//
// # Graceful Degradation
//
// The server keeps answering while MQTT is down. /api/v1/health reports
// the failed check with 503 so container health probes notice.
package api
