// Package thermostat keeps a state machine per NoLongerEvil thermostat in
// sync between the device's MQTT attribute topics and a HomeKit-style
// accessory.
//
// # Components
//
//   - Mode translation between device modes (off, heat, cool, range) and
//     accessory target modes (OFF, HEAT, COOL, AUTO)
//   - Machine: owns one device's State, derives the heating/cooling
//     activity, pushes inbound changes to its Accessory and publishes
//     outbound requests through a Publisher
//   - Router: parses <prefix>/<serial>/<scope>/<field> topics, decodes
//     payloads and dispatches to the owning Machine
//   - Loop: the single goroutine every handler runs on
//
// # Concurrency
//
// Machines and the Router are not safe for concurrent use. All calls,
// whether triggered by MQTT deliveries or by accessory writes, are funnelled
// through Loop.Submit so that state is owned by exactly one goroutine and
// messages are applied in arrival order. Readers outside the loop use
// Loop.Call to take a Snapshot.
//
// # Failure model
//
// Nothing on the message path is fatal. Malformed topics, foreign
// prefixes and unknown serials are dropped. Publish failures are reported
// to a PublishObserver and the optimistic local state is kept.
package thermostat
