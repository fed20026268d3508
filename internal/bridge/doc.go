// Package bridge connects the MQTT transport to the thermostat core.
//
// Inbound: every message on a device topic is handed to the thermostat
// loop and routed there, so dispatch order matches delivery order.
//
// Outbound: Bridge implements thermostat.Publisher. Commands are published
// asynchronously to <prefix>/<serial>/<scope>/<field>/set; the outcome is
// logged and reported to an optional thermostat.PublishObserver. A
// disconnected transport is reported as a failure, never queued.
package bridge
