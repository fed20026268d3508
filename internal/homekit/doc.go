// Package homekit exposes each thermostat as a HomeKit accessory using
// github.com/brutella/hap.
//
// Every device gets one accessory carrying three services: a thermostat
// (current and target temperature, heating and cooling thresholds, target
// mode, current activity, display units), a fan ("<name> Fan") and an
// occupancy sensor ("<name> Occupancy").
//
// Registry implements thermostat.AccessoryRegistry. Attach restores or
// creates the accessory identity in the catalog, so a controller keeps
// its pairing across restarts. Values written by a controller are
// submitted to the thermostat loop as Request* calls.
package homekit
