// Package catalog keeps the persistent identity of every thermostat
// exposed to HomeKit.
//
// A HomeKit controller remembers accessories by their accessory ID, so the
// ID given to a serial must never change across restarts. The catalog
// stores one Record per configured serial in SQLite:
//
//	┌──────────────┐      ┌──────────────┐      ┌──────────────────────┐
//	│   Catalog    │─────▶│  Repository  │─────▶│ SQLite (accessories) │
//	│ Ensure/Prune │      │  SQL queries │      └──────────────────────┘
//	└──────────────┘      └──────────────┘
//
// Ensure restores the record for a serial or creates one with the next
// free accessory ID. Prune removes records for serials that are no longer
// configured. Runtime thermostat state is never stored here.
package catalog
