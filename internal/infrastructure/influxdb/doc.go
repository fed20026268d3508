// Package influxdb records thermostat telemetry history in InfluxDB.
//
// It wraps the official influxdb-client-go v2 library: a ping on connect,
// a non-blocking batched write API, and an error callback for batch
// failures.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // run without history
//	}
//	defer client.Close()
//
//	client.WritePoint("thermostat",
//	    map[string]string{"serial": serial},
//	    map[string]interface{}{"target_temperature": 21.0})
//
// Writes are batched according to batch_size and flush_interval.
package influxdb
