// Package influxdb records autopilot telemetry in InfluxDB.
//
// Two measurements are written:
//
//	autopilot        tag event (started|enabled|disabled), field modulations
//	autopilot_state  fields enabled, oscillators, bindings
//
// Both carry a "site" tag when one is configured. The client is plugged in
// twice: as an autopilot.MetricsWriter behind autopilot.NewTelemetryHooks
// and as a session.Broadcaster.
//
//	client, err := influxdb.Connect(cfg.InfluxDB, cfg.Site.ID)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
// Writes are non-blocking and batched (batch_size, flush_interval).
// Batch failures are delivered asynchronously to the SetOnError callback.
package influxdb
