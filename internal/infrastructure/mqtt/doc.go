// Package mqtt connects the autopilot service to the site MQTT broker.
//
// The client announces itself with a retained status message and leaves a
// Last Will so other services see it go offline after a crash:
//
//	graylogic/system/status/<client_id>   {"status":"online",...}
//	graylogic/autopilot/command           inbound control (see package control)
//	graylogic/autopilot/state             retained autopilot status
//	graylogic/autopilot/event/<event>     lifecycle events
//
// Subscriptions are remembered and restored after every reconnect.
//
//	client, err := mqtt.Connect(cfg.MQTT, logger)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(ctx, mqtt.Topics{}.AutopilotCommand(), 1,
//	    func(topic string, payload []byte) error { ... })
package mqtt
