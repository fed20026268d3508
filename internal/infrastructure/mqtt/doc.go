// Package mqtt provides the broker connection the bridge runs on.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Synchronous and fire-and-forget publishing
//   - Topic subscriptions, restored after every reconnect
//   - A retained online/offline status with Last Will and Testament
//
// Message handlers run on paho's delivery goroutine in arrival order
// (paho's default ordered delivery). Handlers are wrapped with panic
// recovery; anything slow should be handed off rather than run inline.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT, mqtt.Topics{Prefix: "nolongerevil"})
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe("nolongerevil/02AA01AC/shared/target_temperature", 1,
//	    func(topic string, payload []byte) error {
//	        return router.Route(topic, payload)
//	    })
//
//	client.PublishAsync("nolongerevil/02AA01AC/shared/target_temperature/set",
//	    []byte("21.5"), 1, false, func(err error) { ... })
package mqtt
