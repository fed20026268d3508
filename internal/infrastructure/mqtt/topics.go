package mqtt

import (
	"fmt"
	"strings"
)

// Topics builds the bridge's own topics under the configured prefix.
//
// Thermostat topics (<prefix>/<serial>/<scope>/<field>) are owned by the
// thermostat package; this type only covers what the transport layer
// publishes itself.
type Topics struct {
	Prefix string
}

// Status returns the retained online/offline topic, also used as the LWT.
//
// Example: nolongerevil/bridge/status
func (t Topics) Status() string {
	return fmt.Sprintf("%s/bridge/status", t.Prefix)
}

// All returns a pattern matching every topic under the prefix.
// Use with caution - this receives ALL traffic.
//
// Pattern: nolongerevil/#
func (t Topics) All() string {
	return t.Prefix + "/#"
}

// validatePublishTopic rejects topics a broker would refuse for PUBLISH.
func validatePublishTopic(topic string) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if strings.ContainsAny(topic, "+#") {
		return fmt.Errorf("%w: wildcards not allowed in publish topic %q", ErrInvalidTopic, topic)
	}
	return nil
}
