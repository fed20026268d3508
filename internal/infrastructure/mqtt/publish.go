package mqtt

import (
	"fmt"
)

// Maximum payload size for MQTT messages (1MB).
const maxPayloadSize = 1 << 20

// validatePublish checks the arguments and the connection state.
func (c *Client) validatePublish(topic string, payload []byte, qos byte) error {
	if err := validatePublishTopic(topic); err != nil {
		return err
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishFailed, len(payload), maxPayloadSize)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}
	return nil
}

// PublishAsync hands a message to paho and returns immediately.
//
// done, if non-nil, is called exactly once with the outcome: synchronously
// when validation fails or the client is disconnected, otherwise from a
// separate goroutine once the token completes. done must not block.
func (c *Client) PublishAsync(topic string, payload []byte, qos byte, retained bool, done func(error)) {
	if done == nil {
		done = func(error) {}
	}

	if err := c.validatePublish(topic, payload, qos); err != nil {
		done(err)
		return
	}

	token := c.client.Publish(topic, qos, retained, payload)
	go func() {
		if !token.WaitTimeout(defaultPublishTimeout) {
			done(fmt.Errorf("%w: timeout after %v", ErrPublishFailed, defaultPublishTimeout))
			return
		}
		if err := token.Error(); err != nil {
			done(fmt.Errorf("%w: %w", ErrPublishFailed, err))
			return
		}
		done(nil)
	}()
}
