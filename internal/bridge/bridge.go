package bridge

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/nerrad567/nolongerevil-bridge/internal/infrastructure/mqtt"
	"github.com/nerrad567/nolongerevil-bridge/internal/thermostat"
)

// MQTTClient is the subset of *mqtt.Client the bridge needs.
type MQTTClient interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
	HasSubscription(topic string) bool
	SubscriptionCount() int
	PublishAsync(topic string, payload []byte, qos byte, retained bool, done func(error))
	IsConnected() bool
}

// Dispatcher routes one message. *thermostat.Router implements it.
type Dispatcher interface {
	Route(topic string, payload []byte) error
	Subscriptions() []string
}

// RouteObserver is told the outcome of every routed message.
type RouteObserver interface {
	MessageRouted(err error)
}

// Logger is the structured logger used by the bridge.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Options holds configuration for creating a bridge.
type Options struct {
	// Prefix is the topic prefix commands are published under.
	Prefix string

	// QoS for subscriptions and commands.
	QoS byte

	// MQTTClient is the transport.
	MQTTClient MQTTClient

	// Loop runs every Route call.
	Loop *thermostat.Loop

	// PublishObserver and RouteObserver are optional.
	PublishObserver thermostat.PublishObserver
	RouteObserver   RouteObserver

	// Logger is optional.
	Logger Logger
}

// Stats are cumulative message counters.
type Stats struct {
	Received      uint64 `json:"received"`
	Dropped       uint64 `json:"dropped"`
	Published     uint64 `json:"published"`
	PublishFailed uint64 `json:"publish_failed"`
	Subscriptions int    `json:"subscriptions"`
	MQTTConnected bool   `json:"mqtt_connected"`
}

// Bridge moves messages between MQTT and the thermostat loop.
//
// Thread Safety: all methods are safe for concurrent use.
type Bridge struct {
	prefix   string
	qos      byte
	mqtt     MQTTClient
	loop     *thermostat.Loop
	pubObs   thermostat.PublishObserver
	routeObs RouteObserver

	dispatcher    Dispatcher
	subscriptions map[string]bool
	started       bool
	stopped       atomic.Bool
	mu            sync.RWMutex
	resyncMu      sync.Mutex
	stopOnce      sync.Once

	received      atomic.Uint64
	dropped       atomic.Uint64
	published     atomic.Uint64
	publishFailed atomic.Uint64

	logger   Logger
	loggerMu sync.RWMutex
}

// New creates a bridge. Call Start to subscribe.
func New(opts Options) (*Bridge, error) {
	if opts.Prefix == "" {
		return nil, fmt.Errorf("topic prefix is required")
	}
	if opts.MQTTClient == nil {
		return nil, fmt.Errorf("MQTT client is required")
	}
	if opts.Loop == nil {
		return nil, fmt.Errorf("loop is required")
	}

	return &Bridge{
		prefix:        opts.Prefix,
		qos:           opts.QoS,
		mqtt:          opts.MQTTClient,
		loop:          opts.Loop,
		pubObs:        opts.PublishObserver,
		routeObs:      opts.RouteObserver,
		subscriptions: make(map[string]bool),
		logger:        opts.Logger,
	}, nil
}

// Start subscribes to every topic the dispatcher lists. The topic list is
// read on the loop, which must already be running.
func (b *Bridge) Start(ctx context.Context, d Dispatcher) error {
	b.mu.Lock()
	if b.started {
		b.mu.Unlock()
		return ErrAlreadyStarted
	}
	b.started = true
	b.dispatcher = d
	b.mu.Unlock()

	if _, _, err := b.reconcile(ctx, d); err != nil {
		return err
	}

	b.logInfo("bridge started", "prefix", b.prefix, "subscriptions", b.mqtt.SubscriptionCount())
	return nil
}

// Resync brings the MQTT subscriptions in line with the dispatcher after
// devices were added or removed. Topics of removed devices are
// unsubscribed, new ones are subscribed.
func (b *Bridge) Resync(ctx context.Context) (added, removed int, err error) {
	b.mu.RLock()
	d := b.dispatcher
	b.mu.RUnlock()
	if d == nil {
		return 0, 0, ErrNotStarted
	}

	added, removed, err = b.reconcile(ctx, d)
	if err != nil {
		return added, removed, err
	}
	b.logInfo("subscriptions resynchronised", "added", added, "removed", removed)
	return added, removed, nil
}

func (b *Bridge) reconcile(ctx context.Context, d Dispatcher) (added, removed int, err error) {
	b.resyncMu.Lock()
	defer b.resyncMu.Unlock()

	var topics []string
	if err := b.loop.Call(ctx, func() { topics = d.Subscriptions() }); err != nil {
		return 0, 0, fmt.Errorf("reading subscriptions: %w", err)
	}
	wanted := make(map[string]bool, len(topics))
	for _, topic := range topics {
		wanted[topic] = true
	}

	b.mu.RLock()
	var stale []string
	for topic := range b.subscriptions {
		if !wanted[topic] {
			stale = append(stale, topic)
		}
	}
	b.mu.RUnlock()
	sort.Strings(stale)

	for _, topic := range stale {
		if err := b.mqtt.Unsubscribe(topic); err != nil {
			return added, removed, fmt.Errorf("unsubscribe from %s: %w", topic, err)
		}
		b.mu.Lock()
		delete(b.subscriptions, topic)
		b.mu.Unlock()
		removed++
		b.logDebug("unsubscribed", "topic", topic)
	}

	for _, topic := range topics {
		if b.mqtt.HasSubscription(topic) {
			continue
		}
		if err := b.mqtt.Subscribe(topic, b.qos, b.handleMessage); err != nil {
			return added, removed, fmt.Errorf("subscribe to %s: %w", topic, err)
		}
		b.mu.Lock()
		b.subscriptions[topic] = true
		b.mu.Unlock()
		added++
		b.logDebug("subscribed", "topic", topic)
	}

	return added, removed, nil
}

// Stop makes the bridge ignore further messages. Subscriptions are left
// to the MQTT client, which is closed separately.
func (b *Bridge) Stop() {
	b.stopOnce.Do(func() {
		b.stopped.Store(true)
		b.logInfo("bridge stopped")
	})
}

// handleMessage is the MQTT handler for every device topic. It never
// returns an error: drops are routine and are logged at debug level.
func (b *Bridge) handleMessage(topic string, payload []byte) error {
	if b.stopped.Load() {
		return nil
	}

	b.mu.RLock()
	d := b.dispatcher
	b.mu.RUnlock()
	if d == nil {
		return nil
	}

	b.received.Add(1)
	data := append([]byte(nil), payload...)

	err := b.loop.Submit(func() {
		routeErr := d.Route(topic, data)
		if routeErr != nil {
			b.dropped.Add(1)
			b.logDebug("message dropped", "topic", topic, "reason", routeErr)
		}
		if b.routeObs != nil {
			b.routeObs.MessageRouted(routeErr)
		}
	})
	if err != nil {
		b.logWarn("message not routed", "topic", topic, "error", err)
	}
	return nil
}

// PublishCommand implements thermostat.Publisher. It returns immediately;
// the outcome arrives later on the publish observer.
func (b *Bridge) PublishCommand(cmd thermostat.Command) {
	topic := cmd.Topic(b.prefix)
	b.mqtt.PublishAsync(topic, []byte(cmd.Payload), b.qos, false, func(err error) {
		if err != nil {
			b.publishFailed.Add(1)
			b.logError("command publish failed", "topic", topic, "payload", cmd.Payload, "error", err)
		} else {
			b.published.Add(1)
			b.logDebug("command published", "topic", topic, "payload", cmd.Payload)
		}
		if b.pubObs != nil {
			b.pubObs.CommandPublished(cmd, err)
		}
	})
}

// Stats returns the current counters.
func (b *Bridge) Stats() Stats {
	return Stats{
		Received:      b.received.Load(),
		Dropped:       b.dropped.Load(),
		Published:     b.published.Load(),
		PublishFailed: b.publishFailed.Load(),
		Subscriptions: b.mqtt.SubscriptionCount(),
		MQTTConnected: b.mqtt.IsConnected(),
	}
}

// SetLogger replaces the logger.
func (b *Bridge) SetLogger(logger Logger) {
	b.loggerMu.Lock()
	defer b.loggerMu.Unlock()
	b.logger = logger
}

func (b *Bridge) getLogger() Logger {
	b.loggerMu.RLock()
	defer b.loggerMu.RUnlock()
	return b.logger
}

func (b *Bridge) logInfo(msg string, keysAndValues ...any) {
	if logger := b.getLogger(); logger != nil {
		logger.Info(msg, keysAndValues...)
	}
}

func (b *Bridge) logWarn(msg string, keysAndValues ...any) {
	if logger := b.getLogger(); logger != nil {
		logger.Warn(msg, keysAndValues...)
	}
}

func (b *Bridge) logError(msg string, keysAndValues ...any) {
	if logger := b.getLogger(); logger != nil {
		logger.Error(msg, keysAndValues...)
	}
}

func (b *Bridge) logDebug(msg string, keysAndValues ...any) {
	if logger := b.getLogger(); logger != nil {
		logger.Debug(msg, keysAndValues...)
	}
}
