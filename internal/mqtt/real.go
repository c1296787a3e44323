package mqtt

import (
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/sweeney/geiger-rng/internal/entropy"
)

const (
	// offlineCapacity bounds how many messages are kept while the broker is unreachable.
	offlineCapacity = 1024

	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
)

// RealPublisher publishes to an actual MQTT broker.
// Messages published while disconnected are buffered and replayed on reconnect.
type RealPublisher struct {
	client paho.Client

	mu      sync.Mutex
	offline *outbox
}

// NewRealPublisher creates a publisher for the given broker. If the broker is
// not reachable yet, the client keeps retrying in the background and messages
// are buffered until it connects.
func NewRealPublisher(broker, clientID string) (*RealPublisher, error) {
	if clientID == "" {
		clientID = DefaultClientID
	}
	p := &RealPublisher{offline: newOutbox(offlineCapacity)}

	will, err := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: "OFFLINE", Reason: "LWT"})
	if err != nil {
		return nil, fmt.Errorf("format will: %w", err)
	}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetBinaryWill(TopicSystem, will, 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Warn().Err(err).Msg("mqtt: connection lost")
		})

	p.client = paho.NewClient(opts)
	token := p.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		log.Warn().Str("broker", broker).Msg("mqtt: broker not reachable yet, buffering until connected")
		return p, nil
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}
	return p, nil
}

// Publish sends a value to the MQTT broker.
func (p *RealPublisher) Publish(v entropy.Value) error {
	payload, err := FormatPayload(v)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	// QoS 0 (at-most-once), not retained
	return p.publish(message{topic: Topic, payload: payload})
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	// QoS 1 (at-least-once) for lifecycle events
	return p.publish(message{topic: TopicSystem, payload: payload, qos: 1, retained: event.Retained})
}

func (p *RealPublisher) publish(msg message) error {
	// Checked under mu so onConnect cannot drain between the check and the add.
	p.mu.Lock()
	if !p.client.IsConnectionOpen() {
		p.offline.add(msg)
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	token := p.client.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish %s: timeout", msg.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", msg.topic, err)
	}
	return nil
}

// onConnect replays messages buffered while disconnected.
func (p *RealPublisher) onConnect(c paho.Client) {
	p.mu.Lock()
	pending := p.offline.take()
	p.mu.Unlock()

	if len(pending) == 0 {
		log.Info().Msg("mqtt: connected")
		return
	}
	log.Info().Int("buffered", len(pending)).Msg("mqtt: connected, replaying buffered messages")
	for _, msg := range pending {
		// Handlers run on paho's goroutine; don't block it waiting for acks.
		c.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
	}
}

// IsConnected reports whether the broker connection is open.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
