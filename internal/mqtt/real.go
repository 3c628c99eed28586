package mqtt

import (
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// queueCapacity bounds how many messages are held while disconnected.
const queueCapacity = 64

// RealPublisher publishes to an actual MQTT broker. Messages published
// while the broker is unreachable are queued and replayed on reconnect.
type RealPublisher struct {
	client paho.Client

	mu    sync.Mutex
	queue *offlineQueue
}

// NewRealPublisher creates a publisher connected to the given broker.
func NewRealPublisher(broker string) (*RealPublisher, error) {
	p := &RealPublisher{queue: newOfflineQueue(queueCapacity)}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID("compute-agent").
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(func(paho.Client) { p.replayQueued() })

	p.client = paho.NewClient(opts)
	token := p.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return p, nil
}

// PublishNotification sends a delivered notification to the broker.
func (p *RealPublisher) PublishNotification(n Notification) error {
	payload, err := FormatNotificationPayload(n)
	if err != nil {
		return fmt.Errorf("format notification payload: %w", err)
	}
	// QoS 0 (at-most-once), not retained
	return p.publish(TopicNotifications, 0, false, payload)
}

// PublishSystem sends a system lifecycle event to the broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	// QoS 1 (at-least-once) for lifecycle events - we want delivery
	return p.publish(TopicSystem, 1, event.Retained, payload)
}

func (p *RealPublisher) publish(topic string, qos byte, retained bool, payload []byte) error {
	if !p.client.IsConnected() {
		p.mu.Lock()
		p.queue.add(queuedMsg{topic: topic, payload: payload, qos: qos, retained: retained})
		n := p.queue.size()
		p.mu.Unlock()
		return fmt.Errorf("broker unreachable, queued (%d waiting)", n)
	}

	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// replayQueued sends everything queued while disconnected, oldest first.
func (p *RealPublisher) replayQueued() {
	p.mu.Lock()
	msgs := p.queue.drain()
	p.mu.Unlock()

	for _, m := range msgs {
		token := p.client.Publish(m.topic, m.qos, m.retained, m.payload)
		if !token.WaitTimeout(5 * time.Second) {
			return
		}
	}
	if len(msgs) > 0 {
		log.Printf("mqtt: replayed %d queued messages after reconnect", len(msgs))
	}
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnected()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
