package mq

import (
	"context"
	"fmt"

	"github.com/propmgr/apiserver/config"
)

// Message represents a broker-agnostic payload delivered to subscribers.
type Message struct {
	ID         string
	Data       []byte
	Attributes map[string]string
}

// Handler processes a message. Return an error to signal a retry/nack.
type Handler func(ctx context.Context, msg Message) error

// Backend defines the broker-agnostic operations used by the app.
type Backend interface {
	Publish(ctx context.Context, topic string, data []byte, attrs map[string]string) (string, error)
	Subscribe(ctx context.Context, topic string, handler Handler) error
	Close() error
}

// MQ wraps a backend with a stable API.
type MQ struct {
	backend Backend
}

// New constructs an MQ wrapper for the provided backend.
func New(backend Backend) *MQ {
	return &MQ{backend: backend}
}

// NewFromConfig connects the configured backend. It returns nil, nil when
// no backend is configured.
func NewFromConfig(ctx context.Context, cfg config.MQConfig) (*MQ, error) {
	switch cfg.Backend {
	case "":
		return nil, nil
	case "rabbitmq":
		client, err := NewRabbitMQClient(cfg.RabbitMQ)
		if err != nil {
			return nil, fmt.Errorf("connect rabbitmq: %w", err)
		}
		return New(client), nil
	case "pubsub":
		client, err := NewPubSubClient(ctx, cfg.PubSub)
		if err != nil {
			return nil, fmt.Errorf("connect pubsub: %w", err)
		}
		return New(client), nil
	default:
		return nil, fmt.Errorf("unknown mq backend %q", cfg.Backend)
	}
}

// Publish sends a message to the named topic.
func (m *MQ) Publish(ctx context.Context, topic string, data []byte, attrs map[string]string) (string, error) {
	return m.backend.Publish(ctx, topic, data, attrs)
}

// Subscribe consumes messages from the named topic.
func (m *MQ) Subscribe(ctx context.Context, topic string, handler Handler) error {
	return m.backend.Subscribe(ctx, topic, handler)
}

// Close closes the underlying backend.
func (m *MQ) Close() error {
	return m.backend.Close()
}
