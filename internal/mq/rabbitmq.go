package mq

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/propmgr/apiserver/config"
	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitMQClient publishes to and consumes from one queue per topic over a
// single connection. Publishes are serialised; an amqp channel is not safe
// for concurrent use.
type RabbitMQClient struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	durable bool
	autoDel bool

	mu       sync.Mutex
	declared map[string]bool
}

// NewRabbitMQClient dials cfg.URL and opens a channel.
func NewRabbitMQClient(cfg config.RabbitMQConfig) (*RabbitMQClient, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("rabbitmq url is required")
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if cfg.PrefetchCount > 0 {
		if err := ch.Qos(cfg.PrefetchCount, 0, false); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return nil, err
		}
	}

	return &RabbitMQClient{
		conn:     conn,
		channel:  ch,
		durable:  cfg.QueueDurable,
		autoDel:  cfg.QueueAutoDelete,
		declared: make(map[string]bool),
	}, nil
}

// Publish sends data to the queue named topic. Messages on durable queues
// are marked persistent.
func (r *RabbitMQClient) Publish(ctx context.Context, topic string, data []byte, attrs map[string]string) (string, error) {
	if strings.TrimSpace(topic) == "" {
		return "", errors.New("rabbitmq topic is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.declareLocked(topic); err != nil {
		return "", err
	}

	headers := amqp.Table{}
	for key, value := range attrs {
		headers[key] = value
	}
	mode := amqp.Transient
	if r.durable {
		mode = amqp.Persistent
	}
	messageID := attrs["event_id"]
	if messageID == "" {
		messageID = uuid.NewString()
	}

	err := r.channel.PublishWithContext(ctx, "", topic, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: mode,
		MessageId:    messageID,
		Timestamp:    time.Now().UTC(),
		Headers:      headers,
		Body:         data,
	})
	if err != nil {
		return "", err
	}
	return messageID, nil
}

// Subscribe consumes the queue named topic until ctx is done. A message whose
// handler fails is requeued once and dropped if it fails again.
func (r *RabbitMQClient) Subscribe(ctx context.Context, topic string, handler Handler) error {
	if strings.TrimSpace(topic) == "" {
		return errors.New("rabbitmq topic is required")
	}

	r.mu.Lock()
	err := r.declareLocked(topic)
	r.mu.Unlock()
	if err != nil {
		return err
	}

	consumerTag := "apiserver-" + uuid.NewString()
	deliveries, err := r.channel.Consume(topic, consumerTag, false, false, false, false, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = r.channel.Cancel(consumerTag, false)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				return errors.New("rabbitmq delivery channel closed")
			}
			message := Message{
				ID:         delivery.MessageId,
				Data:       delivery.Body,
				Attributes: headersToAttributes(delivery.Headers),
			}
			if err := handler(ctx, message); err != nil {
				_ = delivery.Nack(false, !delivery.Redelivered)
				continue
			}
			_ = delivery.Ack(false)
		}
	}
}

// Close closes the channel and the connection.
func (r *RabbitMQClient) Close() error {
	if r.channel != nil {
		_ = r.channel.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

func (r *RabbitMQClient) declareLocked(topic string) error {
	if r.declared[topic] {
		return nil
	}
	if _, err := r.channel.QueueDeclare(topic, r.durable, r.autoDel, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", topic, err)
	}
	r.declared[topic] = true
	return nil
}

func headersToAttributes(headers amqp.Table) map[string]string {
	if len(headers) == 0 {
		return nil
	}
	attrs := make(map[string]string, len(headers))
	for key, value := range headers {
		switch typed := value.(type) {
		case string:
			attrs[key] = typed
		case []byte:
			attrs[key] = string(typed)
		default:
			attrs[key] = fmt.Sprint(value)
		}
	}
	return attrs
}
