package mq

import (
	"context"
	"errors"
	"strings"
	"sync"

	"cloud.google.com/go/pubsub"
	"github.com/propmgr/apiserver/config"
	"google.golang.org/api/option"
)

// orderingAttribute selects the attribute used as the Pub/Sub ordering key,
// so events for one account are delivered in publish order.
const orderingAttribute = "account_id"

// PubSubClient publishes to Google Cloud Pub/Sub topics and consumes them
// through a per-topic subscription.
type PubSubClient struct {
	client *pubsub.Client
	suffix string

	mu     sync.Mutex
	topics map[string]*pubsub.Topic
}

// NewPubSubClient connects to cfg.ProjectID.
func NewPubSubClient(ctx context.Context, cfg config.PubSubConfig) (*PubSubClient, error) {
	if strings.TrimSpace(cfg.ProjectID) == "" {
		return nil, errors.New("pubsub project id is required")
	}

	var opts []option.ClientOption
	if strings.TrimSpace(cfg.CredentialsFile) != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := pubsub.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, err
	}

	suffix := cfg.SubscriptionSuffix
	if suffix == "" {
		suffix = "-sub"
	}
	return &PubSubClient{client: client, suffix: suffix, topics: make(map[string]*pubsub.Topic)}, nil
}

// Publish sends data to topic and waits for the server-assigned id.
func (p *PubSubClient) Publish(ctx context.Context, topic string, data []byte, attrs map[string]string) (string, error) {
	if strings.TrimSpace(topic) == "" {
		return "", errors.New("pubsub topic is required")
	}
	t, err := p.topic(ctx, topic)
	if err != nil {
		return "", err
	}

	key := attrs[orderingAttribute]
	id, err := t.Publish(ctx, &pubsub.Message{Data: data, Attributes: attrs, OrderingKey: key}).Get(ctx)
	if err != nil && key != "" {
		// A failed ordered publish pauses the key until resumed.
		t.ResumePublish(key)
	}
	return id, err
}

// Subscribe receives from topic through "<topic><suffix>" until ctx is done.
// Messages whose handler fails are nacked for redelivery.
func (p *PubSubClient) Subscribe(ctx context.Context, topic string, handler Handler) error {
	if strings.TrimSpace(topic) == "" {
		return errors.New("pubsub topic is required")
	}
	t, err := p.topic(ctx, topic)
	if err != nil {
		return err
	}
	sub, err := p.subscription(ctx, topic+p.suffix, t)
	if err != nil {
		return err
	}

	return sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		message := Message{ID: msg.ID, Data: msg.Data, Attributes: msg.Attributes}
		if err := handler(ctx, message); err != nil {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

// Close flushes pending publishes and closes the client.
func (p *PubSubClient) Close() error {
	p.mu.Lock()
	for _, t := range p.topics {
		t.Stop()
	}
	p.topics = map[string]*pubsub.Topic{}
	p.mu.Unlock()
	return p.client.Close()
}

func (p *PubSubClient) topic(ctx context.Context, name string) (*pubsub.Topic, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if t, ok := p.topics[name]; ok {
		return t, nil
	}

	t := p.client.Topic(name)
	exists, err := t.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		if t, err = p.client.CreateTopic(ctx, name); err != nil {
			return nil, err
		}
	}
	t.EnableMessageOrdering = true
	p.topics[name] = t
	return t, nil
}

func (p *PubSubClient) subscription(ctx context.Context, name string, topic *pubsub.Topic) (*pubsub.Subscription, error) {
	sub := p.client.Subscription(name)
	exists, err := sub.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if exists {
		return sub, nil
	}
	return p.client.CreateSubscription(ctx, name, pubsub.SubscriptionConfig{
		Topic:                 topic,
		EnableMessageOrdering: true,
	})
}
