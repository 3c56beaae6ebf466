package mq

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/propmgr/apiserver/types"
)

// AccountEventPublisher publishes account lifecycle events as JSON.
type AccountEventPublisher struct {
	mq    *MQ
	topic string
}

func NewAccountEventPublisher(mq *MQ, topic string) *AccountEventPublisher {
	return &AccountEventPublisher{mq: mq, topic: topic}
}

// PublishAccountEvent sends event to the account topic. The event type and
// account id are duplicated into attributes for broker-side filtering.
func (p *AccountEventPublisher) PublishAccountEvent(ctx context.Context, event types.AccountEvent) error {
	if p == nil || p.mq == nil {
		return errors.New("account event publisher is not configured")
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	attrs := map[string]string{
		"event_id":   event.ID,
		"event_type": event.Type,
		"account_id": strconv.Itoa(event.AccountID),
	}
	_, err = p.mq.Publish(ctx, p.topic, data, attrs)
	return err
}

// SubscribeAccountEvents decodes account events from the topic and passes
// them to handle.
func (p *AccountEventPublisher) SubscribeAccountEvents(ctx context.Context, handle func(context.Context, types.AccountEvent) error) error {
	return p.mq.Subscribe(ctx, p.topic, func(ctx context.Context, msg Message) error {
		var event types.AccountEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			// Undecodable payloads are acked; redelivery cannot fix them.
			return nil
		}
		return handle(ctx, event)
	})
}
