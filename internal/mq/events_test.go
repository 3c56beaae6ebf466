package mq

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/propmgr/apiserver/config"
	"github.com/propmgr/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryBackend struct {
	mu       sync.Mutex
	messages map[string][]Message
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{messages: make(map[string][]Message)}
}

func (b *memoryBackend) Publish(_ context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := channel + "-" + attrs["event_id"]
	b.messages[channel] = append(b.messages[channel], Message{ID: id, Data: data, Attributes: attrs})
	return id, nil
}

func (b *memoryBackend) Subscribe(ctx context.Context, channel string, handler Handler) error {
	b.mu.Lock()
	pending := append([]Message(nil), b.messages[channel]...)
	b.mu.Unlock()
	for _, msg := range pending {
		if err := handler(ctx, msg); err != nil {
			return err
		}
	}
	return nil
}

func (b *memoryBackend) Close() error { return nil }

func TestAccountEventPublisherRoundTrip(t *testing.T) {
	backend := newMemoryBackend()
	publisher := NewAccountEventPublisher(New(backend), "account-events")

	event := types.AccountEvent{
		ID:         "evt-1",
		Type:       types.AccountRegistered,
		AccountID:  42,
		Email:      "a@example.com",
		Role:       types.RoleTenant,
		OccurredAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, publisher.PublishAccountEvent(context.Background(), event))

	msgs := backend.messages["account-events"]
	require.Len(t, msgs, 1)
	assert.Equal(t, "42", msgs[0].Attributes["account_id"])
	assert.Equal(t, types.AccountRegistered, msgs[0].Attributes["event_type"])

	var got []types.AccountEvent
	err := publisher.SubscribeAccountEvents(context.Background(), func(_ context.Context, e types.AccountEvent) error {
		got = append(got, e)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, event, got[0])
}

func TestSubscribeSkipsUndecodablePayloads(t *testing.T) {
	backend := newMemoryBackend()
	backend.messages["account-events"] = []Message{{ID: "bad", Data: []byte("{not json")}}
	good, _ := json.Marshal(types.AccountEvent{ID: "ok", Type: types.AccountAdminReconciled})
	backend.messages["account-events"] = append(backend.messages["account-events"], Message{ID: "ok", Data: good})

	publisher := NewAccountEventPublisher(New(backend), "account-events")
	var seen []string
	err := publisher.SubscribeAccountEvents(context.Background(), func(_ context.Context, e types.AccountEvent) error {
		seen = append(seen, e.ID)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"ok"}, seen)
}

func TestNewFromConfigWithoutBackend(t *testing.T) {
	m, err := NewFromConfig(context.Background(), configWithBackend(""))
	require.NoError(t, err)
	assert.Nil(t, m)

	_, err = NewFromConfig(context.Background(), configWithBackend("kafka"))
	assert.Error(t, err)
}

func configWithBackend(backend string) config.MQConfig {
	return config.MQConfig{Backend: backend}
}
