package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	sharedEvents "github.com/davicafu/catalogsync/internal/shared/events"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func TestKafkaPublisher_UsesPartitionKey(t *testing.T) {
	w := &fakeWriter{}
	p := NewKafkaPublisher(w, zap.NewNop())
	evt, err := sharedEvents.NewIntegrationEvent("product-updated", "product:7", map[string]int{"post_id": 7})
	require.NoError(t, err)

	require.NoError(t, p.Publish(context.Background(), evt))

	require.Len(t, w.msgs, 1)
	assert.Equal(t, "product:7", string(w.msgs[0].Key))
	var decoded sharedEvents.IntegrationEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &decoded))
	assert.Equal(t, "product-updated", decoded.Type)
	assert.JSONEq(t, `{"post_id":7}`, string(decoded.Data))
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	p := NewKafkaPublisher(&fakeWriter{err: errors.New("broker down")}, zap.NewNop())

	err := p.Publish(context.Background(), map[string]string{"a": "b"})

	assert.ErrorContains(t, err, "broker down")
}
