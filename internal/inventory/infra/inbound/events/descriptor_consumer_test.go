package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/davicafu/catalogsync/internal/inventory/domain"
	sharedDomain "github.com/davicafu/catalogsync/internal/shared/domain"
	sharedEvents "github.com/davicafu/catalogsync/internal/shared/events"
	"github.com/davicafu/catalogsync/internal/shared/infra/relayer"
	"github.com/davicafu/catalogsync/tests/mocks"
)

type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) Process(ctx context.Context, d domain.Descriptor) error {
	return m.Called(ctx, d).Error(0)
}

func stockDescriptor() domain.Descriptor {
	d := domain.NewDescriptor(domain.StockQuantityUpdated, 4, "PUT", "inventoryitem")
	d.RemoteID = "R4"
	d.Body = "%7B%22Quantity%22%3A3%7D"
	d.LogContext = map[string]interface{}{"user": "admin"}
	return d
}

func TestDescriptorConsumer_HandleMessageEnqueues(t *testing.T) {
	queue := new(mocks.MockEventQueue)
	d := stockDescriptor()
	queue.On("Enqueue", mock.Anything, mock.MatchedBy(func(got domain.Descriptor) bool {
		return got.ID == d.ID && got.Kind == d.Kind && got.Body == d.Body && got.RemoteID == "R4"
	})).Return(nil).Once()

	evt, err := sharedEvents.NewIntegrationEvent(string(d.Kind), d.PartitionKey(), d)
	require.NoError(t, err)
	payload, _ := json.Marshal(evt)

	NewDescriptorConsumer(queue, new(mockRunner), zap.NewNop()).HandleMessage(context.Background(), d.PartitionKey(), payload)

	queue.AssertExpectations(t)
}

func TestDescriptorConsumer_HandleMessageIgnoresGarbage(t *testing.T) {
	queue := new(mocks.MockEventQueue)
	c := NewDescriptorConsumer(queue, new(mockRunner), zap.NewNop())

	c.HandleMessage(context.Background(), "", []byte("not json"))
	c.HandleMessage(context.Background(), "", []byte(`{"type":"order-paid","data":{}}`))

	queue.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything)
}

func TestDescriptorConsumer_HandleOutboxEventRunsUnit(t *testing.T) {
	runner := new(mockRunner)
	d := stockDescriptor()
	raw, _ := json.Marshal(d)
	runner.On("Process", mock.Anything, mock.MatchedBy(func(got domain.Descriptor) bool {
		return got.ID == d.ID && got.LocalID == 4
	})).Return(errors.New("reconcile failed")).Once()

	err := NewDescriptorConsumer(new(mocks.MockEventQueue), runner, zap.NewNop()).HandleOutboxEvent(context.Background(), sharedDomain.OutboxEvent{
		ID:        d.ID,
		EventType: string(d.Kind),
		Payload:   json.RawMessage(raw),
	})

	// La unidad ya se ejecutó: el evento se marca aunque la reconciliación falle.
	assert.NoError(t, err)
	runner.AssertExpectations(t)
}

func TestDescriptorConsumer_HandleOutboxEventDiscardsPoison(t *testing.T) {
	c := NewDescriptorConsumer(new(mocks.MockEventQueue), new(mockRunner), zap.NewNop())

	err := c.HandleOutboxEvent(context.Background(), sharedDomain.OutboxEvent{ID: uuid.New(), EventType: "order-paid"})
	assert.ErrorIs(t, err, relayer.ErrDiscard)

	err = c.HandleOutboxEvent(context.Background(), sharedDomain.OutboxEvent{
		ID:        uuid.New(),
		EventType: string(domain.ProductUpdated),
		Payload:   json.RawMessage(`{"event":"product-updated","post_id":0,"request":"PUT","controller":"inventoryitem"}`),
	})
	assert.ErrorIs(t, err, relayer.ErrDiscard)
	assert.ErrorIs(t, err, domain.ErrInvalidDescriptor)
}

func TestDescriptorConsumer_HandleMessageRunsUnitWhenQueueRejects(t *testing.T) {
	queue := new(mocks.MockEventQueue)
	runner := new(mockRunner)
	d := stockDescriptor()
	queue.On("Enqueue", mock.Anything, mock.Anything).Return(domain.ErrQueueClosed).Once()
	runner.On("Process", mock.Anything, mock.MatchedBy(func(got domain.Descriptor) bool {
		return got.ID == d.ID && got.Kind == domain.StockQuantityUpdated
	})).Return(nil).Once()

	evt, err := sharedEvents.NewIntegrationEvent(string(d.Kind), d.PartitionKey(), d)
	require.NoError(t, err)
	payload, _ := json.Marshal(evt)

	NewDescriptorConsumer(queue, runner, zap.NewNop()).HandleMessage(context.Background(), d.PartitionKey(), payload)

	queue.AssertExpectations(t)
	runner.AssertExpectations(t)
}

func TestDescriptorConsumer_HandleMessageDropsInvalidDescriptor(t *testing.T) {
	queue := new(mocks.MockEventQueue)
	runner := new(mockRunner)
	d := stockDescriptor()
	queue.On("Enqueue", mock.Anything, mock.Anything).
		Return(fmt.Errorf("%w: empty resource", domain.ErrInvalidDescriptor)).Once()

	evt, err := sharedEvents.NewIntegrationEvent(string(d.Kind), d.PartitionKey(), d)
	require.NoError(t, err)
	payload, _ := json.Marshal(evt)

	NewDescriptorConsumer(queue, runner, zap.NewNop()).HandleMessage(context.Background(), d.PartitionKey(), payload)

	queue.AssertExpectations(t)
	runner.AssertNotCalled(t, "Process", mock.Anything, mock.Anything)
}
