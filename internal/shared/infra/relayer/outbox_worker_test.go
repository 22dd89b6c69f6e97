package relayer

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	sharedDomain "github.com/davicafu/catalogsync/internal/shared/domain"
	"github.com/davicafu/catalogsync/tests/mocks"
)

type mockHandler struct {
	mock.Mock
}

func (m *mockHandler) HandleOutboxEvent(ctx context.Context, evt sharedDomain.OutboxEvent) error {
	return m.Called(ctx, evt).Error(0)
}

func TestOutboxWorker_ProcessBatch_Success(t *testing.T) {
	repo := new(mocks.MockOutboxRepository)
	handler := new(mockHandler)

	eventID := uuid.New()
	testEvent := sharedDomain.OutboxEvent{ID: eventID, EventType: "product-updated", Payload: map[string]interface{}{"post_id": 1}}

	repo.On("FetchPendingOutbox", mock.Anything, 10).Return([]sharedDomain.OutboxEvent{testEvent}, nil).Once()
	handler.On("HandleOutboxEvent", mock.Anything, testEvent).Return(nil).Once()
	repo.On("MarkOutboxProcessed", mock.Anything, eventID).Return(nil).Once()

	worker := NewOutboxWorker(repo, handler, 0, 10, zap.NewNop())

	assert.Equal(t, 1, worker.ProcessBatch(context.Background()))
	repo.AssertExpectations(t)
	handler.AssertExpectations(t)
}

func TestOutboxWorker_ProcessBatch_HandlerFailsIsRetried(t *testing.T) {
	repo := new(mocks.MockOutboxRepository)
	handler := new(mockHandler)
	testEvent := sharedDomain.OutboxEvent{ID: uuid.New(), EventType: "product-updated"}

	repo.On("FetchPendingOutbox", mock.Anything, 10).Return([]sharedDomain.OutboxEvent{testEvent}, nil).Once()
	handler.On("HandleOutboxEvent", mock.Anything, mock.Anything).Return(errors.New("queue closed")).Once()

	worker := NewOutboxWorker(repo, handler, 0, 10, zap.NewNop())

	assert.Equal(t, 0, worker.ProcessBatch(context.Background()))
	repo.AssertNotCalled(t, "MarkOutboxProcessed", mock.Anything, mock.Anything)
}

func TestOutboxWorker_ProcessBatch_DiscardIsMarked(t *testing.T) {
	repo := new(mocks.MockOutboxRepository)
	handler := new(mockHandler)
	eventID := uuid.New()
	testEvent := sharedDomain.OutboxEvent{ID: eventID, EventType: "order-paid"}

	repo.On("FetchPendingOutbox", mock.Anything, 10).Return([]sharedDomain.OutboxEvent{testEvent}, nil).Once()
	handler.On("HandleOutboxEvent", mock.Anything, mock.Anything).Return(fmt.Errorf("%w: unknown event", ErrDiscard)).Once()
	repo.On("MarkOutboxProcessed", mock.Anything, eventID).Return(nil).Once()

	worker := NewOutboxWorker(repo, handler, 0, 10, zap.NewNop())

	assert.Equal(t, 1, worker.ProcessBatch(context.Background()))
	repo.AssertExpectations(t)
}

func TestOutboxWorker_ProcessBatch_FetchFails(t *testing.T) {
	repo := new(mocks.MockOutboxRepository)
	handler := new(mockHandler)
	repo.On("FetchPendingOutbox", mock.Anything, 10).Return([]sharedDomain.OutboxEvent(nil), errors.New("db down")).Once()

	worker := NewOutboxWorker(repo, handler, 0, 10, zap.NewNop())

	assert.Equal(t, 0, worker.ProcessBatch(context.Background()))
	handler.AssertNotCalled(t, "HandleOutboxEvent", mock.Anything, mock.Anything)
}

func TestOutboxWorker_StartStopsOnCancel(t *testing.T) {
	outbox := &mocks.InMemoryOutbox{}
	handler := new(mockHandler)
	handler.On("HandleOutboxEvent", mock.Anything, mock.Anything).Return(nil)
	_ = outbox.SaveOutboxEvent(context.Background(), sharedDomain.OutboxEvent{ID: uuid.New(), EventType: "product-updated"})

	worker := NewOutboxWorker(outbox, handler, 10*time.Millisecond, 10, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		worker.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return outbox.Pending() == 0 }, time.Second, 10*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("el worker no se detuvo")
	}
}
