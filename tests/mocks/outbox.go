package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	sharedDomain "github.com/davicafu/catalogsync/internal/shared/domain"
)

// MockOutboxRepository simula el repo de outbox con testify/mock.
type MockOutboxRepository struct {
	mock.Mock
}

var _ sharedDomain.OutboxRepository = (*MockOutboxRepository)(nil)

func (m *MockOutboxRepository) SaveOutboxEvent(ctx context.Context, evt sharedDomain.OutboxEvent) error {
	args := m.Called(ctx, evt)
	return args.Error(0)
}

func (m *MockOutboxRepository) FetchPendingOutbox(ctx context.Context, limit int) ([]sharedDomain.OutboxEvent, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]sharedDomain.OutboxEvent), args.Error(1)
}

func (m *MockOutboxRepository) MarkOutboxProcessed(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// InMemoryOutbox es un outbox en memoria para tests de extremo a extremo.
type InMemoryOutbox struct {
	Events []sharedDomain.OutboxEvent
	mu     sync.Mutex
}

var _ sharedDomain.OutboxRepository = (*InMemoryOutbox)(nil)

func (o *InMemoryOutbox) SaveOutboxEvent(ctx context.Context, evt sharedDomain.OutboxEvent) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Events = append(o.Events, evt)
	return nil
}

func (o *InMemoryOutbox) FetchPendingOutbox(ctx context.Context, limit int) ([]sharedDomain.OutboxEvent, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	var pending []sharedDomain.OutboxEvent
	for _, e := range o.Events {
		if !e.Processed {
			pending = append(pending, e)
		}
		if len(pending) == limit {
			break
		}
	}
	return pending, nil
}

func (o *InMemoryOutbox) MarkOutboxProcessed(ctx context.Context, id uuid.UUID) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := range o.Events {
		if o.Events[i].ID == id {
			o.Events[i].Processed = true
		}
	}
	return nil
}

// Pending cuenta los eventos sin procesar.
func (o *InMemoryOutbox) Pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := 0
	for _, e := range o.Events {
		if !e.Processed {
			n++
		}
	}
	return n
}
