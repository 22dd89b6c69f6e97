package lock

import (
	"context"

	"github.com/davicafu/catalogsync/internal/inventory/domain"
)

// InMemoryLock es un semáforo de una sola plaza para un único proceso.
// Release sin Acquire previo no hace nada.
type InMemoryLock struct {
	slot chan struct{}
}

var _ domain.StockLock = (*InMemoryLock)(nil)

func NewInMemoryLock() *InMemoryLock {
	return &InMemoryLock{slot: make(chan struct{}, 1)}
}

func (l *InMemoryLock) Acquire(ctx context.Context) error {
	select {
	case l.slot <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *InMemoryLock) Release(ctx context.Context) error {
	select {
	case <-l.slot:
	default:
	}
	return nil
}
