package events

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/davicafu/catalogsync/internal/inventory/domain"
	sharedEvents "github.com/davicafu/catalogsync/internal/shared/events"
	sharedBus "github.com/davicafu/catalogsync/internal/shared/infra/platform/bus"
)

// BusQueue implementa domain.EventQueue publicando cada descriptor en el bus.
// Los consumidores del topic lo devuelven al dispatcher de su proceso.
type BusQueue struct {
	bus sharedBus.EventBus
	log *zap.Logger
}

var _ domain.EventQueue = (*BusQueue)(nil)

func NewBusQueue(bus sharedBus.EventBus, log *zap.Logger) *BusQueue {
	return &BusQueue{bus: bus, log: log}
}

func (q *BusQueue) Enqueue(ctx context.Context, d domain.Descriptor) error {
	if err := d.Validate(); err != nil {
		return err
	}
	evt, err := sharedEvents.NewIntegrationEvent(string(d.Kind), d.PartitionKey(), d)
	if err != nil {
		return fmt.Errorf("encode descriptor %s: %w", d.ID, err)
	}
	if err := q.bus.Publish(ctx, evt); err != nil {
		return fmt.Errorf("publish descriptor %s: %w", d.ID, err)
	}
	q.log.Debug("Descriptor publicado", zap.String("descriptor_id", d.ID.String()), zap.String("event", string(d.Kind)))
	return nil
}
