package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/davicafu/catalogsync/internal/inventory/domain"
	sharedDomain "github.com/davicafu/catalogsync/internal/shared/domain"
	sharedEvents "github.com/davicafu/catalogsync/internal/shared/events"
	"github.com/davicafu/catalogsync/internal/shared/infra/relayer"
	sharedUtils "github.com/davicafu/catalogsync/internal/shared/infra/utils"
)

// UnitRunner ejecuta una unidad completa de forma síncrona.
type UnitRunner interface {
	Process(ctx context.Context, d domain.Descriptor) error
}

// DescriptorConsumer devuelve al dispatcher los descriptores que llegan por
// Kafka o que se desviaron al outbox.
type DescriptorConsumer struct {
	queue  domain.EventQueue
	runner UnitRunner
	log    *zap.Logger
}

func NewDescriptorConsumer(queue domain.EventQueue, runner UnitRunner, log *zap.Logger) *DescriptorConsumer {
	return &DescriptorConsumer{queue: queue, runner: runner, log: log}
}

// HandleMessage recibe un mensaje del bus y lo encola en el dispatcher local.
// Si la cola lo rechaza, la unidad se ejecuta de forma síncrona.
func (c *DescriptorConsumer) HandleMessage(ctx context.Context, key string, payload []byte) {
	var base sharedEvents.IntegrationEvent
	if err := json.Unmarshal(payload, &base); err != nil {
		c.log.Warn("Failed to unmarshal integration event", zap.String("key", key), zap.Error(err))
		return
	}
	if !domain.EventKind(base.Type).Known() {
		c.log.Warn("Unknown event type", zap.String("type", base.Type))
		return
	}

	d, err := sharedUtils.DecodePayload[domain.Descriptor](base.Data)
	if err != nil {
		c.log.Warn("Failed to decode descriptor", zap.String("key", key), zap.Error(err))
		return
	}
	err = c.queue.Enqueue(ctx, d)
	if err == nil {
		return
	}
	if errors.Is(err, domain.ErrInvalidDescriptor) {
		c.log.Warn("Descriptor inválido descartado", zap.String("key", key), zap.Error(err))
		return
	}

	// El offset ya está confirmado: la unidad se ejecuta aquí para que quede
	// el bit pendiente y se libere el lock de stock tomado por el emisor.
	c.log.Warn("⚠️ No se pudo encolar el descriptor recibido, ejecución directa",
		zap.String("descriptor_id", d.ID.String()),
		zap.Error(err),
	)
	if err := c.runner.Process(context.WithoutCancel(ctx), d); err != nil {
		c.log.Error("❌ Descriptor recibido procesado con errores",
			zap.String("descriptor_id", d.ID.String()),
			zap.Error(err),
		)
	}
}

// HandleOutboxEvent ejecuta un descriptor desviado al outbox. La unidad se
// ejecuta aquí mismo: volver a encolarlo podría desviarlo otra vez.
func (c *DescriptorConsumer) HandleOutboxEvent(ctx context.Context, evt sharedDomain.OutboxEvent) error {
	if !domain.EventKind(evt.EventType).Known() {
		return fmt.Errorf("%w: unknown event type %q", relayer.ErrDiscard, evt.EventType)
	}
	d, err := sharedUtils.DecodePayload[domain.Descriptor](evt.Payload)
	if err != nil {
		return fmt.Errorf("%w: %w", relayer.ErrDiscard, err)
	}
	if err := d.Validate(); err != nil {
		return fmt.Errorf("%w: %w", relayer.ErrDiscard, err)
	}

	// Un error de reconciliación ya quedó registrado por el runner; repetir la
	// unidad volvería a llamar a la API remota.
	if err := c.runner.Process(ctx, d); err != nil {
		c.log.Warn("⚠️ Descriptor del outbox procesado con errores",
			zap.String("descriptor_id", d.ID.String()),
			zap.Error(err),
		)
	}
	return nil
}

var _ relayer.Handler = (*DescriptorConsumer)(nil)
