package relayer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	sharedDomain "github.com/davicafu/catalogsync/internal/shared/domain"
)

// ErrDiscard marca un evento que nunca podrá procesarse (tipo desconocido,
// payload corrupto). El worker lo marca como procesado para no reintentarlo.
var ErrDiscard = errors.New("outbox event discarded")

// Handler procesa un evento del outbox. Un error distinto de ErrDiscard deja
// el evento pendiente para el siguiente polling.
type Handler interface {
	HandleOutboxEvent(ctx context.Context, evt sharedDomain.OutboxEvent) error
}

// Worker procesa eventos pendientes de la tabla outbox de forma genérica.
type Worker struct {
	repo      sharedDomain.OutboxRepository
	handler   Handler
	interval  time.Duration
	batchSize int
	log       *zap.Logger
}

func NewOutboxWorker(
	repo sharedDomain.OutboxRepository,
	handler Handler,
	interval time.Duration,
	batchSize int,
	log *zap.Logger,
) *Worker {
	if interval <= 0 {
		interval = time.Second
	}
	if batchSize <= 0 {
		batchSize = 10
	}
	return &Worker{
		repo:      repo,
		handler:   handler,
		interval:  interval,
		batchSize: batchSize,
		log:       log,
	}
}

// Start inicia el bucle de polling del worker. Bloquea hasta que ctx se cancele.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.log.Info("🚀 Outbox worker iniciado", zap.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			w.log.Info("🛑 Outbox worker detenido.")
			return
		case <-ticker.C:
			w.ProcessBatch(ctx)
		}
	}
}

// ProcessBatch procesa un lote y devuelve cuántos eventos quedaron marcados.
func (w *Worker) ProcessBatch(ctx context.Context) int {
	events, err := w.repo.FetchPendingOutbox(ctx, w.batchSize)
	if err != nil {
		w.log.Warn("⚠️ Error al obtener eventos pendientes", zap.Error(err))
		return 0
	}
	if len(events) > 0 {
		w.log.Info(fmt.Sprintf("📬 %d eventos encontrados para procesar", len(events)))
	}

	marked := 0
	for _, evt := range events {
		if w.handleAndMark(ctx, evt) {
			marked++
		}
	}
	return marked
}

func (w *Worker) handleAndMark(ctx context.Context, evt sharedDomain.OutboxEvent) bool {
	log := w.log.With(zap.String("event_id", evt.ID.String()), zap.String("event_type", evt.EventType))

	if err := w.handler.HandleOutboxEvent(ctx, evt); err != nil {
		if !errors.Is(err, ErrDiscard) {
			log.Warn("⚠️ No se pudo procesar evento, se reintentará", zap.Error(err))
			return false
		}
		log.Error("Evento descartado", zap.Error(err))
	}

	if err := w.repo.MarkOutboxProcessed(ctx, evt.ID); err != nil {
		log.Warn("⚠️ No se pudo marcar evento como procesado", zap.Error(err))
		return false
	}
	log.Info("✅ Evento procesado y marcado")
	return true
}
