package application

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/davicafu/catalogsync/internal/inventory/domain"
	sharedDomain "github.com/davicafu/catalogsync/internal/shared/domain"
	"github.com/davicafu/catalogsync/internal/shared/infra/metrics"
)

// Dispatcher encola descriptores sin bloquear al llamador y los ejecuta en
// goroutines propias: llamada remota, auditoría opcional y reconciliación.
type Dispatcher struct {
	client     domain.RemoteClient
	reconciler domain.Reconciler
	audit      domain.AuditLogger
	overflow   sharedDomain.OutboxRepository
	workers    int
	log        *zap.Logger

	ch     chan domain.Descriptor
	mu     sync.RWMutex
	closed bool
	done   chan struct{}
	wg     sync.WaitGroup
}

// NewDispatcher crea el dispatcher. audit y overflow son opcionales: sin
// audit no se registran eventos, sin overflow una cola llena devuelve
// ErrQueueFull.
func NewDispatcher(
	client domain.RemoteClient,
	reconciler domain.Reconciler,
	audit domain.AuditLogger,
	overflow sharedDomain.OutboxRepository,
	queueSize int,
	workers int,
	log *zap.Logger,
) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 100
	}
	if workers <= 0 {
		workers = 1
	}
	return &Dispatcher{
		client:     client,
		reconciler: reconciler,
		audit:      audit,
		overflow:   overflow,
		workers:    workers,
		log:        log,
		ch:         make(chan domain.Descriptor, queueSize),
		done:       make(chan struct{}),
	}
}

var _ domain.EventQueue = (*Dispatcher)(nil)

// Enqueue valida el descriptor y lo deja en la cola en memoria. Si está
// llena lo desvía al outbox para que el relayer lo procese más tarde.
func (d *Dispatcher) Enqueue(ctx context.Context, desc domain.Descriptor) error {
	if err := desc.Validate(); err != nil {
		return err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return domain.ErrQueueClosed
	}

	select {
	case d.ch <- desc:
		metrics.QueueDepth.Set(float64(len(d.ch)))
		return nil
	default:
	}

	if d.overflow == nil {
		return domain.ErrQueueFull
	}
	return d.spill(ctx, desc)
}

func (d *Dispatcher) spill(ctx context.Context, desc domain.Descriptor) error {
	evt := sharedDomain.OutboxEvent{
		ID:            desc.ID,
		AggregateType: string(desc.Kind.EntityType()),
		AggregateID:   strconv.FormatInt(desc.LocalID, 10),
		EventType:     string(desc.Kind),
		Payload:       desc,
		CreatedAt:     time.Now().UTC(),
	}
	if err := d.overflow.SaveOutboxEvent(ctx, evt); err != nil {
		return fmt.Errorf("spill descriptor %s to outbox: %w", desc.ID, err)
	}
	metrics.OverflowTotal.Inc()
	d.log.Warn("⚠️ Cola llena, descriptor desviado al outbox",
		zap.String("descriptor_id", desc.ID.String()),
		zap.String("event", string(desc.Kind)),
	)
	return nil
}

// Start lanza los workers. Cada unidad se ejecuta con un contexto que no
// se cancela: una vez encolada, corre hasta terminar.
func (d *Dispatcher) Start(ctx context.Context) {
	d.log.Info("🚀 Dispatcher iniciado", zap.Int("workers", d.workers), zap.Int("queue_size", cap(d.ch)))
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx, i)
	}
}

func (d *Dispatcher) worker(ctx context.Context, n int) {
	defer d.wg.Done()
	unitCtx := context.WithoutCancel(ctx)
	for {
		select {
		case <-ctx.Done():
			d.log.Info("🛑 Worker detenido", zap.Int("worker", n))
			return
		case <-d.done:
			d.drain(unitCtx)
			return
		case desc := <-d.ch:
			metrics.QueueDepth.Set(float64(len(d.ch)))
			_ = d.Process(unitCtx, desc)
		}
	}
}

func (d *Dispatcher) drain(ctx context.Context) {
	for {
		select {
		case desc := <-d.ch:
			_ = d.Process(ctx, desc)
		default:
			return
		}
	}
}

// Stop cierra la entrada, procesa lo que quede en la cola y espera a los workers.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.done)
	d.mu.Unlock()
	d.wg.Wait()
}

// Len devuelve los descriptores pendientes en memoria.
func (d *Dispatcher) Len() int {
	return len(d.ch)
}

// Process ejecuta una unidad completa. Si la unidad falla o entra en pánico
// antes de llegar a la reconciliación, se reconcilia como intento fallido
// para que el bit de pendiente quede activo y el lock de stock se libere.
func (d *Dispatcher) Process(ctx context.Context, desc domain.Descriptor) (err error) {
	log := d.log.With(
		zap.String("descriptor_id", desc.ID.String()),
		zap.String("event", string(desc.Kind)),
		zap.Int64("post_id", desc.LocalID),
	)
	reached := false

	defer func() {
		if r := recover(); r != nil {
			log.Error("💥 Pánico procesando descriptor", zap.Any("panic", r))
			err = fmt.Errorf("dispatch panic: %v", r)
		}
		if reached {
			return
		}
		if rerr := d.reconciler.Reconcile(ctx, desc.Kind, domain.StatusTransportFailure, nil, desc.LocalID, desc.RemoteID); rerr != nil {
			metrics.ReconcileErrorsTotal.Inc()
			log.Error("No se pudo marcar el descriptor como pendiente", zap.Error(rerr))
			err = errors.Join(err, rerr)
		}
	}()

	start := time.Now()
	resp, callErr := d.client.Execute(ctx, domain.RequestFor(desc))
	metrics.DispatchDuration.WithLabelValues(string(desc.Kind)).Observe(time.Since(start).Seconds())

	status, body := resp.StatusCode, resp.Body
	if callErr != nil {
		log.Warn("⚠️ Llamada remota fallida", zap.Error(callErr))
		status, body = domain.StatusTransportFailure, nil
	}
	metrics.ObserveStatus(status)
	metrics.DispatchTotal.WithLabelValues(string(desc.Kind), metrics.Outcome(status)).Inc()

	if d.audit != nil {
		var payload interface{} = body
		if desc.LogContext != nil {
			payload = desc.LogContext
		}
		rec := domain.AuditRecord{
			DescriptorID: desc.ID.String(),
			Kind:         desc.Kind,
			LocalID:      desc.LocalID,
			RemoteID:     desc.RemoteID,
			Status:       status,
			Payload:      payload,
			At:           time.Now().UTC(),
		}
		if aerr := d.audit.Log(ctx, rec); aerr != nil {
			log.Warn("No se pudo registrar el evento", zap.Error(aerr))
		}
	}

	reached = true
	if rerr := d.reconciler.Reconcile(ctx, desc.Kind, status, body, desc.LocalID, desc.RemoteID); rerr != nil {
		metrics.ReconcileErrorsTotal.Inc()
		log.Error("Error reconciliando respuesta", zap.Int("status", status), zap.Error(rerr))
		return rerr
	}

	log.Info("✅ Descriptor procesado", zap.Int("status", status))
	return nil
}
