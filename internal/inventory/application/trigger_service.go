package application

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/davicafu/catalogsync/internal/inventory/domain"
)

// Recursos de la API remota.
const (
	ResourceInventoryItem = "inventoryitem"
	ResourceCategory      = "category"
)

// TriggerService es el camino que dispara la sincronización: construye los
// descriptores de cada evento del catálogo y los encola.
type TriggerService struct {
	queue       domain.EventQueue
	products    domain.MetaStore
	stockLock   domain.StockLock
	keys        domain.MetaKeys
	lockTimeout time.Duration
	log         *zap.Logger
}

// NewTriggerService es el constructor. stockLock puede ser nil si no hay
// mutaciones de stock concurrentes que proteger.
func NewTriggerService(queue domain.EventQueue, products domain.MetaStore, stockLock domain.StockLock, keys domain.MetaKeys, lockTimeout time.Duration, log *zap.Logger) *TriggerService {
	if lockTimeout <= 0 {
		lockTimeout = 5 * time.Second
	}
	return &TriggerService{
		queue:       queue,
		products:    products,
		stockLock:   stockLock,
		keys:        keys,
		lockTimeout: lockTimeout,
		log:         log,
	}
}

// Options son los campos opcionales de un disparo.
type Options struct {
	Payload    []byte
	Headers    map[string]string
	LogContext interface{}
	Secure     bool
}

// Trigger encola un descriptor ya construido por un adaptador de entrada.
// Para eventos de stock adquiere antes el lock, que liberará la reconciliación.
func (s *TriggerService) Trigger(ctx context.Context, d domain.Descriptor) error {
	if d.Kind == domain.StockQuantityUpdated && s.stockLock != nil {
		if err := s.acquire(ctx); err != nil {
			return err
		}
		if err := s.queue.Enqueue(ctx, d); err != nil {
			s.release(ctx)
			return err
		}
		return nil
	}
	return s.queue.Enqueue(ctx, d)
}

func (s *TriggerService) ProductCreated(ctx context.Context, productID int64, opts Options) error {
	return s.queue.Enqueue(ctx, BuildDescriptor(domain.ProductCreated, productID, "", http.MethodPost, ResourceInventoryItem, opts))
}

func (s *TriggerService) ProductUpdated(ctx context.Context, productID int64, remoteID string, opts Options) error {
	return s.queue.Enqueue(ctx, BuildDescriptor(domain.ProductUpdated, productID, remoteID, http.MethodPut, ResourceInventoryItem, opts))
}

func (s *TriggerService) ProductDeleted(ctx context.Context, productID int64, remoteID string, opts Options) error {
	return s.queue.Enqueue(ctx, BuildDescriptor(domain.ProductDeleted, productID, remoteID, http.MethodDelete, ResourceInventoryItem, opts))
}

func (s *TriggerService) CategoryCreated(ctx context.Context, categoryID int64, opts Options) error {
	return s.queue.Enqueue(ctx, BuildDescriptor(domain.CategoryCreated, categoryID, "", http.MethodPost, ResourceCategory, opts))
}

func (s *TriggerService) CategoryUpdated(ctx context.Context, categoryID int64, remoteID string, opts Options) error {
	return s.queue.Enqueue(ctx, BuildDescriptor(domain.CategoryUpdated, categoryID, remoteID, http.MethodPut, ResourceCategory, opts))
}

func (s *TriggerService) CategoryDeleted(ctx context.Context, categoryID int64, remoteID string, opts Options) error {
	return s.queue.Enqueue(ctx, BuildDescriptor(domain.CategoryDeleted, categoryID, remoteID, http.MethodDelete, ResourceCategory, opts))
}

// StockChanged acumula el delta de cantidad bajo el lock de stock y encola
// la actualización. Si algo falla antes de encolar, el lock se libera aquí.
func (s *TriggerService) StockChanged(ctx context.Context, productID int64, remoteID string, delta int, opts Options) (err error) {
	if s.stockLock != nil {
		if err := s.acquire(ctx); err != nil {
			return err
		}
		defer func() {
			if err != nil {
				s.release(ctx)
			}
		}()
	}

	raw, err := s.products.GetField(ctx, productID, s.keys.QuantityDelta)
	if err != nil {
		return fmt.Errorf("%w: read quantity delta: %w", domain.ErrLocalStore, err)
	}
	current, _ := strconv.Atoi(strings.TrimSpace(raw))
	if err = s.products.SetField(ctx, productID, s.keys.QuantityDelta, strconv.Itoa(current+delta)); err != nil {
		return fmt.Errorf("%w: write quantity delta: %w", domain.ErrLocalStore, err)
	}

	d := BuildDescriptor(domain.StockQuantityUpdated, productID, remoteID, http.MethodPut, ResourceInventoryItem, opts)
	return s.queue.Enqueue(ctx, d)
}

// BuildDescriptor arma un descriptor con los campos opcionales. El payload
// se url-encodea, que es como viaja el cuerpo hasta el cliente remoto.
func BuildDescriptor(kind domain.EventKind, localID int64, remoteID, method, resource string, opts Options) domain.Descriptor {
	d := domain.NewDescriptor(kind, localID, method, resource)
	d.RemoteID = remoteID
	d.Headers = opts.Headers
	d.LogContext = opts.LogContext
	d.Secure = opts.Secure
	if len(opts.Payload) > 0 {
		d.Body = url.QueryEscape(string(opts.Payload))
	}
	return d
}

func (s *TriggerService) acquire(ctx context.Context) error {
	lockCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()
	if err := s.stockLock.Acquire(lockCtx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return domain.ErrLockTimeout
		}
		return err
	}
	return nil
}

func (s *TriggerService) release(ctx context.Context) {
	if err := s.stockLock.Release(context.WithoutCancel(ctx)); err != nil {
		s.log.Error("No se pudo liberar el lock de stock", zap.Error(err))
	}
}
