package application

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/davicafu/catalogsync/internal/inventory/domain"
)

// VisibilityVisible es el valor que hace visible un producto en la tienda.
const VisibilityVisible = "visible"

// ReconcileService aplica la respuesta remota sobre la máscara de pendientes
// y los metadatos locales de la entidad.
type ReconcileService struct {
	products   domain.MetaStore
	categories domain.MetaStore
	deleted    domain.DeletedItemStore
	storefront domain.Storefront
	stockLock  domain.StockLock
	keys       domain.MetaKeys
	container  string
	log        *zap.Logger
}

// NewReconcileService construye el servicio. storefront y stockLock son
// opcionales (nil).
func NewReconcileService(
	products domain.MetaStore,
	categories domain.MetaStore,
	deleted domain.DeletedItemStore,
	storefront domain.Storefront,
	stockLock domain.StockLock,
	keys domain.MetaKeys,
	deletedContainer string,
	log *zap.Logger,
) *ReconcileService {
	return &ReconcileService{
		products:   products,
		categories: categories,
		deleted:    deleted,
		storefront: storefront,
		stockLock:  stockLock,
		keys:       keys,
		container:  deletedContainer,
		log:        log,
	}
}

var _ domain.Reconciler = (*ReconcileService)(nil)

// Reconcile es la máquina de estados. Los fallos remotos son datos; solo
// los errores del almacén local se devuelven.
func (s *ReconcileService) Reconcile(ctx context.Context, kind domain.EventKind, status int, body map[string]interface{}, localID int64, remoteID string) error {
	failed := domain.Failed(status)

	switch kind {
	case domain.ProductCreated:
		if failed {
			return s.markPending(ctx, s.products, localID, s.keys.ProductPending, domain.PendingCreate)
		}
		return s.productCreated(ctx, body, localID)

	case domain.CategoryCreated:
		if failed {
			return s.markPending(ctx, s.categories, localID, s.keys.CategoryPending, domain.PendingCreate)
		}
		return s.categoryCreated(ctx, body, localID)

	case domain.ProductUpdated:
		return s.toggle(ctx, s.products, localID, s.keys.ProductPending, domain.PendingUpdate, failed)

	case domain.CategoryUpdated:
		return s.toggle(ctx, s.categories, localID, s.keys.CategoryPending, domain.PendingUpdate, failed)

	case domain.StockQuantityUpdated:
		return s.stockUpdated(ctx, localID, failed)

	case domain.ProductDeleted, domain.CategoryDeleted:
		return s.deletedItem(ctx, kind.EntityType(), remoteID, failed)

	default:
		s.log.Debug("Evento sin reconciliación", zap.String("event", string(kind)))
		return nil
	}
}

func (s *ReconcileService) productCreated(ctx context.Context, body map[string]interface{}, productID int64) error {
	item := domain.ItemOf(body)
	if item == nil {
		s.log.Warn("Respuesta de creación sin Item", zap.Int64("post_id", productID))
	} else {
		fields := []struct{ key, value string }{
			{s.keys.ProductRemoteID, domain.ItemString(item, "Id")},
			{s.keys.CategoryName, domain.ItemString(item, "CategoryName")},
		}
		for _, f := range fields {
			if err := s.set(ctx, s.products, productID, f.key, f.value); err != nil {
				return err
			}
		}
	}

	if err := s.clearPending(ctx, s.products, productID, s.keys.ProductPending, domain.PendingCreate); err != nil {
		return err
	}

	// Efecto secundario de mejor esfuerzo.
	if s.storefront != nil {
		if err := s.storefront.SetCatalogVisibility(ctx, productID, VisibilityVisible); err != nil {
			s.log.Warn("No se pudo marcar el producto como visible",
				zap.Int64("post_id", productID),
				zap.Error(err),
			)
		}
	}
	return nil
}

func (s *ReconcileService) categoryCreated(ctx context.Context, body map[string]interface{}, categoryID int64) error {
	item := domain.ItemOf(body)
	if item == nil {
		s.log.Warn("Respuesta de creación de categoría sin Item", zap.Int64("term_id", categoryID))
	} else if err := s.set(ctx, s.categories, categoryID, s.keys.CategoryID, domain.ItemString(item, "Id")); err != nil {
		return err
	}
	return s.clearPending(ctx, s.categories, categoryID, s.keys.CategoryPending, domain.PendingCreate)
}

func (s *ReconcileService) stockUpdated(ctx context.Context, productID int64, failed bool) error {
	// El lock se libera en todas las salidas, también si falla el almacén.
	if s.stockLock != nil {
		defer func() {
			if err := s.stockLock.Release(context.WithoutCancel(ctx)); err != nil {
				s.log.Error("No se pudo liberar el lock de stock", zap.Int64("post_id", productID), zap.Error(err))
			}
		}()
	}

	if err := s.toggle(ctx, s.products, productID, s.keys.ProductPending, domain.PendingStock, failed); err != nil {
		return err
	}
	if failed {
		return nil
	}
	// Sincronización correcta: el delta acumulado queda drenado.
	return s.set(ctx, s.products, productID, s.keys.QuantityDelta, "0")
}

func (s *ReconcileService) deletedItem(ctx context.Context, itemType domain.ItemType, remoteID string, failed bool) error {
	containerID, err := s.deleted.ContainerID(ctx, s.container)
	if err != nil {
		return fmt.Errorf("%w: resolve deleted items container: %w", domain.ErrLocalStore, err)
	}

	item := domain.DeletedItem{Type: itemType, RemoteID: remoteID}
	exists, err := s.deleted.Exists(ctx, containerID, item)
	if err != nil {
		return fmt.Errorf("%w: lookup deleted item %s/%s: %w", domain.ErrLocalStore, itemType, remoteID, err)
	}

	switch {
	case !exists && failed:
		if err := s.deleted.Attach(ctx, containerID, item); err != nil {
			return fmt.Errorf("%w: attach deleted item: %w", domain.ErrLocalStore, err)
		}
		s.log.Info("Borrado remoto pendiente registrado", zap.String("type", string(itemType)), zap.String("dinkassa_id", remoteID))
	case exists && !failed:
		if err := s.deleted.Detach(ctx, containerID, item); err != nil {
			return fmt.Errorf("%w: detach deleted item: %w", domain.ErrLocalStore, err)
		}
		s.log.Info("Borrado remoto reintentado con éxito", zap.String("type", string(itemType)), zap.String("dinkassa_id", remoteID))
	}
	return nil
}

// ------------------ Helpers de máscara ------------------

func (s *ReconcileService) toggle(ctx context.Context, store domain.MetaStore, id int64, key string, bit domain.PendingOps, failed bool) error {
	if failed {
		return s.markPending(ctx, store, id, key, bit)
	}
	return s.clearPending(ctx, store, id, key, bit)
}

// markPending activa el bit solo si no lo estaba, para no escribir de más
// en fallos repetidos.
func (s *ReconcileService) markPending(ctx context.Context, store domain.MetaStore, id int64, key string, bit domain.PendingOps) error {
	pending, err := s.readPending(ctx, store, id, key)
	if err != nil {
		return err
	}
	if pending.Has(bit) {
		return nil
	}
	return s.set(ctx, store, id, key, strconv.Itoa(int(pending.With(bit))))
}

func (s *ReconcileService) clearPending(ctx context.Context, store domain.MetaStore, id int64, key string, bit domain.PendingOps) error {
	pending, err := s.readPending(ctx, store, id, key)
	if err != nil {
		return err
	}
	if !pending.Has(bit) {
		return nil
	}
	return s.set(ctx, store, id, key, strconv.Itoa(int(pending.Without(bit))))
}

// readPending interpreta el campo como entero; vacío o no numérico es 0.
func (s *ReconcileService) readPending(ctx context.Context, store domain.MetaStore, id int64, key string) (domain.PendingOps, error) {
	raw, err := store.GetField(ctx, id, key)
	if err != nil {
		return 0, fmt.Errorf("%w: read %s of %d: %w", domain.ErrLocalStore, key, id, err)
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, nil
	}
	return domain.PendingOps(n), nil
}

func (s *ReconcileService) set(ctx context.Context, store domain.MetaStore, id int64, key, value string) error {
	if err := store.SetField(ctx, id, key, value); err != nil {
		return fmt.Errorf("%w: write %s of %d: %w", domain.ErrLocalStore, key, id, err)
	}
	return nil
}
