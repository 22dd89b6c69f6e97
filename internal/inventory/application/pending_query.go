package application

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/davicafu/catalogsync/internal/inventory/domain"
)

// PendingStatus describe las operaciones pendientes de una entidad.
type PendingStatus struct {
	Type     domain.ItemType `json:"type"`
	ID       int64           `json:"id"`
	RemoteID string          `json:"dinkassa_id,omitempty"`
	Mask     int             `json:"pending"`
	Create   bool            `json:"create"`
	Update   bool            `json:"update"`
	Stock    bool            `json:"stock"`
	Delta    int             `json:"quantity_change,omitempty"`
}

// PendingQuery lee el estado de sincronización sin modificarlo.
type PendingQuery struct {
	products   domain.MetaStore
	categories domain.MetaStore
	keys       domain.MetaKeys
}

func NewPendingQuery(products, categories domain.MetaStore, keys domain.MetaKeys) *PendingQuery {
	return &PendingQuery{products: products, categories: categories, keys: keys}
}

func (q *PendingQuery) Pending(ctx context.Context, t domain.ItemType, id int64) (PendingStatus, error) {
	store, idKey := q.products, q.keys.ProductRemoteID
	if t == domain.ItemCategory {
		store, idKey = q.categories, q.keys.CategoryID
	}

	raw, err := store.GetField(ctx, id, q.keys.PendingKey(t))
	if err != nil {
		return PendingStatus{}, fmt.Errorf("%w: %w", domain.ErrLocalStore, err)
	}
	remoteID, err := store.GetField(ctx, id, idKey)
	if err != nil {
		return PendingStatus{}, fmt.Errorf("%w: %w", domain.ErrLocalStore, err)
	}

	mask, _ := strconv.Atoi(strings.TrimSpace(raw))
	p := domain.PendingOps(mask)
	status := PendingStatus{
		Type:     t,
		ID:       id,
		RemoteID: remoteID,
		Mask:     mask,
		Create:   p.Has(domain.PendingCreate),
		Update:   p.Has(domain.PendingUpdate),
		Stock:    p.Has(domain.PendingStock),
	}
	if t == domain.ItemProduct {
		delta, err := store.GetField(ctx, id, q.keys.QuantityDelta)
		if err != nil {
			return PendingStatus{}, fmt.Errorf("%w: %w", domain.ErrLocalStore, err)
		}
		status.Delta, _ = strconv.Atoi(strings.TrimSpace(delta))
	}
	return status, nil
}
