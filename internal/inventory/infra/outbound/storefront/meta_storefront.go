package storefront

import (
	"context"
	"errors"
	"fmt"

	"github.com/davicafu/catalogsync/internal/inventory/domain"
)

// ErrInvalidVisibility se devuelve con valores fuera del catálogo de la tienda.
var ErrInvalidVisibility = errors.New("invalid catalog visibility")

var visibilities = map[string]struct{}{
	"visible": {},
	"catalog": {},
	"search":  {},
	"hidden":  {},
}

// MetaStorefront guarda la visibilidad del producto como un campo más de sus
// metadatos, igual que hace la tienda.
type MetaStorefront struct {
	products domain.MetaStore
	key      string
}

var _ domain.Storefront = (*MetaStorefront)(nil)

func NewMetaStorefront(products domain.MetaStore, key string) *MetaStorefront {
	return &MetaStorefront{products: products, key: key}
}

func (s *MetaStorefront) SetCatalogVisibility(ctx context.Context, productID int64, visibility string) error {
	if _, ok := visibilities[visibility]; !ok {
		return fmt.Errorf("%w: %q", ErrInvalidVisibility, visibility)
	}
	return s.products.SetField(ctx, productID, s.key, visibility)
}
