package storefront

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davicafu/catalogsync/tests/mocks"
)

func TestMetaStorefront_SetCatalogVisibility(t *testing.T) {
	products := mocks.NewInMemoryMetaStore()
	sf := NewMetaStorefront(products, "_catalog_visibility")

	require.NoError(t, sf.SetCatalogVisibility(context.Background(), 3, "visible"))
	assert.Equal(t, "visible", products.Field(3, "_catalog_visibility"))

	err := sf.SetCatalogVisibility(context.Background(), 3, "public")
	assert.ErrorIs(t, err, ErrInvalidVisibility)
	assert.Equal(t, "visible", products.Field(3, "_catalog_visibility"))
}
