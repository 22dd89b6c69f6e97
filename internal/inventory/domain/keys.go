package domain

// MetaKeys agrupa los nombres de los campos de metadatos que toca la
// reconciliación. Las claves de pendientes de producto y categoría son
// independientes aunque por defecto coincidan.
type MetaKeys struct {
	ProductPending  string
	CategoryPending string
	ProductRemoteID string
	CategoryName    string
	CategoryID      string
	QuantityDelta   string
	Visibility      string
}

// DefaultMetaKeys deriva las claves de producto del prefijo. La clave de
// pendientes de categoría es un literal propio.
func DefaultMetaKeys(prefix string) MetaKeys {
	return MetaKeys{
		ProductPending:  prefix + "pending_crud",
		CategoryPending: "wh_meta_pending_crud",
		ProductRemoteID: prefix + "id",
		CategoryName:    prefix + "categoryname",
		CategoryID:      "wh_meta_cat_id",
		QuantityDelta:   prefix + "quantity_change",
		Visibility:      "_catalog_visibility",
	}
}

// PendingKey devuelve la clave de la máscara según el tipo de entidad.
func (k MetaKeys) PendingKey(t ItemType) string {
	if t == ItemCategory {
		return k.CategoryPending
	}
	return k.ProductPending
}
