package domain

import "fmt"

// ItemType distingue productos y categorías.
type ItemType string

const (
	ItemProduct  ItemType = "product"
	ItemCategory ItemType = "category"
)

// DeletedItem registra un borrado remoto que falló y debe reintentarse.
// Se adjunta como metadato al contenedor centinela de borrados.
type DeletedItem struct {
	Type     ItemType `json:"type" bson:"type"`
	RemoteID string   `json:"dinkassa_id" bson:"dinkassa_id"`
}

// ParseItemType valida el tipo recibido desde fuera (HTTP, CLI).
func ParseItemType(s string) (ItemType, error) {
	switch ItemType(s) {
	case ItemProduct, ItemCategory:
		return ItemType(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEntity, s)
}
