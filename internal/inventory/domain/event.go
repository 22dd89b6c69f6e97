package domain

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// EventKind identifica el evento del catálogo que originó la sincronización.
// Los valores son los nombres de evento que envía la tienda.
type EventKind string

const (
	ProductCreated       EventKind = "product-created"
	ProductUpdated       EventKind = "product-updated"
	ProductDeleted       EventKind = "product-deleted"
	CategoryCreated      EventKind = "category-created"
	CategoryUpdated      EventKind = "category-updated"
	CategoryDeleted      EventKind = "category-deleted"
	StockQuantityUpdated EventKind = "stock-quantity-updated"
)

// Known indica si el tipo de evento pertenece al conjunto enumerado.
func (k EventKind) Known() bool {
	switch k {
	case ProductCreated, ProductUpdated, ProductDeleted,
		CategoryCreated, CategoryUpdated, CategoryDeleted,
		StockQuantityUpdated:
		return true
	}
	return false
}

// EntityType devuelve si el evento afecta a un producto o a una categoría.
func (k EventKind) EntityType() ItemType {
	switch k {
	case CategoryCreated, CategoryUpdated, CategoryDeleted:
		return ItemCategory
	default:
		return ItemProduct
	}
}

// Descriptor describe una unidad de trabajo: una llamada a la API remota y
// los datos necesarios para reconciliar su respuesta. Es inmutable una vez
// encolado y se despacha una sola vez.
type Descriptor struct {
	ID         uuid.UUID         `json:"id"`
	Kind       EventKind         `json:"event"`
	LocalID    int64             `json:"post_id"`
	RemoteID   string            `json:"dinkassa_id,omitempty"`
	Method     string            `json:"request"`
	Resource   string            `json:"controller"`
	Body       string            `json:"data,omitempty"` // url-encoded
	Headers    map[string]string `json:"opt_headers,omitempty"`
	LogContext interface{}       `json:"info,omitempty"`
	Secure     bool              `json:"secure"`
	CreatedAt  time.Time         `json:"created_at"`
}

// NewDescriptor crea un descriptor con id y fecha asignados.
func NewDescriptor(kind EventKind, localID int64, method, resource string) Descriptor {
	return Descriptor{
		ID:        uuid.New(),
		Kind:      kind,
		LocalID:   localID,
		Method:    strings.ToUpper(method),
		Resource:  resource,
		CreatedAt: time.Now().UTC(),
	}
}

// PartitionKey agrupa en la misma partición los eventos de una entidad.
func (d Descriptor) PartitionKey() string {
	return fmt.Sprintf("%s:%d", d.Kind.EntityType(), d.LocalID)
}

var allowedMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodDelete: true,
}

// Validate comprueba los campos obligatorios en la frontera del despacho.
func (d Descriptor) Validate() error {
	if !d.Kind.Known() {
		return fmt.Errorf("%w: unknown event %q", ErrInvalidDescriptor, d.Kind)
	}
	if !allowedMethods[d.Method] {
		return fmt.Errorf("%w: unsupported method %q", ErrInvalidDescriptor, d.Method)
	}
	if strings.Trim(d.Resource, "/") == "" {
		return fmt.Errorf("%w: empty resource", ErrInvalidDescriptor)
	}
	switch d.Kind {
	case ProductDeleted, CategoryDeleted:
		// El registro de borrados se indexa por id remoto.
		if d.RemoteID == "" {
			return fmt.Errorf("%w: %s requires a remote id", ErrInvalidDescriptor, d.Kind)
		}
	default:
		if d.LocalID <= 0 {
			return fmt.Errorf("%w: invalid local id %d", ErrInvalidDescriptor, d.LocalID)
		}
	}
	return nil
}
