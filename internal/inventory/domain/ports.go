package domain

import (
	"context"
	"errors"
	"time"
)

// ---------- Errores de dominio ----------
var (
	// ErrTransport: la llamada HTTP no pudo iniciarse o completarse.
	ErrTransport = errors.New("remote transport failure")
	// ErrLocalStore: fallo leyendo o escribiendo metadatos locales. Siempre se propaga.
	ErrLocalStore = errors.New("local store failure")
	// ErrInvalidDescriptor: el descriptor no supera la validación de entrada.
	ErrInvalidDescriptor = errors.New("invalid event descriptor")
	// ErrQueueFull: la cola está llena y no hay outbox de desbordamiento.
	ErrQueueFull = errors.New("dispatch queue full")
	// ErrQueueClosed: el dispatcher ya no acepta trabajo.
	ErrQueueClosed = errors.New("dispatch queue closed")
	// ErrLockTimeout: no se obtuvo el lock de stock antes del deadline.
	ErrLockTimeout = errors.New("stock lock acquisition timed out")
	// ErrUnknownEntity: tipo de entidad desconocido.
	ErrUnknownEntity = errors.New("unknown entity type")
)

// ---------- Interfaces (Ports) ----------

// MetaStore es el almacén clave-valor de metadatos de una entidad local
// (post meta para productos, term meta para categorías).
// GetField devuelve "" si el campo no existe.
type MetaStore interface {
	GetField(ctx context.Context, entityID int64, key string) (string, error)
	SetField(ctx context.Context, entityID int64, key, value string) error
}

// DeletedItemStore gestiona los registros de borrados pendientes adjuntos
// al contenedor centinela.
type DeletedItemStore interface {
	// ContainerID resuelve (y crea si hace falta) el contenedor centinela.
	ContainerID(ctx context.Context, name string) (int64, error)
	Exists(ctx context.Context, containerID int64, item DeletedItem) (bool, error)
	Attach(ctx context.Context, containerID int64, item DeletedItem) error
	Detach(ctx context.Context, containerID int64, item DeletedItem) error
}

// Storefront expone la actualización de visibilidad del producto en tienda.
type Storefront interface {
	SetCatalogVisibility(ctx context.Context, productID int64, visibility string) error
}

// StockLock es el lock con nombre que protege las mutaciones de stock.
// Lo adquiere quien dispara el evento y lo libera la reconciliación.
type StockLock interface {
	Acquire(ctx context.Context) error
	Release(ctx context.Context) error
}

// Request es la llamada HTTP que el cliente remoto debe ejecutar.
type Request struct {
	Method   string
	Resource string
	RemoteID string
	Body     string // url-encoded
	Headers  map[string]string
	Secure   bool
}

// RequestFor construye la petición a partir de un descriptor.
func RequestFor(d Descriptor) Request {
	return Request{
		Method:   d.Method,
		Resource: d.Resource,
		RemoteID: d.RemoteID,
		Body:     d.Body,
		Headers:  d.Headers,
		Secure:   d.Secure,
	}
}

// RemoteClient ejecuta una petición contra la API de inventario.
// Debe devolver un error que envuelva ErrTransport si la llamada no se completó.
type RemoteClient interface {
	Execute(ctx context.Context, req Request) (Response, error)
}

// AuditRecord es lo que se registra de cada evento despachado.
type AuditRecord struct {
	DescriptorID string
	Kind         EventKind
	LocalID      int64
	RemoteID     string
	Status       int
	Payload      interface{}
	At           time.Time
}

// AuditLogger registra eventos despachados cuando el log de eventos está activo.
type AuditLogger interface {
	Log(ctx context.Context, rec AuditRecord) error
}

// EventQueue acepta descriptores sin bloquear al llamador.
type EventQueue interface {
	Enqueue(ctx context.Context, d Descriptor) error
}

// Reconciler aplica el resultado de un intento remoto al estado local.
type Reconciler interface {
	Reconcile(ctx context.Context, kind EventKind, status int, body map[string]interface{}, localID int64, remoteID string) error
}
