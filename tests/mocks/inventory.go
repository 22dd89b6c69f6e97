package mocks

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/davicafu/catalogsync/internal/inventory/domain"
)

// ErrStoreDown simula la caída del almacén local.
var ErrStoreDown = errors.New("store down")

// InMemoryMetaStore simula el almacén de metadatos y cuenta las escrituras.
type InMemoryMetaStore struct {
	Fields  map[string]string
	Writes  int
	FailGet bool
	FailSet bool
	mu      sync.Mutex
}

var _ domain.MetaStore = (*InMemoryMetaStore)(nil)

func NewInMemoryMetaStore() *InMemoryMetaStore {
	return &InMemoryMetaStore{Fields: make(map[string]string)}
}

func metaKey(id int64, key string) string {
	return fmt.Sprintf("%d/%s", id, key)
}

func (s *InMemoryMetaStore) GetField(ctx context.Context, entityID int64, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailGet {
		return "", ErrStoreDown
	}
	return s.Fields[metaKey(entityID, key)], nil
}

func (s *InMemoryMetaStore) SetField(ctx context.Context, entityID int64, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailSet {
		return ErrStoreDown
	}
	s.Fields[metaKey(entityID, key)] = value
	s.Writes++
	return nil
}

// Field es un atajo de test para leer un campo sin contexto.
func (s *InMemoryMetaStore) Field(entityID int64, key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Fields[metaKey(entityID, key)]
}

// Put inserta un campo directamente, sin contar la escritura.
func (s *InMemoryMetaStore) Put(entityID int64, key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Fields[metaKey(entityID, key)] = value
}

// InMemoryDeletedItems simula el contenedor de borrados pendientes.
type InMemoryDeletedItems struct {
	Containers map[string]int64
	Items      map[int64][]domain.DeletedItem
	mu         sync.Mutex
}

var _ domain.DeletedItemStore = (*InMemoryDeletedItems)(nil)

func NewInMemoryDeletedItems() *InMemoryDeletedItems {
	return &InMemoryDeletedItems{
		Containers: make(map[string]int64),
		Items:      make(map[int64][]domain.DeletedItem),
	}
}

func (s *InMemoryDeletedItems) ContainerID(ctx context.Context, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.Containers[name]; ok {
		return id, nil
	}
	id := int64(len(s.Containers) + 1000)
	s.Containers[name] = id
	return id, nil
}

func (s *InMemoryDeletedItems) Exists(ctx context.Context, containerID int64, item domain.DeletedItem) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range s.Items[containerID] {
		if it == item {
			return true, nil
		}
	}
	return false, nil
}

func (s *InMemoryDeletedItems) Attach(ctx context.Context, containerID int64, item domain.DeletedItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Items[containerID] = append(s.Items[containerID], item)
	return nil
}

func (s *InMemoryDeletedItems) Detach(ctx context.Context, containerID int64, item domain.DeletedItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.Items[containerID][:0]
	for _, it := range s.Items[containerID] {
		if it != item {
			kept = append(kept, it)
		}
	}
	s.Items[containerID] = kept
	return nil
}

// Count devuelve cuántos registros hay en total.
func (s *InMemoryDeletedItems) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, items := range s.Items {
		n += len(items)
	}
	return n
}

// CountingLock es un lock falso que cuenta adquisiciones y liberaciones.
type CountingLock struct {
	Acquired   int
	Released   int
	AcquireErr error
	mu         sync.Mutex
}

var _ domain.StockLock = (*CountingLock)(nil)

func (l *CountingLock) Acquire(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.AcquireErr != nil {
		return l.AcquireErr
	}
	l.Acquired++
	return nil
}

func (l *CountingLock) Release(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Released++
	return nil
}

func (l *CountingLock) Counts() (acquired, released int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.Acquired, l.Released
}

// MockStorefront simula la tienda.
type MockStorefront struct {
	mock.Mock
}

func (m *MockStorefront) SetCatalogVisibility(ctx context.Context, productID int64, visibility string) error {
	args := m.Called(ctx, productID, visibility)
	return args.Error(0)
}

// MockRemoteClient simula la API remota.
type MockRemoteClient struct {
	mock.Mock
}

func (m *MockRemoteClient) Execute(ctx context.Context, req domain.Request) (domain.Response, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(domain.Response), args.Error(1)
}

// MockReconciler registra las llamadas de reconciliación.
type MockReconciler struct {
	mock.Mock
}

func (m *MockReconciler) Reconcile(ctx context.Context, kind domain.EventKind, status int, body map[string]interface{}, localID int64, remoteID string) error {
	args := m.Called(ctx, kind, status, body, localID, remoteID)
	return args.Error(0)
}

// MockAuditLogger simula el registro de eventos.
type MockAuditLogger struct {
	mock.Mock
}

func (m *MockAuditLogger) Log(ctx context.Context, rec domain.AuditRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

// MockEventQueue simula la cola de despacho.
type MockEventQueue struct {
	mock.Mock
}

func (m *MockEventQueue) Enqueue(ctx context.Context, d domain.Descriptor) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}
