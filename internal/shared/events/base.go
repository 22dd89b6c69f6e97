package events

import (
	"encoding/json"
	"time"
)

// IntegrationEvent es el sobre de todo mensaje que viaja por el bus.
type IntegrationEvent struct {
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"` // contenido específico del evento
	Key       string          `json:"-"`
}

// NewIntegrationEvent serializa data dentro del sobre.
func NewIntegrationEvent(eventType, key string, data interface{}) (IntegrationEvent, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return IntegrationEvent{}, err
	}
	return IntegrationEvent{Type: eventType, Timestamp: time.Now().UTC(), Data: raw, Key: key}, nil
}

// PartitionKey agrupa en la misma partición los eventos de una entidad.
func (e IntegrationEvent) PartitionKey() string {
	return e.Key
}
