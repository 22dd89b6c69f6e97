package utils

import (
	"encoding/json"
	"fmt"
)

// DecodePayload convierte el payload de un evento del outbox al tipo T.
// Según el repositorio, el payload llega como JSON crudo, como bytes o como
// un mapa ya decodificado.
func DecodePayload[T any](payload interface{}) (T, error) {
	var out T
	var raw []byte
	switch p := payload.(type) {
	case json.RawMessage:
		raw = p
	case []byte:
		raw = p
	case string:
		raw = []byte(p)
	case T:
		return p, nil
	default:
		b, err := json.Marshal(p)
		if err != nil {
			return out, fmt.Errorf("marshal payload: %w", err)
		}
		raw = b
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("unmarshal payload: %w", err)
	}
	return out, nil
}
