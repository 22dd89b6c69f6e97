package domain

import (
	"encoding/json"
	"fmt"
)

// StatusTransportFailure es el estado sintético que se usa cuando la llamada
// no llegó a completarse (timeout, conexión rechazada, pánico del worker).
// Cuenta como intento fallido (>= 400) y no trae cuerpo.
const StatusTransportFailure = 599

// Response es la respuesta de la API remota ya parseada.
// Body es nil cuando el cuerpo venía vacío o no era JSON.
type Response struct {
	StatusCode int
	Body       map[string]interface{}
}

// Failed aplica la regla de negocio: cualquier estado >= 400 es un fallo.
func Failed(status int) bool {
	return status >= 400
}

// Item devuelve el objeto "Item" de la respuesta, si existe.
func (r Response) Item() map[string]interface{} {
	return ItemOf(r.Body)
}

// ItemOf extrae body["Item"] como objeto.
func ItemOf(body map[string]interface{}) map[string]interface{} {
	if body == nil {
		return nil
	}
	item, _ := body["Item"].(map[string]interface{})
	return item
}

// ItemString lee un campo del Item como texto. Los ids numéricos se
// formatean sin decimales.
func ItemString(item map[string]interface{}, field string) string {
	v, ok := item[field]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%v", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
