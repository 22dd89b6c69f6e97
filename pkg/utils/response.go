package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse define la estructura estándar para las respuestas de error.
type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// SendSuccess envía una respuesta exitosa con un payload de datos.
func SendSuccess(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, gin.H{
		"data": data,
	})
}

// SendAccepted responde 202: el trabajo queda en cola, no hecho.
func SendAccepted(c *gin.Context, data interface{}) {
	SendSuccess(c, http.StatusAccepted, data)
}

// SendError envía una respuesta de error con un formato estandarizado.
func SendError(c *gin.Context, statusCode int, message string) {
	SendErrorCode(c, statusCode, "", message)
}

// SendErrorCode añade un código estable que los clientes pueden comparar.
func SendErrorCode(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, gin.H{
		"error": ErrorResponse{
			Message: message,
			Code:    code,
		},
	})
}

// --- Helpers específicos para errores comunes ---

func SendBadRequest(c *gin.Context, message string) {
	SendErrorCode(c, http.StatusBadRequest, "invalid_request", message)
}

// SendUnavailable indica un rechazo temporal (cola llena, lock ocupado);
// el cliente puede reintentar.
func SendUnavailable(c *gin.Context, code, message string) {
	c.Header("Retry-After", "1")
	SendErrorCode(c, http.StatusServiceUnavailable, code, message)
}

func SendInternalServerError(c *gin.Context, message string) {
	SendErrorCode(c, http.StatusInternalServerError, "internal", message)
}
