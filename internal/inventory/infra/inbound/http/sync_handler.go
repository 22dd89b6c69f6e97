package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/davicafu/catalogsync/internal/inventory/application"
	"github.com/davicafu/catalogsync/internal/inventory/domain"
	"github.com/davicafu/catalogsync/pkg/utils"
)

// SyncHandler expone el disparo de sincronizaciones y la consulta de pendientes.
type SyncHandler struct {
	trigger *application.TriggerService
	pending *application.PendingQuery
	log     *zap.Logger
}

func NewSyncHandler(trigger *application.TriggerService, pending *application.PendingQuery, log *zap.Logger) *SyncHandler {
	return &SyncHandler{trigger: trigger, pending: pending, log: log}
}

// ---------------- Handlers ----------------

// AsyncRequest endpoint POST /async/requests (form-urlencoded).
// El campo data ya llega url-encoded y se guarda tal cual en el descriptor.
func (h *SyncHandler) AsyncRequest(c *gin.Context) {
	postID, err := parseOptionalID(c.PostForm("post_id"))
	if err != nil {
		utils.SendBadRequest(c, "invalid post_id")
		return
	}

	d := domain.NewDescriptor(
		domain.EventKind(c.PostForm("event")),
		postID,
		c.PostForm("request"),
		c.PostForm("controller"),
	)
	d.RemoteID = c.PostForm("dinkassa_id")
	d.Body = c.PostForm("data")
	d.Secure = isSecure(c)
	if headers := c.PostFormMap("opt_headers"); len(headers) > 0 {
		d.Headers = headers
	}
	d.LogContext = formLogContext(c)

	h.enqueue(c, d)
}

type eventRequest struct {
	Event         string            `json:"event" binding:"required"`
	Controller    string            `json:"controller" binding:"required"`
	Request       string            `json:"request" binding:"required"`
	PostID        int64             `json:"post_id"`
	DinkassaID    string            `json:"dinkassa_id"`
	Data          json.RawMessage   `json:"data"`
	OptHeaders    map[string]string `json:"opt_headers"`
	Info          interface{}       `json:"info"`
	QuantityDelta *int              `json:"quantity_change"`
}

// SyncEvent endpoint POST /sync/events (JSON). data es el JSON que se
// enviará a la API remota; quantity_change acumula el delta de stock antes
// de encolar.
func (h *SyncHandler) SyncEvent(c *gin.Context) {
	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendBadRequest(c, err.Error())
		return
	}

	kind := domain.EventKind(req.Event)
	opts := application.Options{
		Headers:    req.OptHeaders,
		LogContext: req.Info,
		Secure:     isSecure(c),
	}
	if len(req.Data) > 0 && string(req.Data) != "null" {
		opts.Payload = req.Data
	}

	if kind == domain.StockQuantityUpdated && req.QuantityDelta != nil {
		if err := h.trigger.StockChanged(c.Request.Context(), req.PostID, req.DinkassaID, *req.QuantityDelta, opts); err != nil {
			h.sendTriggerError(c, err)
			return
		}
		utils.SendAccepted(c, gin.H{"event": kind, "post_id": req.PostID})
		return
	}

	d := application.BuildDescriptor(kind, req.PostID, req.DinkassaID, req.Request, req.Controller, opts)
	h.enqueue(c, d)
}

// GetPending endpoint GET /sync/pending/:type/:id
func (h *SyncHandler) GetPending(c *gin.Context) {
	t, err := domain.ParseItemType(c.Param("type"))
	if err != nil {
		utils.SendBadRequest(c, err.Error())
		return
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		utils.SendBadRequest(c, "invalid id")
		return
	}

	status, err := h.pending.Pending(c.Request.Context(), t, id)
	if err != nil {
		h.log.Error("Error consultando pendientes", zap.Error(err))
		utils.SendInternalServerError(c, err.Error())
		return
	}
	utils.SendSuccess(c, http.StatusOK, status)
}

// ---------------- Helpers ----------------

func (h *SyncHandler) enqueue(c *gin.Context, d domain.Descriptor) {
	if err := h.trigger.Trigger(c.Request.Context(), d); err != nil {
		h.sendTriggerError(c, err)
		return
	}
	utils.SendAccepted(c, gin.H{"id": d.ID, "event": d.Kind})
}

func (h *SyncHandler) sendTriggerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidDescriptor):
		utils.SendBadRequest(c, err.Error())
	case errors.Is(err, domain.ErrQueueFull), errors.Is(err, domain.ErrQueueClosed):
		utils.SendUnavailable(c, "queue_unavailable", err.Error())
	case errors.Is(err, domain.ErrLockTimeout):
		utils.SendUnavailable(c, "stock_locked", err.Error())
	default:
		h.log.Error("Error encolando evento", zap.Error(err))
		utils.SendInternalServerError(c, err.Error())
	}
}

func parseOptionalID(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseInt(raw, 10, 64)
}

// isSecure replica la comprobación de petición segura detrás de un proxy.
func isSecure(c *gin.Context) bool {
	return c.Request.TLS != nil || strings.EqualFold(c.GetHeader("X-Forwarded-Proto"), "https")
}

// formLogContext acepta info[clave]=valor o info como JSON/texto plano.
func formLogContext(c *gin.Context) interface{} {
	if m := c.PostFormMap("info"); len(m) > 0 {
		return m
	}
	raw := c.PostForm("info")
	if raw == "" {
		return nil
	}
	var v interface{}
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		return v
	}
	return raw
}
