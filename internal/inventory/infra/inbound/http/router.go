package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func RegisterSyncRoutes(r *gin.Engine, handler *SyncHandler) {
	r.POST("/async/requests", handler.AsyncRequest)

	sync := r.Group("/sync")
	{
		sync.POST("/events", handler.SyncEvent)
		sync.GET("/pending/:type/:id", handler.GetPending)
	}
}

// RegisterOpsRoutes monta health y métricas.
func RegisterOpsRoutes(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
