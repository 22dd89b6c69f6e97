package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Métricas Prometheus del despacho y la reconciliación.
var (
	DispatchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inventory_sync_dispatch_total",
			Help: "Total de unidades despachadas contra la API remota",
		},
		[]string{"event", "outcome"},
	)

	DispatchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "inventory_sync_dispatch_duration_seconds",
			Help:    "Duración de la llamada remota por evento",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"event"},
	)

	RemoteStatusTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inventory_sync_remote_status_total",
			Help: "Códigos HTTP devueltos por la API remota",
		},
		[]string{"code"},
	)

	ReconcileErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "inventory_sync_reconcile_errors_total",
			Help: "Errores del almacén local durante la reconciliación",
		},
	)

	QueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "inventory_sync_queue_depth",
			Help: "Descriptores en la cola en memoria",
		},
	)

	OverflowTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "inventory_sync_overflow_total",
			Help: "Descriptores desviados al outbox por cola llena",
		},
	)
)

var registerOnce sync.Once

// Register registra todas las métricas en el registro por defecto. Se puede
// llamar más de una vez.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			DispatchTotal,
			DispatchDuration,
			RemoteStatusTotal,
			ReconcileErrorsTotal,
			QueueDepth,
			OverflowTotal,
		)
	})
}

// Outcome clasifica un estado HTTP en success / failure.
func Outcome(status int) string {
	if status >= 400 {
		return "failure"
	}
	return "success"
}

// ObserveStatus cuenta el código devuelto.
func ObserveStatus(status int) {
	RemoteStatusTotal.WithLabelValues(strconv.Itoa(status)).Inc()
}
