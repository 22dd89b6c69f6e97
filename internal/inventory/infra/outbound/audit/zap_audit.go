package audit

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/davicafu/catalogsync/internal/inventory/domain"
)

// ZapAuditLogger escribe cada evento despachado en el log estructurado.
type ZapAuditLogger struct {
	log *zap.Logger
}

var _ domain.AuditLogger = (*ZapAuditLogger)(nil)

func NewZapAuditLogger(log *zap.Logger) *ZapAuditLogger {
	return &ZapAuditLogger{log: log.Named("audit")}
}

func (a *ZapAuditLogger) Log(ctx context.Context, rec domain.AuditRecord) error {
	a.log.Info("📝 Evento de sincronización",
		zap.String("descriptor_id", rec.DescriptorID),
		zap.String("event", string(rec.Kind)),
		zap.Int64("post_id", rec.LocalID),
		zap.String("dinkassa_id", rec.RemoteID),
		zap.Int("status", rec.Status),
		zap.Any("payload", rec.Payload),
		zap.Time("at", rec.At),
	)
	return nil
}

// Multi reparte cada registro entre varios destinos y junta los errores.
type Multi []domain.AuditLogger

func (m Multi) Log(ctx context.Context, rec domain.AuditRecord) error {
	var errs []error
	for _, sink := range m {
		if err := sink.Log(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
