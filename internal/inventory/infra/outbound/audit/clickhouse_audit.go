package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"

	"github.com/davicafu/catalogsync/internal/inventory/domain"
)

// ClickHouseAuditLog guarda el historial de eventos despachados en
// ClickHouse para poder analizar tasas de fallo por evento.
type ClickHouseAuditLog struct {
	db *sql.DB
}

var _ domain.AuditLogger = (*ClickHouseAuditLog)(nil)

func NewClickHouseAuditLog(ctx context.Context, addr, dbName string) (*ClickHouseAuditLog, error) {
	conn := clickhouse.OpenDB(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: dbName,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
	})

	if err := conn.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("could not ping clickhouse: %w", err)
	}

	_, err := conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS sync_events_log (
			descriptor_id String,
			event_type    LowCardinality(String),
			post_id       Int64,
			dinkassa_id   String,
			status        Int32,
			payload       String,
			event_time    DateTime64(3)
		) ENGINE = MergeTree ORDER BY (event_type, event_time)`)
	if err != nil {
		return nil, fmt.Errorf("create sync_events_log: %w", err)
	}
	return &ClickHouseAuditLog{db: conn}, nil
}

func (r *ClickHouseAuditLog) Log(ctx context.Context, rec domain.AuditRecord) error {
	payload, err := json.Marshal(rec.Payload)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	// ClickHouse solo acepta inserciones dentro de un lote preparado.
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO sync_events_log (descriptor_id, event_type, post_id, dinkassa_id, status, payload, event_time)")
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	if _, err := stmt.ExecContext(ctx, rec.DescriptorID, string(rec.Kind), rec.LocalID, rec.RemoteID, int32(rec.Status), string(payload), rec.At); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to log event %s: %w", rec.DescriptorID, err)
	}
	return tx.Commit()
}

func (r *ClickHouseAuditLog) Close() error {
	return r.db.Close()
}
