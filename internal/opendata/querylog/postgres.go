package querylog

import (
	"context"
	"fmt"

	"gov-dash/internal/common/database"
)

const queryLogColumns = `id UUID PRIMARY KEY,
	query TEXT NOT NULL,
	dataset_id TEXT,
	outcome TEXT NOT NULL,
	record_count INTEGER NOT NULL,
	filters JSONB,
	message TEXT,
	duration_ms BIGINT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL`

// PostgresSink inserts entries into a table.
type PostgresSink struct {
	db    *database.PostgresClient
	table string
	stmt  string
}

func NewPostgresSink(db *database.PostgresClient, table string) *PostgresSink {
	return &PostgresSink{
		db:    db,
		table: table,
		stmt: fmt.Sprintf(`INSERT INTO %s (id, query, dataset_id, outcome, record_count, filters, message, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`, table),
	}
}

// EnsureSchema creates the table when missing.
func (s *PostgresSink) EnsureSchema(ctx context.Context) error {
	return s.db.EnsureTable(ctx, s.table, queryLogColumns)
}

func (s *PostgresSink) Record(ctx context.Context, e Entry) error {
	var filters interface{}
	if e.Filters != "" {
		filters = e.Filters
	}
	_, err := s.db.Exec(ctx, s.stmt,
		e.ID, e.Query, nullable(e.DatasetID), e.Outcome, e.RecordCount,
		filters, nullable(e.Message), e.DurationMS, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert query log: %w", err)
	}
	return nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
