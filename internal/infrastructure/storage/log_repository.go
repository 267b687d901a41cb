package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/herdirudian/pressflow/internal/domain"
	"github.com/herdirudian/pressflow/internal/ports"
)

// ProcessingLogRepository appends per-article processing records.
type ProcessingLogRepository struct {
	db *sql.DB
}

var _ ports.ProcessingLogRepository = (*ProcessingLogRepository)(nil)

// NewProcessingLogRepository wires a sql.DB implementation.
func NewProcessingLogRepository(db *sql.DB) *ProcessingLogRepository {
	return &ProcessingLogRepository{db: db}
}

// Create appends the entry.
func (r *ProcessingLogRepository) Create(ctx context.Context, entry *domain.ProcessingLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	entry.CreatedAt = time.Now().UTC()

	metadata, err := marshalMetadata(entry.Metadata)
	if err != nil {
		return err
	}

	query, args, err := psql.Insert("processing_logs").
		Columns("id", "article_id", "step", "status", "metadata", "created_at").
		Values(entry.ID, entry.ArticleID, string(entry.Step), entry.Status, metadata, entry.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert processing log: %w", err)
	}

	return nil
}

// SystemLogRepository appends system audit entries.
type SystemLogRepository struct {
	db *sql.DB
}

var _ ports.SystemLogRepository = (*SystemLogRepository)(nil)

// NewSystemLogRepository wires a sql.DB implementation.
func NewSystemLogRepository(db *sql.DB) *SystemLogRepository {
	return &SystemLogRepository{db: db}
}

// Create appends the entry.
func (r *SystemLogRepository) Create(ctx context.Context, entry *domain.SystemLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	entry.CreatedAt = time.Now().UTC()

	metadata, err := marshalMetadata(entry.Metadata)
	if err != nil {
		return err
	}

	query, args, err := psql.Insert("system_logs").
		Columns("id", "level", "message", "metadata", "created_at").
		Values(entry.ID, string(entry.Level), entry.Message, metadata, entry.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert system log: %w", err)
	}

	return nil
}

func marshalMetadata(metadata map[string]any) (any, error) {
	if len(metadata) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	return raw, nil
}
