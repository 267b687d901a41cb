package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/herdirudian/pressflow/internal/domain"
	"github.com/herdirudian/pressflow/internal/ports"
)

var sourceColumns = []string{
	"id", "name", "rss_url", "category", "is_active", "hourly_limit", "created_at",
}

// SourceRepository persists feed sources into Postgres.
type SourceRepository struct {
	db *sql.DB
}

var _ ports.SourceRepository = (*SourceRepository)(nil)

// NewSourceRepository wires a sql.DB implementation.
func NewSourceRepository(db *sql.DB) *SourceRepository {
	return &SourceRepository{db: db}
}

// List returns every source in creation order.
func (r *SourceRepository) List(ctx context.Context) ([]domain.Source, error) {
	return r.list(ctx, nil)
}

// ListActive returns active sources in creation order; this order also
// fixes the per-run processing order of the pipeline.
func (r *SourceRepository) ListActive(ctx context.Context) ([]domain.Source, error) {
	return r.list(ctx, sq.Eq{"is_active": true})
}

func (r *SourceRepository) list(ctx context.Context, where sq.Eq) ([]domain.Source, error) {
	builder := psql.Select(sourceColumns...).
		From("sources").
		OrderBy("created_at ASC")
	if where != nil {
		builder = builder.Where(where)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sources: %w", err)
	}
	defer rows.Close()

	var sources []domain.Source
	for rows.Next() {
		source, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		sources = append(sources, source)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return sources, nil
}

// FindByName returns the first source with the given name or nil.
func (r *SourceRepository) FindByName(ctx context.Context, name string) (*domain.Source, error) {
	query, args, err := psql.Select(sourceColumns...).
		From("sources").
		Where(sq.Eq{"name": name}).
		OrderBy("created_at ASC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query source: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("rows iteration: %w", err)
		}
		return nil, nil
	}

	source, err := scanSource(rows)
	if err != nil {
		return nil, fmt.Errorf("scan source: %w", err)
	}

	return &source, nil
}

// Create inserts the source, assigning an id and creation time.
func (r *SourceRepository) Create(ctx context.Context, source *domain.Source) error {
	if source.ID == "" {
		source.ID = uuid.NewString()
	}
	source.CreatedAt = time.Now().UTC()

	query, args, err := psql.Insert("sources").
		Columns(sourceColumns...).
		Values(
			source.ID, source.Name, source.RSSURL,
			nullString(source.Category), source.IsActive,
			source.HourlyLimit, source.CreatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert source: %w", err)
	}

	return nil
}

// SetActive toggles the fetch flag.
func (r *SourceRepository) SetActive(ctx context.Context, id string, active bool) error {
	query, args, err := psql.Update("sources").
		Set("is_active", active).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update source: %w", err)
	}

	return requireRowAffected(result)
}

// Delete removes the source record.
func (r *SourceRepository) Delete(ctx context.Context, id string) error {
	query, args, err := psql.Delete("sources").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete source: %w", err)
	}

	return requireRowAffected(result)
}

func requireRowAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func scanSource(rows *sql.Rows) (domain.Source, error) {
	var (
		source   domain.Source
		category sql.NullString
	)

	err := rows.Scan(
		&source.ID, &source.Name, &source.RSSURL, &category,
		&source.IsActive, &source.HourlyLimit, &source.CreatedAt,
	)
	if err != nil {
		return domain.Source{}, err
	}

	source.Category = fromNullString(category)
	return source, nil
}
