package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/herdirudian/pressflow/internal/domain"
	"github.com/herdirudian/pressflow/internal/ports"
)

var articleColumns = []string{
	"id", "title", "slug", "content", "meta_desc", "category",
	"image_url", "image_prompt", "source_id", "source_url",
	"quality_score", "status", "published_at",
	"is_posted_externally", "external_platform", "external_post_id", "posted_at",
	"created_at", "updated_at",
}

// ArticleRepository persists articles into Postgres.
type ArticleRepository struct {
	db *sql.DB
}

var _ ports.ArticleRepository = (*ArticleRepository)(nil)

// NewArticleRepository wires a sql.DB implementation.
func NewArticleRepository(db *sql.DB) *ArticleRepository {
	return &ArticleRepository{db: db}
}

// Create inserts the article, assigning an id and timestamps.
func (r *ArticleRepository) Create(ctx context.Context, article *domain.Article) error {
	if article.ID == "" {
		article.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	article.CreatedAt = now
	article.UpdatedAt = now

	query, args, err := psql.Insert("articles").
		Columns(articleColumns...).
		Values(
			article.ID, article.Title, article.Slug, article.Content,
			article.MetaDesc, article.Category,
			nullString(article.ImageURL), nullString(article.ImagePrompt),
			article.SourceID, article.SourceURL,
			article.QualityScore, string(article.Status), article.PublishedAt,
			article.IsPostedExternally,
			nullString(article.ExternalPlatform), nullString(article.ExternalPostID),
			article.PostedAt,
			article.CreatedAt, article.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert article: %w", err)
	}

	return nil
}

// FindByID returns the article or nil when absent.
func (r *ArticleRepository) FindByID(ctx context.Context, id string) (*domain.Article, error) {
	return r.findOne(ctx, sq.Eq{"id": id})
}

// ExistsBySourceURL reports whether an article was already ingested from
// the given permalink.
func (r *ArticleRepository) ExistsBySourceURL(ctx context.Context, sourceURL string) (bool, error) {
	return r.exists(ctx, sq.Eq{"source_url": sourceURL})
}

// SlugExists reports whether the slug is taken.
func (r *ArticleRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	return r.exists(ctx, sq.Eq{"slug": slug})
}

// CountPostedSince counts externally posted articles with posted_at at
// or after the given instant.
func (r *ArticleRepository) CountPostedSince(ctx context.Context, since time.Time) (int, error) {
	query, args, err := psql.Select("COUNT(*)").
		From("articles").
		Where(sq.Eq{"is_posted_externally": true}).
		Where(sq.GtOrEq{"posted_at": since}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count: %w", err)
	}

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count posted: %w", err)
	}

	return count, nil
}

// NextCandidate returns the best posting candidate or nil when none
// qualifies.
func (r *ArticleRepository) NextCandidate(ctx context.Context, minScore int) (*domain.Article, error) {
	query, args, err := psql.Select(articleColumns...).
		From("articles").
		Where(sq.Eq{"status": string(domain.StatusPublished), "is_posted_externally": false}).
		Where(sq.GtOrEq{"quality_score": minScore}).
		OrderBy("quality_score DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build candidate query: %w", err)
	}

	article, err := scanArticle(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query candidate: %w", err)
	}

	return article, nil
}

// MarkPosted latches the external-posting fields.
func (r *ArticleRepository) MarkPosted(ctx context.Context, id, platform, postID string, at time.Time) error {
	query, args, err := psql.Update("articles").
		Set("is_posted_externally", true).
		Set("external_platform", platform).
		Set("external_post_id", postID).
		Set("posted_at", at).
		Set("updated_at", at).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("mark posted: %w", err)
	}

	return nil
}

func (r *ArticleRepository) findOne(ctx context.Context, where sq.Eq) (*domain.Article, error) {
	query, args, err := psql.Select(articleColumns...).
		From("articles").
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	article, err := scanArticle(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query article: %w", err)
	}

	return article, nil
}

func (r *ArticleRepository) exists(ctx context.Context, where sq.Eq) (bool, error) {
	query, args, err := psql.Select("1").
		From("articles").
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists query: %w", err)
	}

	var one int
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query exists: %w", err)
	}

	return true, nil
}

func scanArticle(row *sql.Row) (*domain.Article, error) {
	var (
		article          domain.Article
		status           string
		imageURL         sql.NullString
		imagePrompt      sql.NullString
		externalPlatform sql.NullString
		externalPostID   sql.NullString
		publishedAt      sql.NullTime
		postedAt         sql.NullTime
	)

	err := row.Scan(
		&article.ID, &article.Title, &article.Slug, &article.Content,
		&article.MetaDesc, &article.Category,
		&imageURL, &imagePrompt, &article.SourceID, &article.SourceURL,
		&article.QualityScore, &status, &publishedAt,
		&article.IsPostedExternally, &externalPlatform, &externalPostID, &postedAt,
		&article.CreatedAt, &article.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	article.Status = domain.Status(status)
	article.ImageURL = fromNullString(imageURL)
	article.ImagePrompt = fromNullString(imagePrompt)
	article.ExternalPlatform = fromNullString(externalPlatform)
	article.ExternalPostID = fromNullString(externalPostID)
	if publishedAt.Valid {
		article.PublishedAt = &publishedAt.Time
	}
	if postedAt.Valid {
		article.PostedAt = &postedAt.Time
	}

	return &article, nil
}
