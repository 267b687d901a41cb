package ports

import (
	"context"
	"errors"
	"time"

	"github.com/herdirudian/pressflow/internal/domain"
)

// ErrNotFound marks repository lookups and mutations that matched no
// record.
var ErrNotFound = errors.New("record not found")

// FeedFetcher pulls items from a syndication feed. It never fails: an
// unreachable or malformed feed degrades to an empty list, logged at the
// adapter boundary.
type FeedFetcher interface {
	Fetch(ctx context.Context, url string) []domain.FeedItem
}

// Scraper extracts title, content, and lead image from an article URL.
type Scraper interface {
	Scrape(ctx context.Context, url string) (domain.ScrapedPage, error)
}

// Rewriter sends raw text to the generative rewrite service. A reachable
// service that returns garbage yields a zero-score Rewrite, not an error.
type Rewriter interface {
	Rewrite(ctx context.Context, content, title string) (domain.Rewrite, error)
}

// SourceRepository manages feed source records.
type SourceRepository interface {
	List(ctx context.Context) ([]domain.Source, error)
	ListActive(ctx context.Context) ([]domain.Source, error)
	FindByName(ctx context.Context, name string) (*domain.Source, error)
	Create(ctx context.Context, source *domain.Source) error
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error
}

// ArticleRepository persists rewritten articles and answers the
// dedupe/candidate queries of the pipeline and the posting scheduler.
type ArticleRepository interface {
	Create(ctx context.Context, article *domain.Article) error
	FindByID(ctx context.Context, id string) (*domain.Article, error)
	ExistsBySourceURL(ctx context.Context, sourceURL string) (bool, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	// CountPostedSince counts articles posted externally at or after
	// the given instant.
	CountPostedSince(ctx context.Context, since time.Time) (int, error)
	// NextCandidate returns the highest-scoring published, unposted
	// article with a score of at least minScore, or nil.
	NextCandidate(ctx context.Context, minScore int) (*domain.Article, error)
	MarkPosted(ctx context.Context, id, platform, postID string, at time.Time) error
}

// AccountRepository reads external publishing accounts.
type AccountRepository interface {
	ListActive(ctx context.Context) ([]domain.ExternalAccount, error)
}

// ProcessingLogRepository appends per-article processing records.
type ProcessingLogRepository interface {
	Create(ctx context.Context, entry *domain.ProcessingLog) error
}

// SystemLogRepository appends system audit entries.
type SystemLogRepository interface {
	Create(ctx context.Context, entry *domain.SystemLog) error
}

// AuditLogger records notable events to the persistent system log.
// Implementations must swallow their own failures: audit logging never
// breaks the operation being audited.
type AuditLogger interface {
	Info(ctx context.Context, message string, metadata map[string]any)
	Warn(ctx context.Context, message string, metadata map[string]any)
	Error(ctx context.Context, message string, metadata map[string]any)
}

// Publisher talks to one external WordPress-compatible platform.
type Publisher interface {
	// UploadMedia pushes the image at imageURL to the account's media
	// endpoint and returns the platform media id.
	UploadMedia(ctx context.Context, account domain.ExternalAccount, imageURL, title string) (int64, error)
	CreatePost(ctx context.Context, account domain.ExternalAccount, post domain.PostRequest) (*domain.PostResult, error)
}

// Scheduler controls when coordinator runs fire.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
