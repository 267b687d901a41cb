package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/herdirudian/pressflow/internal/domain"
	"github.com/herdirudian/pressflow/internal/ports"
)

// Posting policy constants. The cap counts external posts per calendar
// day; the score floor keeps low-quality articles off external blogs.
const (
	dailyPostCap = 3
	minPostScore = 80
)

// externalPlatform is the only publishing target currently supported.
const externalPlatform = "WORDPRESS"

// ErrArticleNotFound marks posting requests for unknown article ids.
var ErrArticleNotFound = errors.New("article not found")

// PosterDeps wires the adapters of the publication scheduler.
type PosterDeps struct {
	Articles  ports.ArticleRepository
	Accounts  ports.AccountRepository
	Publisher ports.Publisher
	Audit     ports.AuditLogger
	Logger    *slog.Logger
	// Location defines the calendar day of the posting quota.
	Location *time.Location
	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

// Poster decides whether, where, and when a processed article goes out
// to an external platform.
type Poster struct {
	articles  ports.ArticleRepository
	accounts  ports.AccountRepository
	publisher ports.Publisher
	audit     ports.AuditLogger
	logger    *slog.Logger
	location  *time.Location
	now       func() time.Time
}

// NewPoster constructs the publication scheduler.
func NewPoster(deps PosterDeps) *Poster {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	location := deps.Location
	if location == nil {
		location = time.UTC
	}
	return &Poster{
		articles:  deps.Articles,
		accounts:  deps.Accounts,
		publisher: deps.Publisher,
		audit:     deps.Audit,
		logger:    deps.Logger,
		location:  location,
		now:       now,
	}
}

// RunScheduledPosting posts at most one article: the highest-scoring
// eligible candidate, if the daily quota allows and an account matches.
// Quota reached, no candidate, and no matching account are all normal
// no-op outcomes; only a hard posting failure returns an error.
func (p *Poster) RunScheduledPosting(ctx context.Context) error {
	posted, err := p.articles.CountPostedSince(ctx, p.startOfDay())
	if err != nil {
		return fmt.Errorf("count posted today: %w", err)
	}

	if posted >= dailyPostCap {
		p.audit.Info(ctx, fmt.Sprintf("Daily limit of %d posts reached. Skipping.", dailyPostCap), nil)
		return nil
	}

	candidate, err := p.articles.NextCandidate(ctx, minPostScore)
	if err != nil {
		return fmt.Errorf("find candidate: %w", err)
	}
	if candidate == nil {
		p.audit.Info(ctx, "No suitable articles found for posting.", nil)
		return nil
	}

	accounts, err := p.accounts.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("load accounts: %w", err)
	}
	if resolveAccount(accounts, candidate.Category) == nil {
		p.audit.Info(ctx, "No suitable account found for category", map[string]any{
			"category": candidate.Category,
		})
		return nil
	}

	_, err = p.PostArticle(ctx, candidate.ID)
	return err
}

// PostArticle pushes one article to its matching external account. It is
// independently callable (forced manual posting), so it re-checks the
// posted latch and re-resolves the target account itself. A nil result
// with nil error means the operation was a no-op.
func (p *Poster) PostArticle(ctx context.Context, articleID string) (*domain.PostResult, error) {
	article, err := p.articles.FindByID(ctx, articleID)
	if err != nil {
		return nil, fmt.Errorf("load article: %w", err)
	}
	if article == nil {
		return nil, ErrArticleNotFound
	}

	if article.IsPostedExternally {
		p.audit.Info(ctx, "Article already posted externally", map[string]any{
			"article_id": article.ID,
		})
		return nil, nil
	}

	accounts, err := p.accounts.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("load accounts: %w", err)
	}

	account := resolveAccount(accounts, article.Category)
	if account == nil {
		p.audit.Warn(ctx, "No suitable account found for category", map[string]any{
			"article_id": article.ID,
			"category":   article.Category,
		})
		return nil, nil
	}

	p.debug("posting article", "article_id", article.ID, "account", account.Name, "category", article.Category)

	var featuredMedia int64
	if article.ImageURL != "" {
		mediaID, err := p.publisher.UploadMedia(ctx, *account, article.ImageURL, article.Title)
		if err != nil {
			// Best effort: post without a featured image.
			p.audit.Warn(ctx, "Image upload failed, posting without featured image", map[string]any{
				"article_id": article.ID,
				"error":      err.Error(),
			})
		} else {
			featuredMedia = mediaID
		}
	}

	result, err := p.publisher.CreatePost(ctx, *account, domain.PostRequest{
		Title:         article.Title,
		Content:       article.Content,
		Status:        "publish",
		FeaturedMedia: featuredMedia,
	})
	if err != nil {
		return nil, fmt.Errorf("post to %s: %w", account.Name, err)
	}

	postedAt := p.now()
	postID := strconv.FormatInt(result.ID, 10)
	if err := p.articles.MarkPosted(ctx, article.ID, externalPlatform, postID, postedAt); err != nil {
		return nil, fmt.Errorf("mark posted: %w", err)
	}

	p.audit.Info(ctx, "Posted article externally", map[string]any{
		"article_id": article.ID,
		"post_id":    postID,
		"account":    account.Name,
	})

	return result, nil
}

// resolveAccount picks the posting target: exact category match first,
// then a catch-all account. Within each pass the first account in store
// iteration order wins; there is deliberately no secondary tie-break.
func resolveAccount(accounts []domain.ExternalAccount, category string) *domain.ExternalAccount {
	for i := range accounts {
		if accounts[i].Category == category {
			return &accounts[i]
		}
	}
	for i := range accounts {
		if accounts[i].IsCatchAll() {
			return &accounts[i]
		}
	}
	return nil
}

// startOfDay returns midnight of the current calendar day in the
// configured location.
func (p *Poster) startOfDay() time.Time {
	now := p.now().In(p.location)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, p.location)
}

func (p *Poster) debug(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}
