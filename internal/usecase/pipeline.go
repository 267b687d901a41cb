package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/herdirudian/pressflow/internal/domain"
	"github.com/herdirudian/pressflow/internal/ports"
)

// PipelineDeps wires all driven adapters into the ingestion pipeline.
type PipelineDeps struct {
	Sources        ports.SourceRepository
	Articles       ports.ArticleRepository
	ProcessingLogs ports.ProcessingLogRepository
	Feed           ports.FeedFetcher
	Rewriter       ports.Rewriter
	Audit          ports.AuditLogger
	Logger         *slog.Logger
	// RewriteDelay is the fixed pause before every rewrite call,
	// throttling absolute call rate against the provider.
	RewriteDelay time.Duration
	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

// Pipeline implements the feed-ingestion workflow: fetch, dedupe,
// rewrite, classify, persist. Item and source failures stay local.
type Pipeline struct {
	sources        ports.SourceRepository
	articles       ports.ArticleRepository
	processingLogs ports.ProcessingLogRepository
	feed           ports.FeedFetcher
	rewriter       ports.Rewriter
	audit          ports.AuditLogger
	logger         *slog.Logger
	rewriteDelay   time.Duration
	now            func() time.Time
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Pipeline{
		sources:        deps.Sources,
		articles:       deps.Articles,
		processingLogs: deps.ProcessingLogs,
		feed:           deps.Feed,
		rewriter:       deps.Rewriter,
		audit:          deps.Audit,
		logger:         deps.Logger,
		rewriteDelay:   deps.RewriteDelay,
		now:            now,
	}
}

// Run executes one full ingestion pass over all active sources and
// returns the newly created articles. Re-running against unchanged feeds
// creates nothing: items are deduped by their permalink.
func (p *Pipeline) Run(ctx context.Context) ([]domain.Article, error) {
	p.audit.Info(ctx, "Pipeline started", nil)

	sources, err := p.sources.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("load active sources: %w", err)
	}

	if len(sources) == 0 {
		p.audit.Warn(ctx, "No active sources found", nil)
		return []domain.Article{}, nil
	}

	results := make([]domain.Article, 0)
	for _, source := range sources {
		if source.IsManual() {
			continue
		}

		created, err := p.processSource(ctx, source)
		results = append(results, created...)
		if err != nil {
			// Only context cancellation escapes a source.
			return results, err
		}
	}

	p.audit.Info(ctx, fmt.Sprintf("Pipeline finished. Total new articles: %d", len(results)), nil)
	return results, nil
}

func (p *Pipeline) processSource(ctx context.Context, source domain.Source) ([]domain.Article, error) {
	items := p.feed.Fetch(ctx, source.RSSURL)
	p.debug("fetched feed", "source", source.Name, "items", len(items))

	var created []domain.Article
	processed := 0

	for _, item := range items {
		if processed >= source.HourlyLimit {
			break
		}

		if item.Link == "" {
			continue
		}

		exists, err := p.articles.ExistsBySourceURL(ctx, item.Link)
		if err != nil {
			p.audit.Error(ctx, "Dedupe check failed", map[string]any{
				"title": item.DisplayTitle(),
				"error": err.Error(),
			})
			continue
		}
		if exists {
			continue
		}

		if err := p.pause(ctx); err != nil {
			return created, err
		}

		article, ok := p.processItem(ctx, source, item)
		if !ok {
			continue
		}

		created = append(created, *article)
		processed++
	}

	if processed > 0 {
		p.audit.Info(ctx, fmt.Sprintf("Processed %d articles from %s", processed, source.Name), nil)
	}

	return created, nil
}

// processItem rewrites and persists a single feed item. Any failure is
// absorbed here: ok=false means "skip to the next item".
func (p *Pipeline) processItem(ctx context.Context, source domain.Source, item domain.FeedItem) (*domain.Article, bool) {
	title := item.DisplayTitle()

	rewrite, err := p.rewriter.Rewrite(ctx, item.Body(), title)
	if err != nil || rewrite.QualityScore <= 0 {
		metadata := map[string]any{"title": title}
		if err != nil {
			metadata["error"] = err.Error()
		}
		p.audit.Warn(ctx, "Rewrite produced no usable result, skipping item", metadata)
		return nil, false
	}

	slug, err := p.uniqueSlug(ctx, rewrite.Slug)
	if err != nil {
		p.audit.Error(ctx, "Failed to process/save article", map[string]any{
			"title": title,
			"error": err.Error(),
		})
		return nil, false
	}

	status := domain.ClassifyScore(rewrite.QualityScore)
	article := &domain.Article{
		Title:        rewrite.Title,
		Slug:         slug,
		Content:      rewrite.Content,
		MetaDesc:     rewrite.MetaDesc,
		Category:     fallbackCategory(rewrite.Category, source.Category),
		ImageURL:     rewrite.ImageURL,
		ImagePrompt:  rewrite.ImagePrompt,
		SourceID:     source.ID,
		SourceURL:    item.Link,
		QualityScore: rewrite.QualityScore,
		Status:       status,
	}
	if status == domain.StatusPublished {
		publishedAt := p.now()
		article.PublishedAt = &publishedAt
	}

	if err := p.articles.Create(ctx, article); err != nil {
		p.audit.Error(ctx, "Failed to process/save article", map[string]any{
			"title": title,
			"error": err.Error(),
		})
		return nil, false
	}

	entry := &domain.ProcessingLog{
		ArticleID: article.ID,
		Step:      domain.StepFullPipeline,
		Status:    domain.ProcessingStatusSuccess,
		Metadata:  map[string]any{"ai_score": rewrite.QualityScore},
	}
	if err := p.processingLogs.Create(ctx, entry); err != nil {
		p.audit.Error(ctx, "Failed to record processing log", map[string]any{
			"title": title,
			"error": err.Error(),
		})
		return nil, false
	}

	return article, true
}

// uniqueSlug disambiguates a taken slug with a timestamp suffix instead
// of failing the item.
func (p *Pipeline) uniqueSlug(ctx context.Context, slug string) (string, error) {
	taken, err := p.articles.SlugExists(ctx, slug)
	if err != nil {
		return "", fmt.Errorf("check slug: %w", err)
	}
	if taken {
		return fmt.Sprintf("%s-%d", slug, p.now().UnixMilli()), nil
	}
	return slug, nil
}

// pause applies the fixed pre-rewrite delay, honoring cancellation.
func (p *Pipeline) pause(ctx context.Context) error {
	if p.rewriteDelay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(p.rewriteDelay):
		return nil
	}
}

func fallbackCategory(categories ...string) string {
	for _, category := range categories {
		if category != "" {
			return category
		}
	}
	return "General"
}

func (p *Pipeline) debug(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}
