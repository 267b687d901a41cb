package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/herdirudian/pressflow/internal/domain"
	"github.com/herdirudian/pressflow/internal/ports"
)

// Values of the synthetic source every hand-imported article attaches
// to. Its manual:// URL keeps the pipeline from ever fetching it.
const (
	manualSourceName = "Manual Import"
	manualSourceURL  = domain.ManualSourcePrefix + "import"
)

// ImporterDeps wires the adapters of the manual importer.
type ImporterDeps struct {
	Sources        ports.SourceRepository
	Articles       ports.ArticleRepository
	ProcessingLogs ports.ProcessingLogRepository
	Scraper        ports.Scraper
	Rewriter       ports.Rewriter
	Audit          ports.AuditLogger
	Now            func() time.Time
}

// Importer turns a single URL into a stored article: scrape, rewrite,
// classify, persist. Unlike the pipeline it fails loudly, since the
// operator is waiting for the result.
type Importer struct {
	sources        ports.SourceRepository
	articles       ports.ArticleRepository
	processingLogs ports.ProcessingLogRepository
	scraper        ports.Scraper
	rewriter       ports.Rewriter
	audit          ports.AuditLogger
	now            func() time.Time
}

// NewImporter constructs the manual-import workflow.
func NewImporter(deps ImporterDeps) *Importer {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Importer{
		sources:        deps.Sources,
		articles:       deps.Articles,
		processingLogs: deps.ProcessingLogs,
		scraper:        deps.Scraper,
		rewriter:       deps.Rewriter,
		audit:          deps.Audit,
		now:            now,
	}
}

// Import scrapes the URL, rewrites the content, and stores the result
// under the synthetic manual-import source.
func (i *Importer) Import(ctx context.Context, url string) (*domain.Article, error) {
	scraped, err := i.scraper.Scrape(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("scrape %s: %w", url, err)
	}

	rewrite, err := i.rewriter.Rewrite(ctx, scraped.Content, scraped.Title)
	if err != nil {
		return nil, fmt.Errorf("rewrite: %w", err)
	}

	source, err := i.manualSource(ctx)
	if err != nil {
		return nil, err
	}

	slug := rewrite.Slug
	taken, err := i.articles.SlugExists(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("check slug: %w", err)
	}
	if taken {
		slug = fmt.Sprintf("%s-%d", slug, i.now().UnixMilli())
	}

	imageURL := rewrite.ImageURL
	if imageURL == "" {
		imageURL = scraped.Image
	}

	status := domain.ClassifyScore(rewrite.QualityScore)
	article := &domain.Article{
		Title:        rewrite.Title,
		Slug:         slug,
		Content:      rewrite.Content,
		MetaDesc:     rewrite.MetaDesc,
		Category:     fallbackCategory(rewrite.Category),
		ImageURL:     imageURL,
		ImagePrompt:  rewrite.ImagePrompt,
		SourceID:     source.ID,
		SourceURL:    url,
		QualityScore: rewrite.QualityScore,
		Status:       status,
	}
	if status == domain.StatusPublished {
		publishedAt := i.now()
		article.PublishedAt = &publishedAt
	}

	if err := i.articles.Create(ctx, article); err != nil {
		return nil, fmt.Errorf("save article: %w", err)
	}

	entry := &domain.ProcessingLog{
		ArticleID: article.ID,
		Step:      domain.StepManualImport,
		Status:    domain.ProcessingStatusSuccess,
		Metadata: map[string]any{
			"ai_score":     rewrite.QualityScore,
			"original_url": url,
		},
	}
	if err := i.processingLogs.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("record processing log: %w", err)
	}

	i.audit.Info(ctx, "Imported article manually", map[string]any{
		"article_id": article.ID,
		"url":        url,
		"status":     string(article.Status),
	})

	return article, nil
}

// manualSource finds or lazily creates the synthetic source.
func (i *Importer) manualSource(ctx context.Context) (*domain.Source, error) {
	source, err := i.sources.FindByName(ctx, manualSourceName)
	if err != nil {
		return nil, fmt.Errorf("find manual source: %w", err)
	}
	if source != nil {
		return source, nil
	}

	created := &domain.Source{
		Name:     manualSourceName,
		RSSURL:   manualSourceURL,
		Category: "General",
		IsActive: true,
	}
	if err := i.sources.Create(ctx, created); err != nil {
		return nil, fmt.Errorf("create manual source: %w", err)
	}

	return created, nil
}
