package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/herdirudian/pressflow/internal/domain"
)

type fakeSourceRepo struct {
	sources []domain.Source
}

func (f *fakeSourceRepo) List(_ context.Context) ([]domain.Source, error) {
	return f.sources, nil
}

func (f *fakeSourceRepo) ListActive(_ context.Context) ([]domain.Source, error) {
	var active []domain.Source
	for _, source := range f.sources {
		if source.IsActive {
			active = append(active, source)
		}
	}
	return active, nil
}

func (f *fakeSourceRepo) FindByName(_ context.Context, name string) (*domain.Source, error) {
	for i := range f.sources {
		if f.sources[i].Name == name {
			source := f.sources[i]
			return &source, nil
		}
	}
	return nil, nil
}

func (f *fakeSourceRepo) Create(_ context.Context, source *domain.Source) error {
	if source.ID == "" {
		source.ID = uuid.NewString()
	}
	f.sources = append(f.sources, *source)
	return nil
}

func (f *fakeSourceRepo) SetActive(_ context.Context, id string, active bool) error {
	for i := range f.sources {
		if f.sources[i].ID == id {
			f.sources[i].IsActive = active
			return nil
		}
	}
	return nil
}

func (f *fakeSourceRepo) Delete(_ context.Context, id string) error {
	for i := range f.sources {
		if f.sources[i].ID == id {
			f.sources = append(f.sources[:i], f.sources[i+1:]...)
			return nil
		}
	}
	return nil
}

type fakeArticleRepo struct {
	articles  []*domain.Article
	createErr error
}

func (f *fakeArticleRepo) Create(_ context.Context, article *domain.Article) error {
	if f.createErr != nil {
		return f.createErr
	}
	if article.ID == "" {
		article.ID = uuid.NewString()
	}
	copied := *article
	f.articles = append(f.articles, &copied)
	return nil
}

func (f *fakeArticleRepo) FindByID(_ context.Context, id string) (*domain.Article, error) {
	for _, article := range f.articles {
		if article.ID == id {
			copied := *article
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeArticleRepo) ExistsBySourceURL(_ context.Context, sourceURL string) (bool, error) {
	for _, article := range f.articles {
		if article.SourceURL == sourceURL {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeArticleRepo) SlugExists(_ context.Context, slug string) (bool, error) {
	for _, article := range f.articles {
		if article.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeArticleRepo) CountPostedSince(_ context.Context, since time.Time) (int, error) {
	count := 0
	for _, article := range f.articles {
		if article.IsPostedExternally && article.PostedAt != nil && !article.PostedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (f *fakeArticleRepo) NextCandidate(_ context.Context, minScore int) (*domain.Article, error) {
	var best *domain.Article
	for _, article := range f.articles {
		if article.Status != domain.StatusPublished || article.IsPostedExternally || article.QualityScore < minScore {
			continue
		}
		if best == nil || article.QualityScore > best.QualityScore {
			best = article
		}
	}
	if best == nil {
		return nil, nil
	}
	copied := *best
	return &copied, nil
}

func (f *fakeArticleRepo) MarkPosted(_ context.Context, id, platform, postID string, at time.Time) error {
	for _, article := range f.articles {
		if article.ID == id {
			article.IsPostedExternally = true
			article.ExternalPlatform = platform
			article.ExternalPostID = postID
			article.PostedAt = &at
			return nil
		}
	}
	return nil
}

type fakeAccountRepo struct {
	accounts []domain.ExternalAccount
}

func (f *fakeAccountRepo) ListActive(_ context.Context) ([]domain.ExternalAccount, error) {
	var active []domain.ExternalAccount
	for _, account := range f.accounts {
		if account.IsActive {
			active = append(active, account)
		}
	}
	return active, nil
}

type fakeProcessingLogRepo struct {
	entries []*domain.ProcessingLog
}

func (f *fakeProcessingLogRepo) Create(_ context.Context, entry *domain.ProcessingLog) error {
	copied := *entry
	f.entries = append(f.entries, &copied)
	return nil
}

type fakeFeed struct {
	items   map[string][]domain.FeedItem
	fetched []string
}

func (f *fakeFeed) Fetch(_ context.Context, url string) []domain.FeedItem {
	f.fetched = append(f.fetched, url)
	return f.items[url]
}

type rewriteResult struct {
	rewrite domain.Rewrite
	err     error
}

type fakeRewriter struct {
	results map[string]rewriteResult
	calls   []string
}

func (f *fakeRewriter) Rewrite(_ context.Context, _, title string) (domain.Rewrite, error) {
	f.calls = append(f.calls, title)
	result, ok := f.results[title]
	if !ok {
		return domain.Rewrite{}, nil
	}
	return result.rewrite, result.err
}

type fakeScraper struct {
	page domain.ScrapedPage
	err  error
}

func (f *fakeScraper) Scrape(_ context.Context, _ string) (domain.ScrapedPage, error) {
	return f.page, f.err
}

type fakePublisher struct {
	mediaID   int64
	uploadErr error
	result    *domain.PostResult
	postErr   error

	uploads []string
	posts   []domain.PostRequest
}

func (f *fakePublisher) UploadMedia(_ context.Context, _ domain.ExternalAccount, imageURL, _ string) (int64, error) {
	f.uploads = append(f.uploads, imageURL)
	if f.uploadErr != nil {
		return 0, f.uploadErr
	}
	return f.mediaID, nil
}

func (f *fakePublisher) CreatePost(_ context.Context, _ domain.ExternalAccount, post domain.PostRequest) (*domain.PostResult, error) {
	f.posts = append(f.posts, post)
	if f.postErr != nil {
		return nil, f.postErr
	}
	if f.result != nil {
		return f.result, nil
	}
	return &domain.PostResult{ID: 1}, nil
}

type auditEntry struct {
	level   domain.LogLevel
	message string
	meta    map[string]any
}

type recordingAudit struct {
	mu      sync.Mutex
	entries []auditEntry
}

func (a *recordingAudit) Info(_ context.Context, message string, meta map[string]any) {
	a.record(domain.LevelInfo, message, meta)
}

func (a *recordingAudit) Warn(_ context.Context, message string, meta map[string]any) {
	a.record(domain.LevelWarn, message, meta)
}

func (a *recordingAudit) Error(_ context.Context, message string, meta map[string]any) {
	a.record(domain.LevelError, message, meta)
}

func (a *recordingAudit) record(level domain.LogLevel, message string, meta map[string]any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, auditEntry{level: level, message: message, meta: meta})
}

func (a *recordingAudit) countLevel(level domain.LogLevel) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	count := 0
	for _, entry := range a.entries {
		if entry.level == level {
			count++
		}
	}
	return count
}
