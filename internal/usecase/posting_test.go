package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herdirudian/pressflow/internal/domain"
)

func newTestPoster(articles *fakeArticleRepo, accounts *fakeAccountRepo, publisher *fakePublisher) (*Poster, *recordingAudit) {
	auditLog := &recordingAudit{}
	poster := NewPoster(PosterDeps{
		Articles:  articles,
		Accounts:  accounts,
		Publisher: publisher,
		Audit:     auditLog,
		Location:  time.UTC,
		Now:       func() time.Time { return testTime },
	})
	return poster, auditLog
}

func publishedArticle(id string, score int) *domain.Article {
	return &domain.Article{
		ID:           id,
		Title:        "Title " + id,
		Slug:         "slug-" + id,
		Content:      "content",
		Category:     "Tech",
		SourceURL:    "http://item/" + id,
		QualityScore: score,
		Status:       domain.StatusPublished,
	}
}

func techAccount() domain.ExternalAccount {
	return domain.ExternalAccount{ID: "acc-tech", Name: "Tech Blog", APIURL: "http://wp/tech", Category: "Tech", IsActive: true}
}

func catchAllAccount() domain.ExternalAccount {
	return domain.ExternalAccount{ID: "acc-all", Name: "General Blog", APIURL: "http://wp/general", IsActive: true}
}

func TestRunScheduledPosting(t *testing.T) {
	t.Run("posts the highest scoring candidate and latches it", func(t *testing.T) {
		articles := &fakeArticleRepo{articles: []*domain.Article{
			publishedArticle("low", 85),
			publishedArticle("high", 92),
		}}
		publisher := &fakePublisher{result: &domain.PostResult{ID: 321, Link: "http://wp/tech/321"}}
		poster, _ := newTestPoster(articles, &fakeAccountRepo{accounts: []domain.ExternalAccount{techAccount()}}, publisher)

		require.NoError(t, poster.RunScheduledPosting(context.Background()))

		require.Len(t, publisher.posts, 1)
		assert.Equal(t, "Title high", publisher.posts[0].Title)
		assert.Equal(t, "publish", publisher.posts[0].Status)

		posted, err := articles.FindByID(context.Background(), "high")
		require.NoError(t, err)
		assert.True(t, posted.IsPostedExternally)
		assert.Equal(t, "WORDPRESS", posted.ExternalPlatform)
		assert.Equal(t, "321", posted.ExternalPostID)
		require.NotNil(t, posted.PostedAt)
		assert.Equal(t, testTime, *posted.PostedAt)
	})

	t.Run("daily cap of three stops all posting", func(t *testing.T) {
		today := testTime.Add(-2 * time.Hour)
		var posted []*domain.Article
		for _, id := range []string{"p1", "p2", "p3"} {
			article := publishedArticle(id, 90)
			article.IsPostedExternally = true
			article.PostedAt = &today
			posted = append(posted, article)
		}
		posted = append(posted, publishedArticle("fresh", 95))

		articles := &fakeArticleRepo{articles: posted}
		publisher := &fakePublisher{}
		poster, auditLog := newTestPoster(articles, &fakeAccountRepo{accounts: []domain.ExternalAccount{techAccount()}}, publisher)

		require.NoError(t, poster.RunScheduledPosting(context.Background()))
		assert.Empty(t, publisher.posts)
		assert.Empty(t, publisher.uploads)
		assert.Equal(t, 1, auditLog.countLevel(domain.LevelInfo))
	})

	t.Run("posts from yesterday do not count against today", func(t *testing.T) {
		yesterday := testTime.Add(-24 * time.Hour)
		var stored []*domain.Article
		for _, id := range []string{"p1", "p2", "p3"} {
			article := publishedArticle(id, 90)
			article.IsPostedExternally = true
			article.PostedAt = &yesterday
			stored = append(stored, article)
		}
		stored = append(stored, publishedArticle("fresh", 95))

		articles := &fakeArticleRepo{articles: stored}
		publisher := &fakePublisher{}
		poster, _ := newTestPoster(articles, &fakeAccountRepo{accounts: []domain.ExternalAccount{techAccount()}}, publisher)

		require.NoError(t, poster.RunScheduledPosting(context.Background()))
		require.Len(t, publisher.posts, 1)
	})

	t.Run("scores below eighty are not candidates", func(t *testing.T) {
		articles := &fakeArticleRepo{articles: []*domain.Article{publishedArticle("meh", 79)}}
		publisher := &fakePublisher{}
		poster, auditLog := newTestPoster(articles, &fakeAccountRepo{accounts: []domain.ExternalAccount{techAccount()}}, publisher)

		require.NoError(t, poster.RunScheduledPosting(context.Background()))
		assert.Empty(t, publisher.posts)
		assert.Equal(t, 1, auditLog.countLevel(domain.LevelInfo))
	})

	t.Run("no matching account is a quiet no-op", func(t *testing.T) {
		article := publishedArticle("a", 90)
		article.Category = "Sports"
		articles := &fakeArticleRepo{articles: []*domain.Article{article}}
		publisher := &fakePublisher{}
		poster, _ := newTestPoster(articles, &fakeAccountRepo{accounts: []domain.ExternalAccount{techAccount()}}, publisher)

		require.NoError(t, poster.RunScheduledPosting(context.Background()))
		assert.Empty(t, publisher.posts)
	})

	t.Run("hard posting failure propagates", func(t *testing.T) {
		articles := &fakeArticleRepo{articles: []*domain.Article{publishedArticle("a", 90)}}
		publisher := &fakePublisher{postErr: errors.New("post creation failed 403: forbidden")}
		poster, _ := newTestPoster(articles, &fakeAccountRepo{accounts: []domain.ExternalAccount{techAccount()}}, publisher)

		err := poster.RunScheduledPosting(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "403")

		article, _ := articles.FindByID(context.Background(), "a")
		assert.False(t, article.IsPostedExternally)
	})
}

func TestPostArticle(t *testing.T) {
	t.Run("already posted article is a no-op", func(t *testing.T) {
		article := publishedArticle("a", 90)
		article.IsPostedExternally = true
		articles := &fakeArticleRepo{articles: []*domain.Article{article}}
		publisher := &fakePublisher{}
		poster, _ := newTestPoster(articles, &fakeAccountRepo{accounts: []domain.ExternalAccount{techAccount()}}, publisher)

		result, err := poster.PostArticle(context.Background(), "a")
		require.NoError(t, err)
		assert.Nil(t, result)
		assert.Empty(t, publisher.posts)
	})

	t.Run("unknown article id fails", func(t *testing.T) {
		poster, _ := newTestPoster(&fakeArticleRepo{}, &fakeAccountRepo{}, &fakePublisher{})

		_, err := poster.PostArticle(context.Background(), "missing")
		require.ErrorIs(t, err, ErrArticleNotFound)
	})

	t.Run("image upload failure degrades to posting without media", func(t *testing.T) {
		article := publishedArticle("a", 90)
		article.ImageURL = "http://img/a.jpg"
		articles := &fakeArticleRepo{articles: []*domain.Article{article}}
		publisher := &fakePublisher{uploadErr: errors.New("media upload failed")}
		poster, auditLog := newTestPoster(articles, &fakeAccountRepo{accounts: []domain.ExternalAccount{techAccount()}}, publisher)

		result, err := poster.PostArticle(context.Background(), "a")
		require.NoError(t, err)
		require.NotNil(t, result)

		require.Len(t, publisher.posts, 1)
		assert.Zero(t, publisher.posts[0].FeaturedMedia)
		assert.Equal(t, 1, auditLog.countLevel(domain.LevelWarn))
	})

	t.Run("uploaded image becomes the featured media", func(t *testing.T) {
		article := publishedArticle("a", 90)
		article.ImageURL = "http://img/a.jpg"
		articles := &fakeArticleRepo{articles: []*domain.Article{article}}
		publisher := &fakePublisher{mediaID: 55}
		poster, _ := newTestPoster(articles, &fakeAccountRepo{accounts: []domain.ExternalAccount{techAccount()}}, publisher)

		_, err := poster.PostArticle(context.Background(), "a")
		require.NoError(t, err)

		assert.Equal(t, []string{"http://img/a.jpg"}, publisher.uploads)
		require.Len(t, publisher.posts, 1)
		assert.Equal(t, int64(55), publisher.posts[0].FeaturedMedia)
	})

	t.Run("article without image never touches the media endpoint", func(t *testing.T) {
		articles := &fakeArticleRepo{articles: []*domain.Article{publishedArticle("a", 90)}}
		publisher := &fakePublisher{}
		poster, _ := newTestPoster(articles, &fakeAccountRepo{accounts: []domain.ExternalAccount{techAccount()}}, publisher)

		_, err := poster.PostArticle(context.Background(), "a")
		require.NoError(t, err)
		assert.Empty(t, publisher.uploads)
	})
}

func TestResolveAccount(t *testing.T) {
	tech := techAccount()
	catchAll := catchAllAccount()

	t.Run("exact category match wins over catch-all", func(t *testing.T) {
		account := resolveAccount([]domain.ExternalAccount{catchAll, tech}, "Tech")
		require.NotNil(t, account)
		assert.Equal(t, "acc-tech", account.ID)
	})

	t.Run("unmatched category falls back to catch-all", func(t *testing.T) {
		account := resolveAccount([]domain.ExternalAccount{tech, catchAll}, "Sports")
		require.NotNil(t, account)
		assert.Equal(t, "acc-all", account.ID)
	})

	t.Run("no match and no catch-all yields no target", func(t *testing.T) {
		assert.Nil(t, resolveAccount([]domain.ExternalAccount{tech}, "Sports"))
	})

	t.Run("first match in iteration order wins", func(t *testing.T) {
		second := techAccount()
		second.ID = "acc-tech-2"
		account := resolveAccount([]domain.ExternalAccount{tech, second}, "Tech")
		require.NotNil(t, account)
		assert.Equal(t, "acc-tech", account.ID)
	})

	t.Run("no accounts at all yields no target", func(t *testing.T) {
		assert.Nil(t, resolveAccount(nil, "Tech"))
	})
}
