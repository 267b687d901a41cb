package feed

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/herdirudian/pressflow/internal/domain"
	"github.com/herdirudian/pressflow/internal/ports"
)

// Fetcher pulls RSS/Atom feeds via gofeed. Failures are absorbed here:
// the pipeline only ever sees a (possibly empty) item list.
type Fetcher struct {
	parser *gofeed.Parser
	logger *slog.Logger
}

var _ ports.FeedFetcher = (*Fetcher)(nil)

// NewFetcher wires an HTTP client; a nil client gets a 20s timeout default.
func NewFetcher(client *http.Client, logger *slog.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}

	parser := gofeed.NewParser()
	parser.Client = client
	parser.UserAgent = "pressflow/1.0"

	return &Fetcher{parser: parser, logger: logger}
}

// Fetch returns the feed items in document order. Unreachable or
// malformed feeds yield an empty list.
func (f *Fetcher) Fetch(ctx context.Context, url string) []domain.FeedItem {
	parsed, err := f.parser.ParseURLWithContext(url, ctx)
	if err != nil {
		f.warn("fetch feed failed", "url", url, "error", err)
		return nil
	}

	items := make([]domain.FeedItem, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		items = append(items, toFeedItem(item))
	}
	return items
}

func toFeedItem(item *gofeed.Item) domain.FeedItem {
	out := domain.FeedItem{
		Title:   item.Title,
		Link:    item.Link,
		Content: item.Content,
		Snippet: item.Description,
	}
	if item.ITunesExt != nil {
		out.Summary = item.ITunesExt.Summary
	}
	return out
}

func (f *Fetcher) warn(msg string, args ...any) {
	if f.logger != nil {
		f.logger.Warn(msg, args...)
	}
}
