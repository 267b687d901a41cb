package scraper

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/herdirudian/pressflow/internal/domain"
	"github.com/herdirudian/pressflow/internal/ports"
)

// minContentLength is the point at which a selector's text is considered
// substantial enough to stop cascading.
const minContentLength = 200

var (
	noiseSelector = strings.Join([]string{
		"script", "style", "nav", "footer", "header", "aside", "iframe",
		".ad", ".advertisement", ".social-share", ".comments",
		".related-posts", ".promo", ".subscription", ".cookie-banner",
		`[class*="ad-"]`, `[id*="ad-"]`,
	}, ", ")

	contentSelectors = []string{
		"article",
		`[role="main"]`,
		".post-content",
		".article-body",
		".entry-content",
		"main",
	}

	whitespaceExpr = regexp.MustCompile(`\s+`)
)

// Scraper extracts article title, body text, and lead image from a page.
type Scraper struct {
	client *http.Client
}

var _ ports.Scraper = (*Scraper)(nil)

// New wires an HTTP client; a nil client gets a 20s timeout default.
func New(client *http.Client) *Scraper {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &Scraper{client: client}
}

// Scrape downloads the page and runs the extraction cascade.
func (s *Scraper) Scrape(ctx context.Context, pageURL string) (domain.ScrapedPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return domain.ScrapedPage{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")

	resp, err := s.client.Do(req)
	if err != nil {
		return domain.ScrapedPage{}, fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.ScrapedPage{}, fmt.Errorf("fetch page: unexpected status %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return domain.ScrapedPage{}, fmt.Errorf("parse page: %w", err)
	}

	doc.Find(noiseSelector).Remove()
	removeBoilerplateParagraphs(doc)

	page := domain.ScrapedPage{
		Title:   extractTitle(doc),
		Content: extractContent(doc),
		Image:   doc.Find(`meta[property="og:image"]`).AttrOr("content", ""),
	}

	if page.Title == "" {
		page.Title = "Untitled"
	}
	if page.Content == "" {
		page.Content = "No content found"
	}

	return page, nil
}

func removeBoilerplateParagraphs(doc *goquery.Document) {
	doc.Find("p").Each(func(_ int, sel *goquery.Selection) {
		text := strings.ToUpper(strings.TrimSpace(sel.Text()))
		if text == "ADVERTISEMENT" ||
			strings.Contains(text, "SCROLL TO CONTINUE") ||
			strings.Contains(text, "READ ALSO") {
			sel.Remove()
		}
	})
}

func extractTitle(doc *goquery.Document) string {
	if title := doc.Find(`meta[property="og:title"]`).AttrOr("content", ""); title != "" {
		return title
	}
	if title := strings.TrimSpace(doc.Find("h1").First().Text()); title != "" {
		return title
	}
	return strings.TrimSpace(doc.Find("title").Text())
}

func extractContent(doc *goquery.Document) string {
	for _, selector := range contentSelectors {
		container := doc.Find(selector)
		if container.Length() == 0 {
			continue
		}
		content := joinParagraphs(container)
		if len(content) > minContentLength {
			return content
		}
	}

	// No known container held enough text; fall back to whichever
	// div/section has the most paragraphs.
	var best *goquery.Selection
	maxParagraphs := 0
	doc.Find("div, section").Each(func(_ int, sel *goquery.Selection) {
		if count := sel.Find("p").Length(); count > maxParagraphs {
			maxParagraphs = count
			best = sel
		}
	})
	if best != nil {
		if content := joinParagraphs(best); content != "" {
			return content
		}
	}

	return whitespaceExpr.ReplaceAllString(strings.TrimSpace(doc.Find("body").Text()), " ")
}

func joinParagraphs(container *goquery.Selection) string {
	var paragraphs []string
	container.Find("p").Each(func(_ int, sel *goquery.Selection) {
		if text := strings.TrimSpace(sel.Text()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	})
	return strings.Join(paragraphs, "\n\n")
}
