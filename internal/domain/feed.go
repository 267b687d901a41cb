package domain

// FeedItem is one entry of a fetched syndication feed, normalized to the
// fields the pipeline cares about.
type FeedItem struct {
	Title string
	// Link is the item permalink and becomes the article's SourceURL.
	// Items without a link carry no stable identity and are skipped.
	Link    string
	Content string
	Snippet string
	Summary string
}

// bodyFallbacks is the ordered list of extraction strategies for the raw
// text handed to the rewrite service: full content first, then the
// snippet, then the feed-level summary.
func (i FeedItem) bodyFallbacks() []string {
	return []string{i.Content, i.Snippet, i.Summary}
}

// Body returns the first non-empty content field, or "" when the item
// carries no text at all.
func (i FeedItem) Body() string {
	for _, candidate := range i.bodyFallbacks() {
		if candidate != "" {
			return candidate
		}
	}
	return ""
}

// DisplayTitle returns the item title, or "Untitled" when absent.
func (i FeedItem) DisplayTitle() string {
	if i.Title == "" {
		return "Untitled"
	}
	return i.Title
}

// ScrapedPage is the result of scraping an article URL directly.
type ScrapedPage struct {
	Title   string
	Content string
	Image   string
}

// Rewrite is the structured result of the generative rewrite step. A
// QualityScore of zero (or less) means the rewrite produced nothing
// usable and the item must be skipped.
type Rewrite struct {
	Title        string `json:"title"`
	Slug         string `json:"slug"`
	Content      string `json:"content"`
	MetaDesc     string `json:"metaDesc"`
	Category     string `json:"category"`
	QualityScore int    `json:"qualityScore"`
	ImagePrompt  string `json:"imagePrompt"`
	ImageURL     string `json:"imageUrl"`
}
