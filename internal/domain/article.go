package domain

import "time"

// Status is the local publication state of an article, derived once from
// the quality score when the article is created.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusPublished Status = "PUBLISHED"
	StatusRejected  Status = "REJECTED"
)

// Quality-score thresholds for status derivation. Fixed policy, not
// configurable per source.
const (
	PublishThreshold = 75
	DraftThreshold   = 60
)

// ClassifyScore maps a rewrite quality score to the article status.
func ClassifyScore(score int) Status {
	switch {
	case score >= PublishThreshold:
		return StatusPublished
	case score >= DraftThreshold:
		return StatusDraft
	default:
		return StatusRejected
	}
}

// Article is a rewritten news item persisted by the ingestion pipeline
// or the manual importer.
type Article struct {
	ID          string
	Title       string
	Slug        string
	Content     string
	MetaDesc    string
	Category    string
	ImageURL    string
	ImagePrompt string
	SourceID    string
	// SourceURL is the permalink of the original item and the sole
	// dedupe key; unique in storage.
	SourceURL    string
	QualityScore int
	Status       Status
	PublishedAt  *time.Time

	// External posting fields. IsPostedExternally is a one-way latch:
	// once set the article is never posted again.
	IsPostedExternally bool
	ExternalPlatform   string
	ExternalPostID     string
	PostedAt           *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PostRequest carries the payload submitted to an external platform's
// post-creation endpoint.
type PostRequest struct {
	Title         string
	Content       string
	Status        string
	FeaturedMedia int64
}

// PostResult is the platform's answer to a successful post creation.
type PostResult struct {
	ID   int64
	Link string
}
