package domain

import (
	"strings"
	"time"
)

// ManualSourcePrefix marks synthetic sources that must never be fetched
// automatically (articles imported by hand get attached to one).
const ManualSourcePrefix = "manual://"

// Source is an RSS feed the pipeline polls.
type Source struct {
	ID       string
	Name     string
	RSSURL   string
	Category string
	IsActive bool
	// HourlyLimit caps how many new articles a single run may create
	// from this source. Zero means the source is polled but nothing
	// is processed.
	HourlyLimit int
	CreatedAt   time.Time
}

// IsManual reports whether the source is a do-not-fetch sentinel.
func (s Source) IsManual() bool {
	return strings.HasPrefix(s.RSSURL, ManualSourcePrefix)
}

// ExternalAccount holds credentials for one WordPress-compatible blog.
type ExternalAccount struct {
	ID       string
	Name     string
	APIURL   string
	Username string
	Password string
	// Category restricts which articles route to this account. Empty
	// means the account is a catch-all.
	Category  string
	IsActive  bool
	CreatedAt time.Time
}

// IsCatchAll reports whether the account accepts any category.
func (a ExternalAccount) IsCatchAll() bool {
	return a.Category == ""
}
