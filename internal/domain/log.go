package domain

import "time"

// LogLevel classifies system log entries.
type LogLevel string

const (
	LevelInfo  LogLevel = "INFO"
	LevelWarn  LogLevel = "WARN"
	LevelError LogLevel = "ERROR"
)

// ProcessingStep tags which workflow produced an article.
type ProcessingStep string

const (
	StepFullPipeline ProcessingStep = "FULL_PIPELINE"
	StepManualImport ProcessingStep = "MANUAL_IMPORT"
)

// ProcessingLog is an append-only record of a successful article save.
type ProcessingLog struct {
	ID        string
	ArticleID string
	Step      ProcessingStep
	Status    string
	Metadata  map[string]any
	CreatedAt time.Time
}

// ProcessingStatusSuccess is the only status the core ever writes; the
// column exists for operator tooling that records failures by hand.
const ProcessingStatusSuccess = "SUCCESS"

// SystemLog is one entry of the process-wide audit trail.
type SystemLog struct {
	ID        string
	Level     LogLevel
	Message   string
	Metadata  map[string]any
	CreatedAt time.Time
}
