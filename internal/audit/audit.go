// Package audit writes the persistent system log: every notable pipeline
// event lands both in the system_logs table and on the console logger.
package audit

import (
	"context"
	"log/slog"

	"github.com/herdirudian/pressflow/internal/domain"
	"github.com/herdirudian/pressflow/internal/ports"
)

// Logger mirrors audit entries to storage and slog. When persisting the
// entry itself fails, the failure goes to slog only; audit logging never
// breaks the operation being audited.
type Logger struct {
	repository ports.SystemLogRepository
	logger     *slog.Logger
}

var _ ports.AuditLogger = (*Logger)(nil)

// New wires the system-log repository with a console logger.
func New(repository ports.SystemLogRepository, logger *slog.Logger) *Logger {
	return &Logger{repository: repository, logger: logger}
}

// Info records an INFO entry.
func (l *Logger) Info(ctx context.Context, message string, metadata map[string]any) {
	l.log(ctx, domain.LevelInfo, message, metadata)
}

// Warn records a WARN entry.
func (l *Logger) Warn(ctx context.Context, message string, metadata map[string]any) {
	l.log(ctx, domain.LevelWarn, message, metadata)
}

// Error records an ERROR entry.
func (l *Logger) Error(ctx context.Context, message string, metadata map[string]any) {
	l.log(ctx, domain.LevelError, message, metadata)
}

func (l *Logger) log(ctx context.Context, level domain.LogLevel, message string, metadata map[string]any) {
	l.console(level, message, metadata)

	if l.repository == nil {
		return
	}

	entry := &domain.SystemLog{
		Level:    level,
		Message:  message,
		Metadata: metadata,
	}
	if err := l.repository.Create(ctx, entry); err != nil {
		if l.logger != nil {
			l.logger.Error("failed to persist system log", "message", message, "error", err)
		}
	}
}

func (l *Logger) console(level domain.LogLevel, message string, metadata map[string]any) {
	if l.logger == nil {
		return
	}

	args := make([]any, 0, len(metadata)*2)
	for key, value := range metadata {
		args = append(args, key, value)
	}

	switch level {
	case domain.LevelWarn:
		l.logger.Warn(message, args...)
	case domain.LevelError:
		l.logger.Error(message, args...)
	default:
		l.logger.Info(message, args...)
	}
}
