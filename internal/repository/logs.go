package repository

import (
	"context"
	"time"

	"github.com/nkoryagin/accountkeeper/internal/model"
)

// LogRepository provides append-only access to operation log entries.
type LogRepository interface {
	// Insert appends one log entry.
	Insert(ctx context.Context, e *model.LogEntry) error

	// Recent returns up to limit entries, newest first.
	Recent(ctx context.Context, limit int) ([]model.LogEntry, error)

	// ByTimeRange returns entries with start <= OperationTime <= end, newest first.
	ByTimeRange(ctx context.Context, start, end time.Time) ([]model.LogEntry, error)

	// DeleteAll irreversibly removes every log entry.
	DeleteAll(ctx context.Context) error
}
