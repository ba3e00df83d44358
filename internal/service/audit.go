// Package service contains application services for accounts and audit logging.
package service

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/nkoryagin/accountkeeper/internal/model"
	"github.com/nkoryagin/accountkeeper/internal/repository"
)

// AuditService records operation outcomes in the append-only log.
type AuditService interface {
	// Append persists one log entry, best-effort. A storage failure is
	// reported to the diagnostic logger only and never reaches the caller:
	// audit durability must not block or fail primary operations.
	Append(ctx context.Context, opType, description, relatedUsername string, result model.Result)
	// Recent returns up to limit entries, newest first.
	Recent(ctx context.Context, limit int) ([]model.LogEntry, error)
	// ByTimeRange returns entries within the inclusive window, newest first.
	ByTimeRange(ctx context.Context, start, end time.Time) ([]model.LogEntry, error)
	// ClearAll irreversibly deletes every entry. Unlike Append this is an
	// explicit destructive action and propagates failure.
	ClearAll(ctx context.Context) error
}

type AuditServiceImpl struct {
	logs   repository.LogRepository
	logger *zap.Logger
}

// NewAuditService constructs AuditService with the given diagnostic sink.
func NewAuditService(logs repository.LogRepository, logger *zap.Logger) *AuditServiceImpl {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditServiceImpl{logs: logs, logger: logger}
}

// Append writes one entry with OperationTime=now, swallowing any failure.
func (s *AuditServiceImpl) Append(ctx context.Context, opType, description, relatedUsername string, result model.Result) {
	id, err := uuid.NewV4()
	if err != nil {
		s.logger.Warn("audit append skipped", zap.String("op", opType), zap.Error(err))
		return
	}
	e := &model.LogEntry{
		ID:              id,
		OperationType:   opType,
		Description:     truncate(description, model.MaxDescLen),
		RelatedUsername: relatedUsername,
		OperationTime:   time.Now(),
		Result:          result,
	}
	if err := s.logs.Insert(ctx, e); err != nil {
		s.logger.Warn("audit append failed", zap.String("op", opType), zap.Error(err))
	}
}

// Recent returns up to limit entries, newest first.
func (s *AuditServiceImpl) Recent(ctx context.Context, limit int) ([]model.LogEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.logs.Recent(ctx, limit)
}

// ByTimeRange returns entries within [start, end], newest first.
func (s *AuditServiceImpl) ByTimeRange(ctx context.Context, start, end time.Time) ([]model.LogEntry, error) {
	return s.logs.ByTimeRange(ctx, start, end)
}

// ClearAll deletes every entry and records the clear itself afterwards.
func (s *AuditServiceImpl) ClearAll(ctx context.Context) error {
	if err := s.logs.DeleteAll(ctx); err != nil {
		return err
	}
	s.Append(ctx, "clear-logs", "operation log cleared", "", model.ResultSuccess)
	return nil
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
