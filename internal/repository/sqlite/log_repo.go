package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/nkoryagin/accountkeeper/internal/errs"
	"github.com/nkoryagin/accountkeeper/internal/model"
)

// LogRepo implements repository.LogRepository using SQLite.
type LogRepo struct{ db *DB }

// NewLogRepo constructs a log repository.
func NewLogRepo(db *DB) *LogRepo { return &LogRepo{db: db} }

// Insert appends one log entry. Entries are never updated afterwards.
func (r *LogRepo) Insert(ctx context.Context, e *model.LogEntry) error {
	const q = `
INSERT INTO operation_logs (id, operation_type, description, related_username, operation_time, result)
VALUES (?,?,?,?,?,?)`
	_, err := r.db.Writer.ExecContext(ctx, q,
		e.ID.String(), e.OperationType, e.Description, e.RelatedUsername, e.OperationTime, int(e.Result))
	if err != nil {
		return fmt.Errorf("%w: insert log entry: %v", errs.ErrStore, err)
	}
	return nil
}

// Recent returns up to limit entries, newest first. Ties on operation_time
// break on id so pagination stays stable within one insert burst.
func (r *LogRepo) Recent(ctx context.Context, limit int) ([]model.LogEntry, error) {
	const q = `
SELECT id, operation_type, description, related_username, operation_time, result
FROM operation_logs ORDER BY operation_time DESC, id DESC LIMIT ?`
	return r.query(ctx, q, limit)
}

// ByTimeRange returns entries within the inclusive [start, end] window, newest first.
func (r *LogRepo) ByTimeRange(ctx context.Context, start, end time.Time) ([]model.LogEntry, error) {
	const q = `
SELECT id, operation_type, description, related_username, operation_time, result
FROM operation_logs WHERE operation_time >= ? AND operation_time <= ?
ORDER BY operation_time DESC, id DESC`
	return r.query(ctx, q, start, end)
}

// DeleteAll irreversibly removes every log entry.
func (r *LogRepo) DeleteAll(ctx context.Context) error {
	if _, err := r.db.Writer.ExecContext(ctx, `DELETE FROM operation_logs`); err != nil {
		return fmt.Errorf("%w: clear logs: %v", errs.ErrStore, err)
	}
	return nil
}

func (r *LogRepo) query(ctx context.Context, q string, args ...any) ([]model.LogEntry, error) {
	rows, err := r.db.Reader.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query logs: %v", errs.ErrStore, err)
	}
	defer rows.Close()

	var out []model.LogEntry
	for rows.Next() {
		var (
			e      model.LogEntry
			rawID  string
			result int
		)
		if err := rows.Scan(&rawID, &e.OperationType, &e.Description, &e.RelatedUsername, &e.OperationTime, &result); err != nil {
			return nil, fmt.Errorf("%w: scan log entry: %v", errs.ErrStore, err)
		}
		e.ID, err = uuid.FromString(rawID)
		if err != nil {
			return nil, fmt.Errorf("%w: bad log id %q: %v", errs.ErrStore, rawID, err)
		}
		e.Result = model.Result(result)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate logs: %v", errs.ErrStore, err)
	}
	return out, nil
}
