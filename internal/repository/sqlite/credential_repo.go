package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/nkoryagin/accountkeeper/internal/errs"
	"github.com/nkoryagin/accountkeeper/internal/model"
)

// CredentialRepo implements repository.CredentialRepository using SQLite.
type CredentialRepo struct{ db *DB }

// NewCredentialRepo constructs a credential repository.
func NewCredentialRepo(db *DB) *CredentialRepo { return &CredentialRepo{db: db} }

const credentialColumns = `id, username, secret, status, ban_time, remark, created_at,
last_login_time, available_minutes, available_until, level, amount`

// Insert persists a new credential. The unique index on username is the
// authoritative duplicate detector: a concurrent insert race surfaces as
// errs.ErrDuplicateUsername, never as two rows.
func (r *CredentialRepo) Insert(ctx context.Context, c *model.Credential) error {
	const q = `
INSERT INTO credentials (` + credentialColumns + `)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`
	_, err := r.db.Writer.ExecContext(ctx, q,
		c.ID.String(), c.Username, []byte(c.Secret), int(c.Status),
		nullTime(c.BanTime), c.Remark, c.CreatedAt,
		nullTime(c.LastLoginTime), nullInt(c.AvailableMinutes), nullTime(c.AvailableUntil),
		nullInt(c.Level), nullFloat(c.Amount),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("username %q: %w", c.Username, errs.ErrDuplicateUsername)
		}
		return fmt.Errorf("%w: insert credential: %v", errs.ErrStore, err)
	}
	return nil
}

// Get loads a single credential by id.
func (r *CredentialRepo) Get(ctx context.Context, id uuid.UUID) (*model.Credential, error) {
	const q = `SELECT ` + credentialColumns + ` FROM credentials WHERE id=?`
	c, err := scanCredential(r.db.Reader.QueryRowContext(ctx, q, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, fmt.Errorf("%w: get credential: %v", errs.ErrStore, err)
	}
	return c, nil
}

// List returns all credentials ordered by creation time, oldest first.
// Ties break on id so the snapshot order is stable.
func (r *CredentialRepo) List(ctx context.Context) ([]model.Credential, error) {
	const q = `SELECT ` + credentialColumns + ` FROM credentials ORDER BY created_at, id`
	rows, err := r.db.Reader.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%w: list credentials: %v", errs.ErrStore, err)
	}
	defer rows.Close()

	var out []model.Credential
	for rows.Next() {
		c, err := scanCredential(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan credential: %v", errs.ErrStore, err)
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate credentials: %v", errs.ErrStore, err)
	}
	return out, nil
}

// Delete hard-deletes all matching credentials. Unknown ids are ignored.
func (r *CredentialRepo) Delete(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	q := `DELETE FROM credentials WHERE id IN (` + placeholders(len(ids)) + `)`
	if _, err := r.db.Writer.ExecContext(ctx, q, idArgs(ids)...); err != nil {
		return fmt.Errorf("%w: delete credentials: %v", errs.ErrStore, err)
	}
	return nil
}

// UpdateRemark sets the remark on all matching credentials.
func (r *CredentialRepo) UpdateRemark(ctx context.Context, ids []uuid.UUID, remark string) error {
	if len(ids) == 0 {
		return nil
	}
	q := `UPDATE credentials SET remark=? WHERE id IN (` + placeholders(len(ids)) + `)`
	args := append([]any{remark}, idArgs(ids)...)
	if _, err := r.db.Writer.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("%w: update remark: %v", errs.ErrStore, err)
	}
	return nil
}

// UpdateBan marks all matching credentials banned until the given time.
func (r *CredentialRepo) UpdateBan(ctx context.Context, ids []uuid.UUID, until time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	q := `UPDATE credentials SET status=?, ban_time=? WHERE id IN (` + placeholders(len(ids)) + `)`
	args := append([]any{int(model.StatusBanned), until}, idArgs(ids)...)
	if _, err := r.db.Writer.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("%w: set ban: %v", errs.ErrStore, err)
	}
	return nil
}

// ClearBan returns all matching credentials to active with no ban time.
func (r *CredentialRepo) ClearBan(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	q := `UPDATE credentials SET status=?, ban_time=NULL WHERE id IN (` + placeholders(len(ids)) + `)`
	args := append([]any{int(model.StatusActive)}, idArgs(ids)...)
	if _, err := r.db.Writer.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("%w: clear ban: %v", errs.ErrStore, err)
	}
	return nil
}

// UpdateAvailability sets or clears the availability pair on all matching
// credentials. Minutes and until travel together so the pairing invariant
// holds in the durable state.
func (r *CredentialRepo) UpdateAvailability(ctx context.Context, ids []uuid.UUID, minutes *int, until *time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	q := `UPDATE credentials SET available_minutes=?, available_until=? WHERE id IN (` + placeholders(len(ids)) + `)`
	args := append([]any{nullInt(minutes), nullTime(until)}, idArgs(ids)...)
	if _, err := r.db.Writer.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("%w: update availability: %v", errs.ErrStore, err)
	}
	return nil
}

// UpdateLastLogin stamps the last-login time on a single credential.
func (r *CredentialRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	const q = `UPDATE credentials SET last_login_time=? WHERE id=?`
	res, err := r.db.Writer.ExecContext(ctx, q, at, id.String())
	if err != nil {
		return fmt.Errorf("%w: update last login: %v", errs.ErrStore, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: update last login: %v", errs.ErrStore, err)
	}
	if n == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanCredential(row rowScanner) (*model.Credential, error) {
	var (
		c         model.Credential
		rawID     string
		secret    []byte
		status    int
		banTime   sql.NullTime
		lastLogin sql.NullTime
		availMin  sql.NullInt64
		availTill sql.NullTime
		level     sql.NullInt64
		amount    sql.NullFloat64
	)
	err := row.Scan(&rawID, &c.Username, &secret, &status, &banTime, &c.Remark, &c.CreatedAt,
		&lastLogin, &availMin, &availTill, &level, &amount)
	if err != nil {
		return nil, err
	}
	c.ID, err = uuid.FromString(rawID)
	if err != nil {
		return nil, fmt.Errorf("bad credential id %q: %w", rawID, err)
	}
	c.Secret = model.EncryptedSecret(secret)
	c.Status = model.Status(status)
	c.BanTime = timePtr(banTime)
	c.LastLoginTime = timePtr(lastLogin)
	c.AvailableMinutes = intPtr(availMin)
	c.AvailableUntil = timePtr(availTill)
	c.Level = intPtr(level)
	c.Amount = floatPtr(amount)
	return &c, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func idArgs(ids []uuid.UUID) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id.String()
	}
	return args
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func floatPtr(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}
