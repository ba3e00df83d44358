// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/nkoryagin/accountkeeper/internal/model"
)

// CredentialRepository provides durable access to credential records.
// All multi-id mutations are atomic: either fully applied or fully rolled back.
type CredentialRepository interface {
	// Insert persists a new credential. Returns errs.ErrDuplicateUsername
	// when a live credential already carries the same username.
	Insert(ctx context.Context, c *model.Credential) error

	// Get loads a single credential by id. Returns errs.ErrNotFound if absent.
	Get(ctx context.Context, id uuid.UUID) (*model.Credential, error)

	// List returns all credentials ordered by creation time, oldest first.
	List(ctx context.Context) ([]model.Credential, error)

	// Delete hard-deletes all matching credentials. Unknown ids are ignored.
	Delete(ctx context.Context, ids []uuid.UUID) error

	// UpdateRemark sets the remark on all matching credentials.
	UpdateRemark(ctx context.Context, ids []uuid.UUID, remark string) error

	// UpdateBan marks all matching credentials banned until the given time.
	UpdateBan(ctx context.Context, ids []uuid.UUID, until time.Time) error

	// ClearBan returns all matching credentials to active with no ban time.
	ClearBan(ctx context.Context, ids []uuid.UUID) error

	// UpdateAvailability sets or clears the availability pair on all
	// matching credentials. Both values are set or both nil.
	UpdateAvailability(ctx context.Context, ids []uuid.UUID, minutes *int, until *time.Time) error

	// UpdateLastLogin stamps the last-login time on a single credential.
	// Returns errs.ErrNotFound if the id does not exist.
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}
