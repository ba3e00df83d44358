// Package model defines domain entities used by services and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// Status is the lifecycle state of a credential.
type Status int

const (
	StatusActive Status = iota
	StatusBanned
)

// String returns a short label for display and audit descriptions.
func (s Status) String() string {
	if s == StatusBanned {
		return "banned"
	}
	return "active"
}

// Result is the recorded outcome of an operation.
type Result int

const (
	ResultSuccess Result = iota
	ResultFailure
)

// String returns a short label for display.
func (r Result) String() string {
	if r == ResultFailure {
		return "failure"
	}
	return "success"
}

// EncryptedSecret is an opaque ciphertext blob produced by the cipher.
// It is never persisted or logged in plaintext form.
type EncryptedSecret []byte

// Field length limits enforced before any mutation is attempted.
const (
	MaxUsernameLen  = 100
	MaxRemarkLen    = 500
	MaxOperationLen = 50
	MaxDescLen      = 500
)

// Credential is a single stored account record.
//
// Invariants maintained by the service layer:
//   - BanTime is set iff Status == StatusBanned;
//   - AvailableMinutes and AvailableUntil are both set or both nil,
//     and AvailableUntil == set-time + AvailableMinutes.
type Credential struct {
	ID       uuid.UUID       // assigned on creation, immutable
	Username string          // unique across live credentials, case-sensitive
	Secret   EncryptedSecret // opaque, decrypted only transiently

	Status  Status
	BanTime *time.Time

	Remark    string
	CreatedAt time.Time

	LastLoginTime    *time.Time
	AvailableMinutes *int
	AvailableUntil   *time.Time

	// Auxiliary display fields, no constraints.
	Level  *int
	Amount *float64
}

// HasRemark reports whether the credential carries a non-empty remark.
func (c *Credential) HasRemark() bool { return c.Remark != "" }

// LogEntry is one append-only audit record. RelatedUsername is a weak
// reference: the credential it names may be deleted or renamed later
// without affecting the entry.
type LogEntry struct {
	ID              uuid.UUID
	OperationType   string
	Description     string
	RelatedUsername string
	OperationTime   time.Time
	Result          Result
}
