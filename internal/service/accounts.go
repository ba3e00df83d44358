package service

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/gofrs/uuid/v5"

	"github.com/nkoryagin/accountkeeper/internal/errs"
	"github.com/nkoryagin/accountkeeper/internal/model"
	"github.com/nkoryagin/accountkeeper/internal/repository"
	"github.com/nkoryagin/accountkeeper/internal/transfer"
)

// SecretCipher encrypts and decrypts credential secrets at the
// plaintext/ciphertext boundary.
type SecretCipher interface {
	Encrypt(plaintext string) (model.EncryptedSecret, error)
	Decrypt(blob model.EncryptedSecret) (string, error)
}

// Launcher starts and stops the external game client process. The service
// hands it plaintext only for the duration of a Launch call and never
// persists or logs the secret.
type Launcher interface {
	// FindClientPath returns the client executable path if one is known.
	FindClientPath() (string, bool)
	// KillRunningClient terminates any running client processes and waits
	// for them to exit.
	KillRunningClient(ctx context.Context) error
	// Launch starts the client logged in as the given account.
	Launch(ctx context.Context, username, plaintextSecret string) error
}

// AccountService owns the durable collection of credentials. Every mutating
// operation validates first, mutates second, and audits third; the audit
// write is best-effort and never changes the reported result.
type AccountService interface {
	// Add creates one credential. Fails with errs.ErrDuplicateUsername when
	// a live credential already carries this exact username.
	Add(ctx context.Context, username, plaintextSecret string) (*model.Credential, error)
	// BulkImport inserts parsed records independently and reports
	// (succeeded, failed) counts. One bad record never aborts the batch.
	BulkImport(ctx context.Context, records []transfer.Record) (succeeded, failed int, err error)
	// Delete hard-deletes the given credentials; unknown ids are ignored.
	Delete(ctx context.Context, ids []uuid.UUID) error
	// SetRemark applies a remark to all matching credentials.
	SetRemark(ctx context.Context, ids []uuid.UUID, remark string) error
	// SetBan marks credentials banned until the given time.
	SetBan(ctx context.Context, ids []uuid.UUID, until time.Time) error
	// ClearBan returns credentials to active.
	ClearBan(ctx context.Context, ids []uuid.UUID) error
	// SetAvailability sets the availability window (minutes from now) or
	// clears both fields when minutes is nil.
	SetAvailability(ctx context.Context, ids []uuid.UUID, minutes *int) error
	// RecordLogin stamps LastLoginTime=now on one credential.
	RecordLogin(ctx context.Context, id uuid.UUID) error
	// Reveal returns the decrypted secret for display. A cipher failure
	// surfaces as errs.ErrCipher; callers show a sentinel instead of crashing.
	Reveal(ctx context.Context, id uuid.UUID) (string, error)
	// List returns a point-in-time snapshot for projection.
	List(ctx context.Context) ([]model.Credential, error)
	// Login decrypts the secret transiently, starts the client through the
	// launcher and records the login time.
	Login(ctx context.Context, id uuid.UUID) error
	// Export renders username----secret lines for the selected credentials.
	Export(ctx context.Context, ids []uuid.UUID) ([]string, error)
}

type AccountServiceImpl struct {
	creds    repository.CredentialRepository
	cipher   SecretCipher
	audit    AuditService
	launcher Launcher
}

// NewAccountService constructs AccountService with required dependencies.
// launcher may be nil when the shell never launches the client.
func NewAccountService(creds repository.CredentialRepository, cipher SecretCipher, audit AuditService, launcher Launcher) *AccountServiceImpl {
	return &AccountServiceImpl{creds: creds, cipher: cipher, audit: audit, launcher: launcher}
}

// Add validates input, encrypts the secret and persists a new credential.
func (s *AccountServiceImpl) Add(ctx context.Context, username, plaintextSecret string) (*model.Credential, error) {
	if err := validateUsername(username); err != nil {
		s.audit.Append(ctx, "add-account", "rejected: "+err.Error(), username, model.ResultFailure)
		return nil, err
	}
	if plaintextSecret == "" {
		err := fmt.Errorf("%w: empty secret", errs.ErrValidation)
		s.audit.Append(ctx, "add-account", "rejected: "+err.Error(), username, model.ResultFailure)
		return nil, err
	}

	c, err := s.insert(ctx, username, plaintextSecret)
	if err != nil {
		s.audit.Append(ctx, "add-account", "add failed: "+err.Error(), username, model.ResultFailure)
		return nil, err
	}
	s.audit.Append(ctx, "add-account", "added account "+username, username, model.ResultSuccess)
	return c, nil
}

// BulkImport inserts each record independently. Records already marked
// invalid by the parser count as failed; so do duplicates and any
// per-record store failure. The batch itself never aborts.
func (s *AccountServiceImpl) BulkImport(ctx context.Context, records []transfer.Record) (int, int, error) {
	var succeeded, failed int
	for _, rec := range records {
		if !rec.Valid || validateUsername(rec.Username) != nil || rec.Secret == "" {
			failed++
			continue
		}
		if _, err := s.insert(ctx, rec.Username, rec.Secret); err != nil {
			failed++
			continue
		}
		succeeded++
	}
	s.audit.Append(ctx, "bulk-import",
		fmt.Sprintf("imported %d accounts, %d failed", succeeded, failed), "", model.ResultSuccess)
	return succeeded, failed, nil
}

// insert is the shared encrypt-then-persist path for Add and BulkImport.
// The unique index on username turns a concurrent duplicate into
// errs.ErrDuplicateUsername at commit time.
func (s *AccountServiceImpl) insert(ctx context.Context, username, plaintextSecret string) (*model.Credential, error) {
	blob, err := s.cipher.Encrypt(plaintextSecret)
	if err != nil {
		return nil, err
	}
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	c := &model.Credential{
		ID:        id,
		Username:  username,
		Secret:    blob,
		Status:    model.StatusActive,
		CreatedAt: time.Now(),
	}
	if err := s.creds.Insert(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Delete hard-deletes the given credentials.
func (s *AccountServiceImpl) Delete(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	if err := s.creds.Delete(ctx, ids); err != nil {
		s.audit.Append(ctx, "delete-accounts", "delete failed: "+err.Error(), "", model.ResultFailure)
		return err
	}
	s.audit.Append(ctx, "delete-accounts", fmt.Sprintf("deleted %d accounts", len(ids)), "", model.ResultSuccess)
	return nil
}

// SetRemark applies a remark to all matching credentials.
func (s *AccountServiceImpl) SetRemark(ctx context.Context, ids []uuid.UUID, remark string) error {
	if len(ids) == 0 {
		return nil
	}
	if utf8.RuneCountInString(remark) > model.MaxRemarkLen {
		return fmt.Errorf("%w: remark longer than %d characters", errs.ErrValidation, model.MaxRemarkLen)
	}
	if err := s.creds.UpdateRemark(ctx, ids, remark); err != nil {
		s.audit.Append(ctx, "set-remark", "remark update failed: "+err.Error(), "", model.ResultFailure)
		return err
	}
	s.audit.Append(ctx, "set-remark", fmt.Sprintf("set remark on %d accounts", len(ids)), "", model.ResultSuccess)
	return nil
}

// SetBan marks credentials banned until the given time.
func (s *AccountServiceImpl) SetBan(ctx context.Context, ids []uuid.UUID, until time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	if err := s.creds.UpdateBan(ctx, ids, until); err != nil {
		s.audit.Append(ctx, "set-ban", "ban update failed: "+err.Error(), "", model.ResultFailure)
		return err
	}
	s.audit.Append(ctx, "set-ban",
		fmt.Sprintf("banned %d accounts until %s", len(ids), until.Format(time.DateTime)), "", model.ResultSuccess)
	return nil
}

// ClearBan returns credentials to active with no ban time.
func (s *AccountServiceImpl) ClearBan(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	if err := s.creds.ClearBan(ctx, ids); err != nil {
		s.audit.Append(ctx, "clear-ban", "ban clear failed: "+err.Error(), "", model.ResultFailure)
		return err
	}
	s.audit.Append(ctx, "clear-ban", fmt.Sprintf("cleared ban on %d accounts", len(ids)), "", model.ResultSuccess)
	return nil
}

// SetAvailability sets AvailableUntil = now + minutes, or clears both
// fields when minutes is nil. Minutes must be positive when present.
func (s *AccountServiceImpl) SetAvailability(ctx context.Context, ids []uuid.UUID, minutes *int) error {
	if len(ids) == 0 {
		return nil
	}
	var until *time.Time
	if minutes != nil {
		if *minutes <= 0 {
			return fmt.Errorf("%w: minutes must be positive", errs.ErrValidation)
		}
		t := time.Now().Add(time.Duration(*minutes) * time.Minute)
		until = &t
	}
	if err := s.creds.UpdateAvailability(ctx, ids, minutes, until); err != nil {
		s.audit.Append(ctx, "set-availability", "availability update failed: "+err.Error(), "", model.ResultFailure)
		return err
	}
	desc := fmt.Sprintf("cleared availability on %d accounts", len(ids))
	if minutes != nil {
		desc = fmt.Sprintf("set %d accounts available for %d minutes", len(ids), *minutes)
	}
	s.audit.Append(ctx, "set-availability", desc, "", model.ResultSuccess)
	return nil
}

// RecordLogin stamps LastLoginTime=now on a single credential.
func (s *AccountServiceImpl) RecordLogin(ctx context.Context, id uuid.UUID) error {
	if err := s.creds.UpdateLastLogin(ctx, id, time.Now()); err != nil {
		s.audit.Append(ctx, "record-login", "login stamp failed: "+err.Error(), "", model.ResultFailure)
		return err
	}
	return nil
}

// Reveal returns the decrypted secret for one credential.
func (s *AccountServiceImpl) Reveal(ctx context.Context, id uuid.UUID) (string, error) {
	c, err := s.creds.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return s.cipher.Decrypt(c.Secret)
}

// List returns a point-in-time snapshot ordered by creation time.
func (s *AccountServiceImpl) List(ctx context.Context) ([]model.Credential, error) {
	return s.creds.List(ctx)
}

// Login decrypts the secret, launches the client and records the login.
// The plaintext exists only for the duration of the Launch call; audit
// entries reference the username, never the secret.
func (s *AccountServiceImpl) Login(ctx context.Context, id uuid.UUID) error {
	if s.launcher == nil {
		return fmt.Errorf("%w: no launcher configured", errs.ErrValidation)
	}
	c, err := s.creds.Get(ctx, id)
	if err != nil {
		return err
	}
	plaintext, err := s.cipher.Decrypt(c.Secret)
	if err != nil {
		s.audit.Append(ctx, "login", "login failed: "+err.Error(), c.Username, model.ResultFailure)
		return err
	}
	if err := s.launcher.Launch(ctx, c.Username, plaintext); err != nil {
		s.audit.Append(ctx, "login", "login failed: "+err.Error(), c.Username, model.ResultFailure)
		return err
	}
	if err := s.RecordLogin(ctx, id); err != nil {
		return err
	}
	s.audit.Append(ctx, "login", "logged in as "+c.Username, c.Username, model.ResultSuccess)
	return nil
}

// Export renders decrypted username----secret lines for the external writer.
func (s *AccountServiceImpl) Export(ctx context.Context, ids []uuid.UUID) ([]string, error) {
	lines := make([]string, 0, len(ids))
	for _, id := range ids {
		c, err := s.creds.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		plaintext, err := s.cipher.Decrypt(c.Secret)
		if err != nil {
			return nil, fmt.Errorf("account %s: %w", c.Username, err)
		}
		lines = append(lines, transfer.FormatLine(c.Username, plaintext))
	}
	s.audit.Append(ctx, "export", fmt.Sprintf("exported %d accounts", len(lines)), "", model.ResultSuccess)
	return lines, nil
}

func validateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("%w: empty username", errs.ErrValidation)
	}
	if utf8.RuneCountInString(username) > model.MaxUsernameLen {
		return fmt.Errorf("%w: username longer than %d characters", errs.ErrValidation, model.MaxUsernameLen)
	}
	return nil
}
