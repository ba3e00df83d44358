package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"

	"github.com/nkoryagin/accountkeeper/internal/errs"
	"github.com/nkoryagin/accountkeeper/internal/model"
)

func newCredential(t *testing.T, username string) *model.Credential {
	t.Helper()
	return &model.Credential{
		ID:        uuid.Must(uuid.NewV4()),
		Username:  username,
		Secret:    model.EncryptedSecret("opaque-" + username),
		Status:    model.StatusActive,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
}

func TestCredentialRepo_InsertGet(t *testing.T) {
	db := setupTestDB(t)
	r := NewCredentialRepo(db)
	ctx := context.Background()

	c := newCredential(t, "alice")
	c.Remark = "main"
	require.NoError(t, r.Insert(ctx, c))

	got, err := r.Get(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, c.ID, got.ID)
	require.Equal(t, "alice", got.Username)
	require.Equal(t, c.Secret, got.Secret)
	require.Equal(t, model.StatusActive, got.Status)
	require.Nil(t, got.BanTime)
	require.Equal(t, "main", got.Remark)
	require.Nil(t, got.LastLoginTime)
	require.Nil(t, got.AvailableMinutes)
	require.Nil(t, got.AvailableUntil)
}

func TestCredentialRepo_Insert_DuplicateUsername(t *testing.T) {
	db := setupTestDB(t)
	r := NewCredentialRepo(db)
	ctx := context.Background()

	require.NoError(t, r.Insert(ctx, newCredential(t, "alice")))

	err := r.Insert(ctx, newCredential(t, "alice"))
	require.ErrorIs(t, err, errs.ErrDuplicateUsername)

	// Case-sensitive collation: a differently-cased username is a new account.
	require.NoError(t, r.Insert(ctx, newCredential(t, "Alice")))
}

func TestCredentialRepo_Get_NotFound(t *testing.T) {
	db := setupTestDB(t)
	r := NewCredentialRepo(db)

	_, err := r.Get(context.Background(), uuid.Must(uuid.NewV4()))
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestCredentialRepo_List_Order(t *testing.T) {
	db := setupTestDB(t)
	r := NewCredentialRepo(db)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	for i, name := range []string{"first", "second", "third"} {
		c := newCredential(t, name)
		c.CreatedAt = base.Add(time.Duration(i) * time.Second)
		require.NoError(t, r.Insert(ctx, c))
	}

	list, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, "first", list[0].Username)
	require.Equal(t, "second", list[1].Username)
	require.Equal(t, "third", list[2].Username)
}

func TestCredentialRepo_Delete_Idempotent(t *testing.T) {
	db := setupTestDB(t)
	r := NewCredentialRepo(db)
	ctx := context.Background()

	c := newCredential(t, "alice")
	require.NoError(t, r.Insert(ctx, c))

	missing := uuid.Must(uuid.NewV4())
	require.NoError(t, r.Delete(ctx, []uuid.UUID{c.ID, missing}))
	require.NoError(t, r.Delete(ctx, []uuid.UUID{missing}))
	require.NoError(t, r.Delete(ctx, nil))

	list, err := r.List(ctx)
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestCredentialRepo_BanRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	r := NewCredentialRepo(db)
	ctx := context.Background()

	c := newCredential(t, "alice")
	require.NoError(t, r.Insert(ctx, c))

	until := time.Now().UTC().Add(72 * time.Hour).Truncate(time.Second)
	require.NoError(t, r.UpdateBan(ctx, []uuid.UUID{c.ID}, until))

	got, err := r.Get(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, model.StatusBanned, got.Status)
	require.NotNil(t, got.BanTime)
	require.True(t, got.BanTime.Equal(until))

	require.NoError(t, r.ClearBan(ctx, []uuid.UUID{c.ID}))
	got, err = r.Get(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, model.StatusActive, got.Status)
	require.Nil(t, got.BanTime)
}

func TestCredentialRepo_AvailabilityPairing(t *testing.T) {
	db := setupTestDB(t)
	r := NewCredentialRepo(db)
	ctx := context.Background()

	c := newCredential(t, "alice")
	require.NoError(t, r.Insert(ctx, c))

	minutes := 60
	until := time.Now().UTC().Add(time.Hour).Truncate(time.Second)
	require.NoError(t, r.UpdateAvailability(ctx, []uuid.UUID{c.ID}, &minutes, &until))

	got, err := r.Get(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, got.AvailableMinutes)
	require.Equal(t, 60, *got.AvailableMinutes)
	require.NotNil(t, got.AvailableUntil)
	require.True(t, got.AvailableUntil.Equal(until))

	require.NoError(t, r.UpdateAvailability(ctx, []uuid.UUID{c.ID}, nil, nil))
	got, err = r.Get(ctx, c.ID)
	require.NoError(t, err)
	require.Nil(t, got.AvailableMinutes)
	require.Nil(t, got.AvailableUntil)
}

func TestCredentialRepo_UpdateRemark_MultiID(t *testing.T) {
	db := setupTestDB(t)
	r := NewCredentialRepo(db)
	ctx := context.Background()

	a := newCredential(t, "alice")
	b := newCredential(t, "bob")
	other := newCredential(t, "carol")
	require.NoError(t, r.Insert(ctx, a))
	require.NoError(t, r.Insert(ctx, b))
	require.NoError(t, r.Insert(ctx, other))

	require.NoError(t, r.UpdateRemark(ctx, []uuid.UUID{a.ID, b.ID}, "farm"))

	got, err := r.Get(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, "farm", got.Remark)
	got, err = r.Get(ctx, other.ID)
	require.NoError(t, err)
	require.Empty(t, got.Remark)
}

func TestCredentialRepo_UpdateLastLogin(t *testing.T) {
	db := setupTestDB(t)
	r := NewCredentialRepo(db)
	ctx := context.Background()

	c := newCredential(t, "alice")
	require.NoError(t, r.Insert(ctx, c))

	at := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, r.UpdateLastLogin(ctx, c.ID, at))

	got, err := r.Get(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastLoginTime)
	require.True(t, got.LastLoginTime.Equal(at))

	err = r.UpdateLastLogin(ctx, uuid.Must(uuid.NewV4()), at)
	require.ErrorIs(t, err, errs.ErrNotFound)
}
