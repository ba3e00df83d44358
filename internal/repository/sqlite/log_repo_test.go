package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"

	"github.com/nkoryagin/accountkeeper/internal/model"
)

func insertLog(t *testing.T, r *LogRepo, opType string, at time.Time, result model.Result) {
	t.Helper()
	err := r.Insert(context.Background(), &model.LogEntry{
		ID:            uuid.Must(uuid.NewV4()),
		OperationType: opType,
		Description:   opType + " happened",
		OperationTime: at,
		Result:        result,
	})
	require.NoError(t, err)
}

func TestLogRepo_Recent_NewestFirstLimited(t *testing.T) {
	db := setupTestDB(t)
	r := NewLogRepo(db)

	base := time.Now().UTC().Truncate(time.Second)
	insertLog(t, r, "add-account", base, model.ResultSuccess)
	insertLog(t, r, "login", base.Add(time.Second), model.ResultSuccess)
	insertLog(t, r, "delete", base.Add(2*time.Second), model.ResultFailure)

	got, err := r.Recent(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "delete", got[0].OperationType)
	require.Equal(t, model.ResultFailure, got[0].Result)
	require.Equal(t, "login", got[1].OperationType)
}

func TestLogRepo_ByTimeRange_InclusiveBounds(t *testing.T) {
	db := setupTestDB(t)
	r := NewLogRepo(db)

	base := time.Now().UTC().Truncate(time.Second)
	insertLog(t, r, "before", base.Add(-time.Hour), model.ResultSuccess)
	insertLog(t, r, "start", base, model.ResultSuccess)
	insertLog(t, r, "mid", base.Add(time.Minute), model.ResultSuccess)
	insertLog(t, r, "end", base.Add(2*time.Minute), model.ResultSuccess)
	insertLog(t, r, "after", base.Add(time.Hour), model.ResultSuccess)

	got, err := r.ByTimeRange(context.Background(), base, base.Add(2*time.Minute))
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, "end", got[0].OperationType)
	require.Equal(t, "mid", got[1].OperationType)
	require.Equal(t, "start", got[2].OperationType)
}

func TestLogRepo_DeleteAll(t *testing.T) {
	db := setupTestDB(t)
	r := NewLogRepo(db)

	base := time.Now().UTC()
	insertLog(t, r, "a", base, model.ResultSuccess)
	insertLog(t, r, "b", base, model.ResultSuccess)

	require.NoError(t, r.DeleteAll(context.Background()))

	got, err := r.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestLogRepo_WeakUsernameReference(t *testing.T) {
	db := setupTestDB(t)
	logs := NewLogRepo(db)
	creds := NewCredentialRepo(db)
	ctx := context.Background()

	c := newCredential(t, "alice")
	require.NoError(t, creds.Insert(ctx, c))

	err := logs.Insert(ctx, &model.LogEntry{
		ID:              uuid.Must(uuid.NewV4()),
		OperationType:   "add-account",
		Description:     "added alice",
		RelatedUsername: "alice",
		OperationTime:   time.Now().UTC(),
		Result:          model.ResultSuccess,
	})
	require.NoError(t, err)

	// Deleting the credential must not touch the log row.
	require.NoError(t, creds.Delete(ctx, []uuid.UUID{c.ID}))

	got, err := logs.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "alice", got[0].RelatedUsername)
}
