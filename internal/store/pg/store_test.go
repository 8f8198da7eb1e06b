package pg

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/dropDatabas3/brandkit/internal/domain/repository"
	"github.com/dropDatabas3/brandkit/internal/domain/social"
)

// setupStore levanta PostgreSQL con testcontainers y aplica las migraciones.
func setupStore(t *testing.T) *Store {
	t.Helper()
	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("integración deshabilitada: TEST_INTEGRATION no seteada")
	}
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		postgres.WithDatabase("brandkit_test"),
		postgres.WithUsername("brandkit"),
		postgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	mig, err := NewMigrator(dsn)
	require.NoError(t, err)
	require.NoError(t, mig.Up())
	require.NoError(t, mig.Up(), "segunda corrida sin cambios")
	require.NoError(t, mig.Close())

	s, err := Open(ctx, dsn, PoolConfig{MaxConns: 4})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestAccountsLifecycle(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	clientID := uuid.NewString()

	in := repository.InsertAccountInput{
		ClientID:          clientID,
		Platform:          social.PlatformInstagram,
		AccountName:       "brand",
		AccountHandle:     social.NullIfEmpty("@brand"),
		ExternalAccountID: social.NullIfEmpty("178"),
		Status:            social.StatusConnected,
		Metadata: social.Metadata{
			Extra: map[string]json.RawMessage{"notes": json.RawMessage(`"keep"`)},
			OAuth: &social.OAuthMetadata{Provider: social.ProviderInstagramGraph, PageID: "p1"},
		},
	}
	acc, err := s.Accounts().Insert(ctx, in)
	require.NoError(t, err)
	assert.NotEmpty(t, acc.ID)

	_, err = s.Accounts().Insert(ctx, in)
	assert.ErrorIs(t, err, repository.ErrConflict)

	got, err := s.Accounts().FindByExternalID(ctx, clientID, social.PlatformInstagram, "178")
	require.NoError(t, err)
	assert.Equal(t, acc.ID, got.ID)
	assert.JSONEq(t, `"keep"`, string(got.Metadata.Extra["notes"]))
	require.NotNil(t, got.Metadata.OAuth)
	assert.Equal(t, "p1", got.Metadata.OAuth.PageID)

	_, err = s.Accounts().FindByHandle(ctx, clientID, social.PlatformInstagram, "@other")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	upd, err := s.Accounts().Update(ctx, repository.UpdateAccountInput{
		ID: acc.ID, ClientID: clientID, AccountName: "brand2",
		AccountHandle: social.NullIfEmpty("@brand2"), ExternalAccountID: social.NullIfEmpty("178"),
		Status: social.StatusConnected, Metadata: got.Metadata,
	})
	require.NoError(t, err)
	assert.Equal(t, "brand2", upd.AccountName)

	_, err = s.Accounts().Update(ctx, repository.UpdateAccountInput{ID: acc.ID, ClientID: uuid.NewString(), Status: social.StatusConnected})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	all, err := s.Accounts().ListConnected(ctx, "", social.PlatformInstagram)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSnapshotUpsertLastWriteWins(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	clientID := uuid.NewString()

	acc, err := s.Accounts().Insert(ctx, repository.InsertAccountInput{
		ClientID: clientID, Platform: social.PlatformInstagram, AccountName: "a",
		Status: social.StatusConnected,
	})
	require.NoError(t, err)

	f1, f2 := int64(100), int64(200)
	snap := social.DailySnapshot{ClientID: clientID, SocialAccountID: acc.ID, SnapshotDate: "2026-01-02", Followers: &f1, InteractionsRecentPosts: 5}
	require.NoError(t, s.Snapshots().Upsert(ctx, snap))
	snap.Followers = &f2
	snap.InteractionsRecentPosts = 9
	require.NoError(t, s.Snapshots().Upsert(ctx, snap))

	hist, err := s.Snapshots().History(ctx, clientID, []string{acc.ID}, "2026-01-01")
	require.NoError(t, err)
	require.Len(t, hist[acc.ID], 1)
	assert.Equal(t, int64(200), *hist[acc.ID][0].Followers)
	assert.Equal(t, int64(9), hist[acc.ID][0].InteractionsRecentPosts)
	assert.Nil(t, hist[acc.ID][0].Reach7d)
	assert.Equal(t, "2026-01-02", hist[acc.ID][0].SnapshotDate)
}

func TestHandleIndexScopedToRowsWithoutExternalID(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	clientID := uuid.NewString()

	manual, err := s.Accounts().Insert(ctx, repository.InsertAccountInput{
		ClientID: clientID, Platform: social.PlatformInstagram, AccountName: "manual",
		AccountHandle: social.NullIfEmpty("@new"), Status: social.StatusConnected,
	})
	require.NoError(t, err)
	_, err = s.Accounts().Insert(ctx, repository.InsertAccountInput{
		ClientID: clientID, Platform: social.PlatformInstagram, AccountName: "dup",
		AccountHandle: social.NullIfEmpty("@new"), Status: social.StatusConnected,
	})
	assert.ErrorIs(t, err, repository.ErrConflict)

	linked, err := s.Accounts().Insert(ctx, repository.InsertAccountInput{
		ClientID: clientID, Platform: social.PlatformInstagram, AccountName: "old",
		AccountHandle: social.NullIfEmpty("@old"), ExternalAccountID: social.NullIfEmpty("178"),
		Status: social.StatusConnected,
	})
	require.NoError(t, err)

	// renombrado en Instagram: el handle nuevo ya existe en una fila manual
	_, err = s.Accounts().Update(ctx, repository.UpdateAccountInput{
		ID: linked.ID, ClientID: clientID, AccountName: "new",
		AccountHandle: social.NullIfEmpty("@new"), ExternalAccountID: social.NullIfEmpty("178"),
		Status: social.StatusConnected, Metadata: linked.Metadata,
	})
	require.NoError(t, err)

	got, err := s.Accounts().FindByHandle(ctx, clientID, social.PlatformInstagram, "@new")
	require.NoError(t, err)
	assert.Equal(t, manual.ID, got.ID)
}
