package storage

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// newPostgresStore spins up a throwaway Postgres container. Skipped in short
// mode; requires a Docker daemon.
func newPostgresStore(t *testing.T) *PostgresStore {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}

	ctx := context.Background()
	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		postgres.WithDatabase("contractsinfo"),
		postgres.WithUsername("contractsinfo"),
		postgres.WithPassword("contractsinfo"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	connString, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	store, err := NewPostgresStore(connString, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.Migrate(ctx))
	return store
}

func TestPostgres_VerifiedAddressConflict(t *testing.T) {
	store := newPostgresStore(t)
	ctx := context.Background()

	first, err := store.CreateOrGetVerifiedAddress(ctx, &VerifiedAddress{
		ChainID:    1,
		Address:    "0xabc",
		OwnerEmail: "first@example.com",
		TokenName:  strp("Test Token"),
	})
	require.NoError(t, err)

	second, err := store.CreateOrGetVerifiedAddress(ctx, &VerifiedAddress{
		ChainID:    1,
		Address:    "0xabc",
		OwnerEmail: "second@example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "first@example.com", second.OwnerEmail)

	count, err := store.CountVerifiedAddresses(ctx, 1, "first@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestPostgres_TokenInfoProvenance(t *testing.T) {
	store := newPostgresStore(t)
	ctx := context.Background()

	written, err := store.ImportTokenInfo(ctx, tokenRecord(false), nil)
	require.NoError(t, err)
	assert.True(t, written)

	userRec := tokenRecord(true)
	userRec.ProjectWebsite = "https://owner.example.com"
	written, err = store.ImportTokenInfo(ctx, userRec, nil)
	require.NoError(t, err)
	assert.True(t, written)

	written, err = store.ImportTokenInfo(ctx, tokenRecord(false), nil)
	require.NoError(t, err)
	assert.False(t, written)

	got, err := store.GetTokenInfo(ctx, 1, "0xabc")
	require.NoError(t, err)
	assert.True(t, got.IsUserSubmitted)
	assert.Equal(t, "https://owner.example.com", got.ProjectWebsite)
}

func TestPostgres_TokenInfoRollbackOnPropagateFailure(t *testing.T) {
	store := newPostgresStore(t)
	ctx := context.Background()

	_, err := store.ImportTokenInfo(ctx, tokenRecord(false), func(ctx context.Context) error {
		return errors.New("explorer down")
	})
	require.Error(t, err)

	_, err = store.GetTokenInfo(ctx, 1, "0xabc")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgres_APIKeys(t *testing.T) {
	store := newPostgresStore(t)
	ctx := context.Background()

	key, err := store.CreateAPIKey(ctx, "service")
	require.NoError(t, err)

	validated, err := store.ValidateAPIKey(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "service", validated.Name)

	require.NoError(t, store.RevokeAPIKey(ctx, validated.ID))
	_, err = store.ValidateAPIKey(ctx, key)
	assert.ErrorIs(t, err, ErrNotFound)
}
