package userstore

import (
	"context"
	"testing"
	"time"

	"reviewlens-backend/lib/testutil"

	"github.com/stretchr/testify/require"
)

func testIdentity(email string) Identity {
	return Identity{
		Email:           email,
		UserID:          "user_abc123def",
		ReviewerVersion: 3,
		RegisteredAt:    time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC),
	}
}

func TestRosterRoundTrip(t *testing.T) {
	identities := []Identity{
		testIdentity("alice@example.com"),
		{
			Email:           `bob,"the builder"@example.com`,
			UserID:          "user_xyz987qrs",
			ReviewerVersion: 1,
			RegisteredAt:    time.Date(2025, 7, 15, 8, 0, 0, 0, time.UTC),
		},
	}

	blob, err := encodeRoster(identities)
	require.NoError(t, err)

	decoded := decodeRoster(blob)
	require.Equal(t, identities, decoded)
}

func TestRosterDecodeSkipsMalformedRows(t *testing.T) {
	blob := "email,userId,reviewerVersion,registrationDate\n" +
		"alice@example.com,user_abc123def,3,2025-06-01T12:30:00Z\n" +
		"truncated-row\n" +
		"bob@example.com,user_xyz987qrs,not-a-number,2025-07-15T08:00:00Z\n" +
		"carol@example.com,user_qqq111www,2,not-a-date\n"

	decoded := decodeRoster(blob)
	require.Len(t, decoded, 1)
	require.Equal(t, "alice@example.com", decoded[0].Email)
}

func TestRosterEncodeEmpty(t *testing.T) {
	blob, err := encodeRoster(nil)
	require.NoError(t, err)
	require.Empty(t, decodeRoster(blob))
}

func TestRegisterAndFind(t *testing.T) {
	store := New(NewMemoryKV())
	ctx := context.Background()

	require.NoError(t, store.Register(ctx, testIdentity("alice@example.com")))

	found, err := store.FindByEmail(ctx, "  ALICE@example.COM ")
	require.NoError(t, err)
	require.Equal(t, "user_abc123def", found.UserID)

	_, err = store.FindByEmail(ctx, "nobody@example.com")
	require.ErrorIs(t, err, ErrUnknownEmail)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	store := New(NewMemoryKV())
	ctx := context.Background()

	require.NoError(t, store.Register(ctx, testIdentity("alice@example.com")))

	dup := testIdentity("Alice@Example.com")
	dup.UserID = "user_other0000"
	require.ErrorIs(t, store.Register(ctx, dup), ErrEmailTaken)

	all, err := store.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestCurrentUserLifecycle(t *testing.T) {
	store := New(NewMemoryKV())
	ctx := context.Background()

	_, ok, err := store.Current(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	identity := testIdentity("alice@example.com")
	require.NoError(t, store.SetCurrent(ctx, &identity))

	current, ok, err := store.Current(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, identity.Email, current.Email)

	require.NoError(t, store.SetCurrent(ctx, nil))
	_, ok, err = store.Current(ctx)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSqliteKV(t *testing.T) {
	result, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "userstore",
		DbSchema: KVSchema,
	})
	defer cleanup()

	kv := NewSqliteKV(result.DB)
	ctx := context.Background()

	_, ok, err := kv.Get(ctx, "missing")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, kv.Set(ctx, "k", "v1"))
	require.NoError(t, kv.Set(ctx, "k", "v2"))

	value, ok, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v2", value)

	require.NoError(t, kv.Delete(ctx, "k"))
	_, ok, err = kv.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)

	store := New(NewSqliteKV(result.DB))
	require.NoError(t, store.Register(ctx, testIdentity("alice@example.com")))
	all, err := store.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
}
