package enroll

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"reviewlens-backend/lib/userstore"

	"github.com/stretchr/testify/require"
)

type captureSender struct {
	email string
	code  string
}

func (s *captureSender) SendCode(_ context.Context, email, code string) error {
	s.email = email
	s.code = code
	return nil
}

func TestBeginRejectsInvalidEmail(t *testing.T) {
	enroller := New(userstore.New(userstore.NewMemoryKV()), Options{Sender: &captureSender{}})

	for _, email := range []string{"", "not-an-email", "two words@example.com", "@example.com"} {
		require.ErrorIs(t, enroller.Begin(context.Background(), email), ErrInvalidEmail)
	}
}

func TestVerifyMintsIdentity(t *testing.T) {
	store := userstore.New(userstore.NewMemoryKV())
	sender := &captureSender{}
	enroller := New(store, Options{Sender: sender})
	ctx := context.Background()

	require.NoError(t, enroller.Begin(ctx, " Alice@Example.COM "))
	require.Equal(t, "alice@example.com", sender.email)
	require.Regexp(t, regexp.MustCompile(`^\d{6}$`), sender.code)

	identity, err := enroller.Verify(ctx, "alice@example.com", sender.code)
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", identity.Email)
	require.Regexp(t, regexp.MustCompile(`^user_[a-z0-9]{9}$`), identity.UserID)
	require.GreaterOrEqual(t, identity.ReviewerVersion, 1)
	require.LessOrEqual(t, identity.ReviewerVersion, 5)
	require.False(t, identity.RegisteredAt.IsZero())

	current, ok, err := store.Current(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, identity.UserID, current.UserID)
}

func TestVerifyRejectsWrongCode(t *testing.T) {
	store := userstore.New(userstore.NewMemoryKV())
	sender := &captureSender{}
	enroller := New(store, Options{Sender: sender})
	ctx := context.Background()

	require.NoError(t, enroller.Begin(ctx, "alice@example.com"))

	_, err := enroller.Verify(ctx, "alice@example.com", "000000")
	require.ErrorIs(t, err, ErrInvalidCode)
	_, err = enroller.Verify(ctx, "other@example.com", sender.code)
	require.ErrorIs(t, err, ErrInvalidCode)

	all, err := store.LoadAll(ctx)
	require.NoError(t, err)
	require.Empty(t, all)
}

func TestBeginRejectsDuplicateEmail(t *testing.T) {
	store := userstore.New(userstore.NewMemoryKV())
	sender := &captureSender{}
	enroller := New(store, Options{Sender: sender})
	ctx := context.Background()

	require.NoError(t, enroller.Begin(ctx, "alice@example.com"))
	_, err := enroller.Verify(ctx, "alice@example.com", sender.code)
	require.NoError(t, err)

	require.ErrorIs(t, enroller.Begin(ctx, "ALICE@example.com"), userstore.ErrEmailTaken)
}

func TestVerifyMirrorsRegistrationToRelay(t *testing.T) {
	var mirrored map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/register", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&mirrored))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	store := userstore.New(userstore.NewMemoryKV())
	sender := &captureSender{}
	enroller := New(store, Options{Sender: sender, RelayURL: server.URL})
	ctx := context.Background()

	require.NoError(t, enroller.Begin(ctx, "alice@example.com"))
	identity, err := enroller.Verify(ctx, "alice@example.com", sender.code)
	require.NoError(t, err)

	require.Equal(t, "alice@example.com", mirrored["email"])
	require.Equal(t, identity.UserID, mirrored["userId"])
}

func TestLoginAndLogout(t *testing.T) {
	store := userstore.New(userstore.NewMemoryKV())
	sender := &captureSender{}
	enroller := New(store, Options{Sender: sender})
	ctx := context.Background()

	require.NoError(t, enroller.Begin(ctx, "alice@example.com"))
	_, err := enroller.Verify(ctx, "alice@example.com", sender.code)
	require.NoError(t, err)
	require.NoError(t, enroller.Logout(ctx))

	_, err = enroller.Login(ctx, "nobody@example.com")
	require.ErrorIs(t, err, userstore.ErrUnknownEmail)

	identity, err := enroller.Login(ctx, "alice@example.com")
	require.NoError(t, err)

	current, ok, err := store.Current(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, identity.UserID, current.UserID)

	require.NoError(t, enroller.Logout(ctx))
	_, ok, err = store.Current(ctx)
	require.NoError(t, err)
	require.False(t, ok)
}
