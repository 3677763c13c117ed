package session

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Fiedly71/up-to-date-store-sub000/identity"
	"github.com/Fiedly71/up-to-date-store-sub000/persistence"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAccount(t *testing.T, repo *persistence.Repository) *identity.Account {
	t.Helper()
	acct := &identity.Account{ID: "acct-1", Email: "jane@example.com"}
	acct.SetPassword("hash", time.Now())
	require.NoError(t, repo.CreateAccount(context.Background(), acct))
	return acct
}

func TestDatabaseStrategy(t *testing.T) {
	repo, err := persistence.NewStorage("sqlite", filepath.Join(t.TempDir(), "sessions.db"), nil)
	require.NoError(t, err)
	defer repo.Close()
	ctx := context.Background()
	acct := newAccount(t, repo)

	strategy := NewDatabaseStrategy(repo, time.Hour)
	mgr := NewManager(strategy)

	s1, err := mgr.Create(ctx, acct)
	require.NoError(t, err)
	s2, err := mgr.Create(ctx, acct)
	require.NoError(t, err)
	assert.NotEqual(t, s1.ID, s2.ID)

	got, err := mgr.Validate(ctx, s1.ID)
	require.NoError(t, err)
	assert.Equal(t, acct.ID, got.AccountID)

	require.NoError(t, mgr.Delete(ctx, s1.ID))
	_, err = mgr.Validate(ctx, s1.ID)
	assert.ErrorIs(t, err, ErrInvalidSession)

	require.NoError(t, mgr.RevokeAll(ctx, acct.ID))
	_, err = mgr.Validate(ctx, s2.ID)
	assert.ErrorIs(t, err, ErrInvalidSession)

	_, err = mgr.Validate(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestDatabaseStrategy_Expiry(t *testing.T) {
	repo, err := persistence.NewStorage("sqlite", filepath.Join(t.TempDir(), "sessions.db"), nil)
	require.NoError(t, err)
	defer repo.Close()
	ctx := context.Background()
	acct := newAccount(t, repo)

	now := time.Now()
	strategy := NewDatabaseStrategy(repo, time.Minute)
	strategy.now = func() time.Time { return now }

	sess, err := strategy.Create(ctx, acct)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = strategy.Validate(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestJWTStrategy(t *testing.T) {
	ctx := context.Background()
	acct := &identity.Account{ID: "acct-1", Email: "jane@example.com"}
	acct.SetPassword("hash", time.Now())

	strategy := NewJWTStrategy([]byte("0123456789abcdef0123456789abcdef"), time.Hour)
	sess, err := strategy.Create(ctx, acct)
	require.NoError(t, err)
	assert.Equal(t, acct.Marker(), sess.Marker)

	got, err := strategy.Validate(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, acct.ID, got.AccountID)
	assert.Equal(t, acct.Marker(), got.Marker)

	// RevokeAll is a no-op for stateless sessions
	assert.NoError(t, NewManager(strategy).RevokeAll(ctx, acct.ID))

	other := NewJWTStrategy([]byte("another-secret-another-secret-xx"), time.Hour)
	_, err = other.Validate(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrInvalidSession)

	_, err = strategy.Validate(ctx, "not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestJWTStrategy_RejectsOtherAlgorithms(t *testing.T) {
	secret := []byte("0123456789abcdef0123456789abcdef")
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "acct-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(secret)
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	strategy := NewJWTStrategy(secret, time.Hour)
	for _, tok := range []string{hs512, none} {
		_, err := strategy.Validate(context.Background(), tok)
		assert.ErrorIs(t, err, ErrInvalidSession)
	}
}

func TestJWTStrategy_Expired(t *testing.T) {
	acct := &identity.Account{ID: "acct-1"}
	now := time.Now()
	strategy := NewJWTStrategy([]byte("0123456789abcdef0123456789abcdef"), time.Minute)
	strategy.now = func() time.Time { return now }

	sess, err := strategy.Create(context.Background(), acct)
	require.NoError(t, err)

	now = now.Add(time.Hour)
	_, err = strategy.Validate(context.Background(), sess.ID)
	assert.ErrorIs(t, err, ErrInvalidSession)
}
