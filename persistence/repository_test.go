package persistence

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Fiedly71/up-to-date-store-sub000/domain"
	"github.com/Fiedly71/up-to-date-store-sub000/identity"
	"github.com/Fiedly71/up-to-date-store-sub000/order"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewStorage("sqlite", filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestNewStorage_UnknownProvider(t *testing.T) {
	_, err := NewStorage("oracle", "dsn", nil)
	assert.Error(t, err)
}

func TestRepository_Accounts(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	require.NoError(t, repo.Ping(ctx))

	a := &identity.Account{ID: uuid.NewString(), Email: "buyer@example.com", Name: "Buyer"}
	a.SetPassword("hash", time.Now())
	require.NoError(t, repo.CreateAccount(ctx, a))

	dup := &identity.Account{ID: uuid.NewString(), Email: "buyer@example.com"}
	assert.Error(t, repo.CreateAccount(ctx, dup))

	got, err := repo.GetAccountByEmail(ctx, "  BUYER@example.com")
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
	assert.Equal(t, a.Marker(), got.Marker())

	got.Name = "Renamed"
	require.NoError(t, repo.UpdateAccount(ctx, got))

	again, err := repo.GetAccount(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", again.Name)

	_, err = repo.GetAccount(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	all, err := repo.ListAccounts(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestRepository_UpdateCredentials(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	a := &identity.Account{ID: uuid.NewString(), Email: "staff@example.com", Invited: true}
	require.NoError(t, repo.CreateAccount(ctx, a))

	first := *a
	second := *a
	first.SetPassword("hash-1", time.Now())
	first.Invited = false
	second.SetPassword("hash-2", time.Now())

	require.NoError(t, repo.UpdateCredentials(ctx, &first, a.CredentialStamp))
	assert.ErrorIs(t, repo.UpdateCredentials(ctx, &second, a.CredentialStamp), domain.ErrConflict)

	got, err := repo.GetAccount(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "hash-1", got.PasswordHash)
	assert.Equal(t, first.CredentialStamp, got.CredentialStamp)
	assert.False(t, got.Invited)
}

func TestRepository_Sessions(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	for _, id := range []string{"s1", "s2"} {
		require.NoError(t, repo.CreateSession(ctx, &identity.Session{
			ID: id, AccountID: "acct", ExpiresAt: time.Now().Add(time.Hour), Active: true,
		}))
	}

	s, err := repo.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "acct", s.AccountID)

	require.NoError(t, repo.DeleteSession(ctx, "s1"))
	_, err = repo.GetSession(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, repo.DeleteSessionsFor(ctx, "acct"))
	_, err = repo.GetSession(ctx, "s2")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRepository_Orders(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	now := time.Now()
	o := order.New("acct-1", now)
	o.Source = order.SourceCatalog
	o.Title = "Headphones"
	require.NoError(t, o.Price(80))
	require.NoError(t, repo.CreateOrder(ctx, o))

	other := order.New("acct-2", now.Add(time.Second))
	require.NoError(t, other.Price(10))
	require.NoError(t, repo.CreateOrder(ctx, other))

	got, err := repo.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, 92.0, got.Total)
	require.Len(t, got.Events, 1)

	byRef, err := repo.GetOrder(ctx, o.Reference)
	require.NoError(t, err)
	assert.Equal(t, o.ID, byRef.ID)

	require.NoError(t, got.Advance(order.StatusPaid, "ref 123", now.Add(time.Minute)))
	require.NoError(t, repo.UpdateOrder(ctx, got))

	reloaded, err := repo.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusPaid, reloaded.Status)
	require.Len(t, reloaded.Events, 2)
	assert.Equal(t, order.StatusPaid, reloaded.Events[1].Status)

	// Saving again must not duplicate events.
	require.NoError(t, repo.UpdateOrder(ctx, reloaded))
	reloaded, err = repo.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Len(t, reloaded.Events, 2)

	mine, err := repo.ListOrders(ctx, order.Filter{AccountID: "acct-1"})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, o.ID, mine[0].ID)

	paid, err := repo.ListOrders(ctx, order.Filter{Status: order.StatusPaid})
	require.NoError(t, err)
	assert.Len(t, paid, 1)

	all, err := repo.ListOrders(ctx, order.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, other.ID, all[0].ID)

	_, err = repo.GetOrder(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
