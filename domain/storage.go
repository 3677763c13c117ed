package domain

import (
	"context"
	"errors"

	"github.com/Fiedly71/up-to-date-store-sub000/identity"
	"github.com/Fiedly71/up-to-date-store-sub000/order"
)

// ErrNotFound is returned by storage implementations for missing records.
var ErrNotFound = errors.New("storage: record not found")

// ErrConflict is returned by conditional updates when the record no longer
// holds the expected value.
var ErrConflict = errors.New("storage: record changed concurrently")

// Storage defines the interface for all persistence operations.
type Storage interface {
	AccountStorage
	SessionStorage
	OrderStorage
	Ping(ctx context.Context) error
}

type AccountStorage interface {
	CreateAccount(ctx context.Context, a *identity.Account) error
	GetAccount(ctx context.Context, id string) (*identity.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*identity.Account, error)
	UpdateAccount(ctx context.Context, a *identity.Account) error
	// UpdateCredentials saves the password hash, credential stamp and invite
	// flag only if the stored stamp still equals previous.
	UpdateCredentials(ctx context.Context, a *identity.Account, previous int64) error
	ListAccounts(ctx context.Context) ([]identity.Account, error)
}

type SessionStorage interface {
	CreateSession(ctx context.Context, s *identity.Session) error
	GetSession(ctx context.Context, id string) (*identity.Session, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteSessionsFor(ctx context.Context, accountID string) error
}

type OrderStorage interface {
	CreateOrder(ctx context.Context, o *order.Order) error
	GetOrder(ctx context.Context, id string) (*order.Order, error)
	UpdateOrder(ctx context.Context, o *order.Order) error
	ListOrders(ctx context.Context, f order.Filter) ([]order.Order, error)
}

// Hasher defines the interface for password hashing and verification.
type Hasher interface {
	Hash(password string) (string, error)
	Compare(password, hash string) bool
}
