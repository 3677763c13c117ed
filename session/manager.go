package session

import (
	"context"

	"github.com/Fiedly71/up-to-date-store-sub000/identity"
)

type revoker interface {
	RevokeAll(ctx context.Context, accountID string) error
}

// Manager is the entry point the API uses for sessions, whatever the
// configured strategy.
type Manager struct {
	strategy Strategy
}

func NewManager(strategy Strategy) *Manager {
	return &Manager{strategy: strategy}
}

func (m *Manager) Create(ctx context.Context, acct *identity.Account) (*identity.Session, error) {
	return m.strategy.Create(ctx, acct)
}

func (m *Manager) Validate(ctx context.Context, sessionID string) (*identity.Session, error) {
	if sessionID == "" {
		return nil, ErrInvalidSession
	}
	return m.strategy.Validate(ctx, sessionID)
}

func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.strategy.Delete(ctx, sessionID)
}

// RevokeAll ends every session of an account where the strategy keeps state.
func (m *Manager) RevokeAll(ctx context.Context, accountID string) error {
	if r, ok := m.strategy.(revoker); ok {
		return r.RevokeAll(ctx, accountID)
	}
	return nil
}
