package flow

import (
	"context"
	"errors"
	"fmt"

	"github.com/Fiedly71/up-to-date-store-sub000/domain"
	"github.com/Fiedly71/up-to-date-store-sub000/identity"
	"github.com/Fiedly71/up-to-date-store-sub000/logger"
	"go.uber.org/zap"
)

type rehasher interface {
	NeedsRehash(hash string) bool
}

type LoginManager struct {
	repo   domain.AccountStorage
	hasher domain.Hasher
}

func NewLoginManager(repo domain.AccountStorage, hasher domain.Hasher) *LoginManager {
	return &LoginManager{repo: repo, hasher: hasher}
}

// Authenticate checks an email/password pair. Unknown emails, invited
// accounts without a password and wrong passwords all yield
// ErrInvalidCredentials.
func (m *LoginManager) Authenticate(ctx context.Context, email, password string) (*identity.Account, error) {
	acct, err := m.repo.GetAccountByEmail(ctx, identity.NormalizeEmail(email))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("login: lookup account: %w", err)
	}

	if !acct.HasPassword() || !m.hasher.Compare(password, acct.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	m.upgradeHash(ctx, acct, password)
	return acct, nil
}

// upgradeHash re-hashes a password stored at an outdated cost. The password
// itself is unchanged, so the credential marker stays put.
func (m *LoginManager) upgradeHash(ctx context.Context, acct *identity.Account, password string) {
	r, ok := m.hasher.(rehasher)
	if !ok || !r.NeedsRehash(acct.PasswordHash) {
		return
	}
	hashed, err := m.hasher.Hash(password)
	if err != nil {
		return
	}
	acct.PasswordHash = hashed
	if err := m.repo.UpdateAccount(ctx, acct); err != nil {
		logger.Log.Warn("login: upgrade password hash", zap.String("account_id", acct.ID), zap.Error(err))
	}
}
