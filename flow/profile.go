package flow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Fiedly71/up-to-date-store-sub000/domain"
	"github.com/Fiedly71/up-to-date-store-sub000/identity"
	"github.com/Fiedly71/up-to-date-store-sub000/logger"
	"go.uber.org/zap"
)

// ProfileManager edits account details. Profile edits never touch the
// credential marker; only ChangePassword does.
type ProfileManager struct {
	repo     domain.AccountStorage
	hasher   domain.Hasher
	sessions SessionRevoker
	now      func() time.Time
}

func NewProfileManager(repo domain.AccountStorage, hasher domain.Hasher) *ProfileManager {
	return &ProfileManager{repo: repo, hasher: hasher, now: time.Now}
}

func (m *ProfileManager) SetSessionRevoker(r SessionRevoker) { m.sessions = r }

// Update changes name and phone. Empty values leave the field unchanged.
func (m *ProfileManager) Update(ctx context.Context, accountID, name, phone string) (*identity.Account, error) {
	acct, err := m.repo.GetAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("profile: %w", err)
	}
	if name = strings.TrimSpace(name); name != "" {
		acct.Name = name
	}
	if phone = strings.TrimSpace(phone); phone != "" {
		acct.Phone = phone
	}
	if err := m.repo.UpdateAccount(ctx, acct); err != nil {
		return nil, fmt.Errorf("profile: save: %w", err)
	}
	return acct, nil
}

// ChangePassword replaces the password after checking the current one. It
// advances the credential marker, so outstanding recovery links stop working,
// and ends every session of the account, the caller's included. Failing to
// end sessions is logged; the new password stays in place.
func (m *ProfileManager) ChangePassword(ctx context.Context, accountID, current, next string) error {
	acct, err := m.repo.GetAccount(ctx, accountID)
	if err != nil {
		return fmt.Errorf("profile: %w", err)
	}
	if !acct.HasPassword() || !m.hasher.Compare(current, acct.PasswordHash) {
		return ErrInvalidCredentials
	}
	if err := validatePassword(next); err != nil {
		return err
	}

	hashed, err := m.hasher.Hash(next)
	if err != nil {
		return fmt.Errorf("profile: hash password: %w", err)
	}
	previous := acct.CredentialStamp
	acct.SetPassword(hashed, m.now())
	if err := m.repo.UpdateCredentials(ctx, acct, previous); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return ErrInvalidCredentials
		}
		return fmt.Errorf("profile: save: %w", err)
	}

	if m.sessions != nil {
		if err := m.sessions.RevokeAll(ctx, acct.ID); err != nil {
			logger.Log.Warn("profile: revoke sessions", zap.String("account_id", acct.ID), zap.Error(err))
		}
	}
	return nil
}
