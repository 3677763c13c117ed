package flow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Fiedly71/up-to-date-store-sub000/domain"
	"github.com/Fiedly71/up-to-date-store-sub000/identity"
	"github.com/Fiedly71/up-to-date-store-sub000/logger"
	"github.com/Fiedly71/up-to-date-store-sub000/metrics"
	"github.com/Fiedly71/up-to-date-store-sub000/token"
	"go.uber.org/zap"
)

// RecoveryManager issues and redeems password recovery links.
type RecoveryManager struct {
	links    linkIssuer
	hasher   domain.Hasher
	notifier Notifier
	limiter  *Limiter
	sessions SessionRevoker
	now      func() time.Time
}

func NewRecoveryManager(repo domain.AccountStorage, signer *token.Signer, hasher domain.Hasher, baseURL string) *RecoveryManager {
	return &RecoveryManager{
		links:    linkIssuer{repo: repo, signer: signer, baseURL: baseURL},
		hasher:   hasher,
		notifier: LogNotifier{},
		now:      time.Now,
	}
}

func (m *RecoveryManager) SetNotifier(n Notifier)             { m.notifier = n }
func (m *RecoveryManager) SetLimiter(l *Limiter)              { m.limiter = l }
func (m *RecoveryManager) SetSessionRevoker(r SessionRevoker) { m.sessions = r }
func (m *RecoveryManager) SetMetrics(mt *metrics.Metrics)     { m.links.metrics = mt }

// Initiate sends a recovery link to email. It returns nil for unknown
// addresses so callers cannot probe which emails have accounts.
func (m *RecoveryManager) Initiate(ctx context.Context, email string) error {
	email = identity.NormalizeEmail(email)
	if !m.limiter.Allow(email) {
		return ErrRateLimited
	}

	acct, err := m.links.repo.GetAccountByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		logger.Log.Debug("recovery requested for unknown email")
		return nil
	}
	if err != nil {
		return fmt.Errorf("recovery: lookup account: %w", err)
	}

	link, err := m.links.issue(acct, token.TypeRecovery, RecoveryPath)
	if err != nil {
		return fmt.Errorf("recovery: %w", err)
	}

	if err := m.notifier.Notify(ctx, Message{To: acct.Email, Name: acct.Name, Kind: string(token.TypeRecovery), Link: link}); err != nil {
		return fmt.Errorf("recovery: notify: %w", err)
	}
	return nil
}

// Inspect reports whether a recovery link is still usable without redeeming it.
func (m *RecoveryManager) Inspect(ctx context.Context, raw string) (*identity.Account, error) {
	return m.links.check(ctx, raw, token.TypeRecovery)
}

// ResetPassword redeems a recovery link. Setting the password advances the
// credential marker, so the same link fails on a second attempt, including a
// concurrent one. A pending invitation is settled by the reset.
func (m *RecoveryManager) ResetPassword(ctx context.Context, raw, password string) (*identity.Account, error) {
	acct, err := m.links.check(ctx, raw, token.TypeRecovery)
	if err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	hashed, err := m.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("recovery: hash password: %w", err)
	}
	previous := acct.CredentialStamp
	acct.SetPassword(hashed, m.now())
	acct.Invited = false
	if err := m.links.saveCredentials(ctx, acct, previous); err != nil {
		if errors.Is(err, ErrStaleToken) {
			return nil, err
		}
		return nil, fmt.Errorf("recovery: save: %w", err)
	}

	if m.sessions != nil {
		if err := m.sessions.RevokeAll(ctx, acct.ID); err != nil {
			logger.Log.Warn("recovery: revoke sessions", zap.String("account_id", acct.ID), zap.Error(err))
		}
	}

	logger.Log.Info("password reset", zap.String("account_id", acct.ID))
	return acct, nil
}
