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
	"github.com/Fiedly71/up-to-date-store-sub000/metrics"
	"github.com/Fiedly71/up-to-date-store-sub000/token"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Invitation is an administrator's request to onboard someone.
type Invitation struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Admin bool   `json:"is_admin"`
}

// InviteManager creates password-less accounts and sends them a link to set
// their first password.
type InviteManager struct {
	links    linkIssuer
	hasher   domain.Hasher
	notifier Notifier
	now      func() time.Time
}

func NewInviteManager(repo domain.AccountStorage, signer *token.Signer, hasher domain.Hasher, baseURL string) *InviteManager {
	return &InviteManager{
		links:    linkIssuer{repo: repo, signer: signer, baseURL: baseURL},
		hasher:   hasher,
		notifier: LogNotifier{},
		now:      time.Now,
	}
}

func (m *InviteManager) SetNotifier(n Notifier)         { m.notifier = n }
func (m *InviteManager) SetMetrics(mt *metrics.Metrics) { m.links.metrics = mt }

// Invite creates the invited account, or re-sends the link if a pending
// invitation already exists for the email. A re-send takes the role and, when
// given, the name of the new invitation. Accounts that have already set a
// password cannot be invited again.
func (m *InviteManager) Invite(ctx context.Context, inv Invitation) (*identity.Account, string, error) {
	email, err := validateEmail(inv.Email)
	if err != nil {
		return nil, "", err
	}

	acct, err := m.links.repo.GetAccountByEmail(ctx, email)
	switch {
	case err == nil:
		if acct.HasPassword() {
			return nil, "", ErrEmailTaken
		}
		if name := strings.TrimSpace(inv.Name); name != "" {
			acct.Name = name
		}
		acct.IsAdmin = inv.Admin
		if err := m.links.repo.UpdateAccount(ctx, acct); err != nil {
			return nil, "", fmt.Errorf("invite: update account: %w", err)
		}
	case errors.Is(err, domain.ErrNotFound):
		acct = &identity.Account{
			ID:      uuid.NewString(),
			Email:   email,
			Name:    strings.TrimSpace(inv.Name),
			IsAdmin: inv.Admin,
			Invited: true,
		}
		if err := m.links.repo.CreateAccount(ctx, acct); err != nil {
			return nil, "", fmt.Errorf("invite: create account: %w", err)
		}
	default:
		return nil, "", fmt.Errorf("invite: lookup account: %w", err)
	}

	link, err := m.links.issue(acct, token.TypeInvite, InvitePath)
	if err != nil {
		return nil, "", fmt.Errorf("invite: %w", err)
	}
	if err := m.notifier.Notify(ctx, Message{To: acct.Email, Name: acct.Name, Kind: string(token.TypeInvite), Link: link}); err != nil {
		return nil, "", fmt.Errorf("invite: notify: %w", err)
	}

	logger.Log.Info("account invited", zap.String("account_id", acct.ID), zap.Bool("admin", acct.IsAdmin))
	return acct, link, nil
}

// Inspect reports whether an invite link is still usable.
func (m *InviteManager) Inspect(ctx context.Context, raw string) (*identity.Account, error) {
	return m.links.check(ctx, raw, token.TypeInvite)
}

// Accept redeems an invite link by setting the first password.
func (m *InviteManager) Accept(ctx context.Context, raw, password string) (*identity.Account, error) {
	acct, err := m.links.check(ctx, raw, token.TypeInvite)
	if err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	hashed, err := m.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("invite: hash password: %w", err)
	}
	previous := acct.CredentialStamp
	acct.SetPassword(hashed, m.now())
	acct.Invited = false
	if err := m.links.saveCredentials(ctx, acct, previous); err != nil {
		if errors.Is(err, ErrStaleToken) {
			return nil, err
		}
		return nil, fmt.Errorf("invite: save: %w", err)
	}
	return acct, nil
}
