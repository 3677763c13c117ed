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
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Hook runs after a flow action completes successfully.
type Hook func(ctx context.Context, acct *identity.Account) error

// Registration is the self-service sign-up form.
type Registration struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type RegistrationManager struct {
	repo      domain.AccountStorage
	hasher    domain.Hasher
	postHooks []Hook
	now       func() time.Time
}

func NewRegistrationManager(repo domain.AccountStorage, hasher domain.Hasher) *RegistrationManager {
	return &RegistrationManager{repo: repo, hasher: hasher, now: time.Now}
}

func (m *RegistrationManager) AddPostHook(h Hook) { m.postHooks = append(m.postHooks, h) }

func (m *RegistrationManager) Register(ctx context.Context, r Registration) (*identity.Account, error) {
	email, err := validateEmail(r.Email)
	if err != nil {
		return nil, err
	}
	if err := validatePassword(r.Password); err != nil {
		return nil, err
	}

	if _, err := m.repo.GetAccountByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("registration: lookup account: %w", err)
	}

	hashed, err := m.hasher.Hash(r.Password)
	if err != nil {
		return nil, fmt.Errorf("registration: hash password: %w", err)
	}

	acct := &identity.Account{
		ID:    uuid.NewString(),
		Email: email,
		Name:  strings.TrimSpace(r.Name),
		Phone: strings.TrimSpace(r.Phone),
	}
	acct.SetPassword(hashed, m.now())

	if err := m.repo.CreateAccount(ctx, acct); err != nil {
		return nil, fmt.Errorf("registration: create account: %w", err)
	}

	for _, h := range m.postHooks {
		if err := h(ctx, acct); err != nil {
			return nil, err
		}
	}

	logger.Log.Info("account registered", zap.String("account_id", acct.ID))
	return acct, nil
}

// EnsureAdmin creates the bootstrap administrator, or promotes and re-keys an
// existing account with that email.
func (m *RegistrationManager) EnsureAdmin(ctx context.Context, email, password string) (*identity.Account, error) {
	email, err := validateEmail(email)
	if err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	acct, err := m.repo.GetAccountByEmail(ctx, email)
	existing := err == nil
	switch {
	case errors.Is(err, domain.ErrNotFound):
		acct = &identity.Account{ID: uuid.NewString(), Email: email, Name: "Administrator"}
	case err != nil:
		return nil, fmt.Errorf("bootstrap admin: %w", err)
	}

	if acct.IsAdmin && acct.HasPassword() && m.hasher.Compare(password, acct.PasswordHash) {
		return acct, nil
	}

	hashed, err := m.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("bootstrap admin: hash password: %w", err)
	}
	acct.SetPassword(hashed, m.now())
	acct.IsAdmin = true
	acct.Invited = false

	if existing {
		err = m.repo.UpdateAccount(ctx, acct)
	} else {
		err = m.repo.CreateAccount(ctx, acct)
	}
	if err != nil {
		return nil, fmt.Errorf("bootstrap admin: save: %w", err)
	}
	return acct, nil
}
