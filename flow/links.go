package flow

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/Fiedly71/up-to-date-store-sub000/domain"
	"github.com/Fiedly71/up-to-date-store-sub000/identity"
	"github.com/Fiedly71/up-to-date-store-sub000/metrics"
	"github.com/Fiedly71/up-to-date-store-sub000/token"
)

// Link paths appended to the public base URL.
const (
	RecoveryPath = "/reset-password"
	InvitePath   = "/accept-invite"
)

// linkIssuer signs account links and checks them back against storage.
type linkIssuer struct {
	repo    domain.AccountStorage
	signer  *token.Signer
	baseURL string
	metrics *metrics.Metrics
}

func (l *linkIssuer) issue(acct *identity.Account, typ token.Type, path string) (string, error) {
	tok, err := l.signer.Issue(token.Payload{
		UserID: acct.ID,
		Email:  acct.Email,
		Type:   typ,
		Nonce:  acct.Marker(),
	})
	if err != nil {
		return "", err
	}
	l.metrics.LinkIssued(string(typ))
	return strings.TrimRight(l.baseURL, "/") + path + "?token=" + url.QueryEscape(tok), nil
}

// check verifies raw and loads the account it was issued for. A valid
// signature is not enough: the account must still exist with the same email,
// and its credential marker must equal the token nonce.
// saveCredentials persists a password change made on acct, which was read
// with the previous stamp. A concurrent change to the credentials means the
// link was already used.
func (l *linkIssuer) saveCredentials(ctx context.Context, acct *identity.Account, previous int64) error {
	err := l.repo.UpdateCredentials(ctx, acct, previous)
	if errors.Is(err, domain.ErrConflict) {
		return ErrStaleToken
	}
	return err
}

func (l *linkIssuer) check(ctx context.Context, raw string, want token.Type) (*identity.Account, error) {
	p, err := l.signer.Verify(raw)
	if err != nil {
		l.metrics.TokenChecked(string(want), metrics.OutcomeInvalid)
		return nil, err
	}
	if p.Type != want {
		l.metrics.TokenChecked(string(want), metrics.OutcomeInvalid)
		return nil, ErrTokenType
	}

	acct, err := l.repo.GetAccount(ctx, p.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		l.metrics.TokenChecked(string(want), metrics.OutcomeStale)
		return nil, ErrStaleToken
	}
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}

	if acct.Email != p.Email || acct.Marker() != p.Nonce {
		l.metrics.TokenChecked(string(want), metrics.OutcomeStale)
		return nil, ErrStaleToken
	}

	l.metrics.TokenChecked(string(want), metrics.OutcomeFresh)
	return acct, nil
}
