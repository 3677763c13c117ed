// Package flow implements the account and order workflows of the storefront:
// registration, login, password recovery, invitations and order handling.
//
// Recovery and invite links are signed tokens (see package token). The flows
// here are the token's caller: after the signature checks out they load the
// account and compare its current credential marker with the nonce captured
// at issuance. Setting a password advances the marker, so every link issued
// before that moment becomes stale at once.
package flow

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/Fiedly71/up-to-date-store-sub000/identity"
	"github.com/Fiedly71/up-to-date-store-sub000/logger"
	"go.uber.org/zap"
)

// Password length bounds. bcrypt ignores input beyond 72 bytes, so longer
// passwords are rejected rather than silently truncated.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 72
)

var (
	ErrInvalidEmail       = errors.New("flow: invalid email address")
	ErrWeakPassword       = errors.New("flow: password must be at least 8 characters")
	ErrPasswordTooLong    = errors.New("flow: password must be at most 72 bytes")
	ErrEmailTaken         = errors.New("flow: an account with this email already exists")
	ErrInvalidCredentials = errors.New("flow: invalid email or password")
	ErrStaleToken         = errors.New("flow: link has already been used or is no longer valid")
	ErrTokenType          = errors.New("flow: link was issued for a different purpose")
	ErrRateLimited        = errors.New("flow: too many requests, try again later")
)

// Message is an out-of-band notification carrying an account link.
type Message struct {
	To   string
	Name string
	Kind string // "recovery" or "invite"
	Link string
}

// Notifier delivers account links to their recipients.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// LogNotifier writes links to the service log instead of sending them. It is
// the development default when no mail provider is configured.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, msg Message) error {
	logger.Log.Info("account link issued",
		zap.String("to", msg.To),
		zap.String("kind", msg.Kind),
		zap.String("link", msg.Link),
	)
	return nil
}

// SessionRevoker ends all sessions of an account after its password changes.
type SessionRevoker interface {
	RevokeAll(ctx context.Context, accountID string) error
}

func validateEmail(email string) (string, error) {
	email = identity.NormalizeEmail(email)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@")+1:], ".") {
		return "", ErrInvalidEmail
	}
	return email, nil
}

func validatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrWeakPassword
	}
	if len(password) > MaxPasswordLength {
		return ErrPasswordTooLong
	}
	return nil
}
