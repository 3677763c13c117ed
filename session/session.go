package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Fiedly71/up-to-date-store-sub000/domain"
	"github.com/Fiedly71/up-to-date-store-sub000/identity"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTTL is the session lifetime when none is configured.
const DefaultTTL = 24 * time.Hour

// ErrInvalidSession is returned for unknown, expired, revoked or malformed
// sessions.
var ErrInvalidSession = errors.New("session: invalid or expired session")

type Session = identity.Session

// Strategy defines the interface for session management strategies.
type Strategy interface {
	Create(ctx context.Context, acct *identity.Account) (*identity.Session, error)
	Validate(ctx context.Context, sessionID string) (*identity.Session, error)
	Delete(ctx context.Context, sessionID string) error
}

// DatabaseStrategy stores opaque session IDs in the database.
type DatabaseStrategy struct {
	repo domain.SessionStorage
	ttl  time.Duration
	now  func() time.Time
}

func NewDatabaseStrategy(repo domain.SessionStorage, ttl time.Duration) *DatabaseStrategy {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &DatabaseStrategy{repo: repo, ttl: ttl, now: time.Now}
}

func (s *DatabaseStrategy) Create(ctx context.Context, acct *identity.Account) (*identity.Session, error) {
	now := s.now()
	sess := &identity.Session{
		ID:        uuid.NewString(),
		AccountID: acct.ID,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl),
		Active:    true,
	}
	if err := s.repo.CreateSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("session: create: %w", err)
	}
	return sess, nil
}

func (s *DatabaseStrategy) Validate(ctx context.Context, sessionID string) (*identity.Session, error) {
	sess, err := s.repo.GetSession(ctx, sessionID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, ErrInvalidSession
	}
	if err != nil {
		return nil, fmt.Errorf("session: lookup: %w", err)
	}

	if !sess.Active || !sess.ExpiresAt.After(s.now()) {
		return nil, ErrInvalidSession
	}
	return sess, nil
}

func (s *DatabaseStrategy) Delete(ctx context.Context, sessionID string) error {
	return s.repo.DeleteSession(ctx, sessionID)
}

// RevokeAll deletes every session of an account.
func (s *DatabaseStrategy) RevokeAll(ctx context.Context, accountID string) error {
	return s.repo.DeleteSessionsFor(ctx, accountID)
}

// JWTStrategy issues stateless HS256 session tokens. Tokens cannot be deleted
// server side; instead each carries the account's credential marker, and
// callers reject tokens whose marker no longer matches the account.
type JWTStrategy struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// Claims represents the data stored in the JWT.
type Claims struct {
	SessionID string `json:"sid"`
	Marker    string `json:"mkr"`
	jwt.RegisteredClaims
}

func NewJWTStrategy(secret []byte, ttl time.Duration) *JWTStrategy {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &JWTStrategy{key: append([]byte(nil), secret...), ttl: ttl, now: time.Now}
}

func (s *JWTStrategy) Create(_ context.Context, acct *identity.Account) (*identity.Session, error) {
	now := s.now()
	exp := now.Add(s.ttl)
	claims := Claims{
		SessionID: uuid.NewString(),
		Marker:    acct.Marker(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   acct.ID,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return nil, fmt.Errorf("session: sign: %w", err)
	}

	return &identity.Session{
		ID:        signed,
		AccountID: acct.ID,
		IssuedAt:  now,
		ExpiresAt: exp,
		Active:    true,
		Marker:    claims.Marker,
	}, nil
}

func (s *JWTStrategy) Validate(_ context.Context, sessionID string) (*identity.Session, error) {
	var claims Claims
	tok, err := jwt.ParseWithClaims(sessionID, &claims, func(t *jwt.Token) (interface{}, error) {
		return s.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !tok.Valid || claims.Subject == "" {
		return nil, ErrInvalidSession
	}

	sess := &identity.Session{
		ID:        sessionID,
		AccountID: claims.Subject,
		ExpiresAt: claims.ExpiresAt.Time,
		Active:    true,
		Marker:    claims.Marker,
	}
	if claims.IssuedAt != nil {
		sess.IssuedAt = claims.IssuedAt.Time
	}
	return sess, nil
}

// Delete is a no-op: JWT sessions end when they expire or the password
// changes.
func (s *JWTStrategy) Delete(context.Context, string) error {
	return nil
}
