package rbac

import (
	"net/http"
	"strings"

	"github.com/Fiedly71/up-to-date-store-sub000/domain"
	"github.com/Fiedly71/up-to-date-store-sub000/identity"
	"github.com/Fiedly71/up-to-date-store-sub000/session"
	"github.com/labstack/echo/v4"
)

const (
	accountKey = "account"
	sessionKey = "session"
)

// Middleware authenticates requests and enforces roles for Echo.
type Middleware struct {
	strategy Strategy
	sessions *session.Manager
	accounts domain.AccountStorage
}

func NewMiddleware(strategy Strategy, sessions *session.Manager, accounts domain.AccountStorage) *Middleware {
	if strategy == nil {
		strategy = BasicStrategy{}
	}
	return &Middleware{strategy: strategy, sessions: sessions, accounts: accounts}
}

// Authenticate resolves the bearer session token to an account and stores
// both in the echo context. Requests without a valid session get 401.
func (m *Middleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		sess, err := m.sessions.Validate(ctx, BearerToken(c.Request()))
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
		}

		acct, err := m.accounts.GetAccount(ctx, sess.AccountID)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
		}
		// stateless sessions end when the password changes
		if sess.Marker != "" && sess.Marker != acct.Marker() {
			return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
		}

		c.Set(sessionKey, sess)
		c.Set(accountKey, acct)
		return next(c)
	}
}

// RequireRole returns an Echo middleware that requires the authenticated
// account to hold role. It must run after Authenticate.
func (m *Middleware) RequireRole(role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			acct := AccountFrom(c)
			if acct == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
			}
			if !HasRole(m.strategy, acct, role) {
				return echo.NewHTTPError(http.StatusForbidden, "forbidden: missing required role")
			}
			return next(c)
		}
	}
}

func (m *Middleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return m.RequireRole(RoleAdmin)(next)
}

// AccountFrom returns the account stored by Authenticate, or nil.
func AccountFrom(c echo.Context) *identity.Account {
	acct, _ := c.Get(accountKey).(*identity.Account)
	return acct
}

// SessionFrom returns the session stored by Authenticate, or nil.
func SessionFrom(c echo.Context) *identity.Session {
	sess, _ := c.Get(sessionKey).(*identity.Session)
	return sess
}

// BearerToken extracts the token of an "Authorization: Bearer" header.
func BearerToken(r *http.Request) string {
	h := r.Header.Get(echo.HeaderAuthorization)
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
