// Package identity holds the persisted account and session models.
package identity

import (
	"strconv"
	"strings"
	"time"
)

// Account is a storefront customer or administrator.
type Account struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Email        string    `gorm:"uniqueIndex;size:255" json:"email"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone,omitempty"`
	PasswordHash string    `json:"-"`
	IsAdmin      bool      `json:"is_admin"`
	Invited      bool      `json:"invited"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// CredentialStamp changes if and only if the password is set. It is the
	// nonce embedded in recovery and invite tokens; profile edits leave it
	// alone so they never invalidate outstanding links.
	CredentialStamp int64 `json:"-"`
}

func (Account) TableName() string { return "accounts" }

// NormalizeEmail lower-cases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Marker returns the account's current credential marker.
func (a *Account) Marker() string {
	return strconv.FormatInt(a.CredentialStamp, 10)
}

// HasPassword reports whether the account can log in with a password.
func (a *Account) HasPassword() bool {
	return a.PasswordHash != ""
}

// SetPassword stores a new password hash and advances the credential marker.
// The marker is strictly increasing even if the clock is not.
func (a *Account) SetPassword(hash string, now time.Time) {
	a.PasswordHash = hash
	stamp := now.UnixNano()
	if stamp <= a.CredentialStamp {
		stamp = a.CredentialStamp + 1
	}
	a.CredentialStamp = stamp
}

// Session represents an authenticated session.
type Session struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	AccountID string    `gorm:"index;size:36" json:"account_id"`
	ExpiresAt time.Time `json:"expires_at"`
	IssuedAt  time.Time `json:"issued_at"`
	Active    bool      `json:"active"`

	// Marker is the account's credential marker at sign-in. Only stateless
	// sessions carry it; it is not persisted.
	Marker string `gorm:"-" json:"-"`
}

func (Session) TableName() string { return "sessions" }
