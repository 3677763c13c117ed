package flow

import (
	"github.com/Fiedly71/up-to-date-store-sub000/domain"
	"golang.org/x/crypto/bcrypt"
)

// DefaultHashCost is used when NewBcryptHasher is given a zero cost.
const DefaultHashCost = 12

var _ domain.Hasher = (*BcryptHasher)(nil)

// BcryptHasher hashes account passwords. Passwords longer than bcrypt's
// 72-byte input are refused rather than silently truncated.
type BcryptHasher struct {
	Cost int
}

// NewBcryptHasher clamps cost into bcrypt's supported range.
func NewBcryptHasher(cost int) *BcryptHasher {
	switch {
	case cost == 0:
		cost = DefaultHashCost
	case cost < bcrypt.MinCost:
		cost = bcrypt.MinCost
	case cost > bcrypt.MaxCost:
		cost = bcrypt.MaxCost
	}
	return &BcryptHasher{Cost: cost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	if len(password) > MaxPasswordLength {
		return "", ErrPasswordTooLong
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.Cost)
	return string(hashed), err
}

func (h *BcryptHasher) Compare(password, hash string) bool {
	if len(password) > MaxPasswordLength {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// NeedsRehash reports whether hash was made with a cost other than the
// hasher's, e.g. after the configured cost was raised.
func (h *BcryptHasher) NeedsRehash(hash string) bool {
	cost, err := bcrypt.Cost([]byte(hash))
	return err != nil || cost != h.Cost
}
