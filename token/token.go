package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Separator joins the encoded payload and the encoded signature.
const Separator = "."

// ErrInvalidToken covers every verification failure: structure, encoding,
// signature and payload shape are deliberately not distinguished.
var ErrInvalidToken = errors.New("token: invalid token")

var encoding = base64.RawURLEncoding.Strict()

// Type tags the purpose of a token. It is informational; callers enforce it.
type Type string

const (
	TypeRecovery Type = "recovery"
	TypeInvite   Type = "invite"
)

// Payload is the signed content of a token.
type Payload struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Type   Type   `json:"type"`
	Nonce  string `json:"nonce"`
}

// Signer issues and verifies tokens with a single secret. It holds no mutable
// state and is safe for concurrent use.
type Signer struct {
	secret []byte
}

// NewSigner copies secret into a new Signer.
func NewSigner(secret []byte) (*Signer, error) {
	if len(secret) == 0 {
		return nil, errors.New("token: secret must not be empty")
	}
	return &Signer{secret: append([]byte(nil), secret...)}, nil
}

// Issue serialises p and signs it.
func (s *Signer) Issue(p Payload) (string, error) {
	if p.UserID == "" || p.Email == "" || p.Type == "" {
		return "", errors.New("token: userId, email and type are required")
	}

	raw, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("token: encode payload: %w", err)
	}

	body := encoding.EncodeToString(raw)
	return body + Separator + encoding.EncodeToString(s.sign(body)), nil
}

// Verify checks the token's structure and signature and returns its payload.
// It does not check the nonce; that is the caller's job.
func (s *Signer) Verify(tok string) (*Payload, error) {
	parts := strings.Split(tok, Separator)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, ErrInvalidToken
	}

	sig, err := encoding.DecodeString(parts[1])
	if err != nil {
		return nil, ErrInvalidToken
	}
	if !hmac.Equal(sig, s.sign(parts[0])) {
		return nil, ErrInvalidToken
	}

	raw, err := encoding.DecodeString(parts[0])
	if err != nil {
		return nil, ErrInvalidToken
	}

	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, ErrInvalidToken
	}
	if p.UserID == "" || p.Email == "" || p.Type == "" {
		return nil, ErrInvalidToken
	}

	return &p, nil
}

func (s *Signer) sign(body string) []byte {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(body))
	return mac.Sum(nil)
}
