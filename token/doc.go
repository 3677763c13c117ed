// Package token issues and verifies signed, self-contained tokens for
// out-of-band account actions (password recovery and invitations).
//
// Token Format:
//
//	<base64url(json payload)>.<base64url(hmac-sha256(encoded payload))>
//
// Both parts use unpadded URL-safe base64, so a token can be placed in a query
// string as-is. The MAC is computed over the encoded payload string, never over
// a re-serialisation of the decoded payload.
//
// Tokens carry no expiry. A token stays cryptographically valid until the
// secret is rotated; single use is enforced by the caller, which compares
// Payload.Nonce with the account's current credential marker and treats a
// mismatch as a consumed token.
//
// Security:
//
//   - HMAC-SHA256 with a server-held secret
//   - Constant-time signature comparison
//   - Every malformed or forged input yields ErrInvalidToken, nothing more
package token
