// Package identity carries the per-request caller identity: either a
// registered user id or an anonymous session token plus a hashed origin IP.
// Handlers build it once from middleware state and thread it explicitly into
// every core call; the core never reads ambient request state.
package identity

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/google/uuid"
)

type Identity struct {
	UserID     int
	Registered bool
	Admin      bool

	// Anonymous half; set for every request so that anonymous
	// authorship and flag deduplication work without an account.
	SessionToken string
	IPHash       string
}

// HashIP normalizes an origin IP into the stored form. Raw addresses are
// never persisted.
func HashIP(ip string) string {
	sum := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(sum[:])
}

// NewSessionToken mints an opaque anonymous session token.
func NewSessionToken() string {
	return uuid.NewString()
}
