package services

import (
	"crypto/rand"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

const (
	// VisitorCookieName is the anonymous visitor cookie.
	VisitorCookieName = "visitor_id"
	// VisitorCookieMaxAge is one year, in seconds.
	VisitorCookieMaxAge = 365 * 24 * 60 * 60
)

// ViewerIdentity is the dedup key of whoever triggered a view.
// Mint is set when Key is a fresh visitor token the caller must persist as a cookie.
type ViewerIdentity struct {
	Key           string
	Authenticated bool
	Mint          bool
}

// ResolveViewer prefers the authenticated user, then a well-formed visitor cookie,
// and otherwise mints a new visitor token. It has no side effects.
func ResolveViewer(userID, cookieValue string) ViewerIdentity {
	if id := strings.TrimSpace(userID); id != "" {
		return ViewerIdentity{Key: id, Authenticated: true}
	}
	if IsVisitorToken(cookieValue) {
		return ViewerIdentity{Key: cookieValue}
	}
	return ViewerIdentity{Key: NewVisitorToken(), Mint: true}
}

// NewVisitorToken returns 128 random bits as 32 lowercase hex characters.
func NewVisitorToken() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	return hex.EncodeToString(b[:])
}

// IsVisitorToken accepts tokens minted by NewVisitorToken and canonical UUID strings.
func IsVisitorToken(s string) bool {
	switch len(s) {
	case 32:
		for i := 0; i < len(s); i++ {
			c := s[i]
			if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
				return false
			}
		}
		return true
	case 36:
		_, err := uuid.Parse(s)
		return err == nil
	default:
		return false
	}
}
