package auth

import (
	"context"
	"time"
)

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "session_id"

// Session is a single login session. Sessions are ephemeral: they are
// created at login, destroyed at logout or expiry, and never mutated.
type Session struct {
	Token     string
	AdminID   int
	CreatedAt time.Time
}

// Store holds the authoritative mapping of active session tokens. It is a
// dumb container - expiry is enforced by the Manager, not here.
type Store interface {
	// Put inserts or overwrites the session for its token.
	Put(ctx context.Context, session Session) error
	// Get returns the session for the token, or found == false when absent.
	Get(ctx context.Context, token string) (s Session, found bool, err error)
	// Delete removes the session if present. No error when absent.
	Delete(ctx context.Context, token string) error
	// Tokens lists all stored tokens. Diagnostics and cleanup sweep only,
	// never on the request path.
	Tokens(ctx context.Context) ([]string, error)
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*RedisStore)(nil)
)
