package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/nowestinterior/backend/pkg"

	log "github.com/sirupsen/logrus"
)

const DefaultTTL = 24 * 7 * time.Hour

const sessionTokenLength = 35

// Manager is the policy layer above the session Store: it owns the token
// format and the expiry semantics.
type Manager struct {
	store Store
	ttl   time.Duration
	// ability to inject random string generator func for tokens (for unit and dev testing)
	RandStringFunc func(s int) (string, error)
}

func NewManager(store Store, ttl time.Duration) *Manager {
	return &Manager{
		store:          store,
		ttl:            ttl,
		RandStringFunc: pkg.GenerateRandomString,
	}
}

// CreateSession issues a new token for the given admin and stores it.
// Collisions are not handled beyond the generator's negligible collision
// probability.
func (m *Manager) CreateSession(ctx context.Context, adminID int) (string, error) {
	token, err := m.RandStringFunc(sessionTokenLength)
	if err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}

	if err := m.store.Put(ctx, Session{
		Token:     token,
		AdminID:   adminID,
		CreatedAt: time.Now(),
	}); err != nil {
		return "", err
	}

	return token, nil
}

// SessionAdminID resolves a token to its admin id. Absent and expired
// tokens both yield found == false - routine outcomes, never errors.
// Expired entries are deleted on the spot (lazy expiry).
func (m *Manager) SessionAdminID(ctx context.Context, token string) (adminID int, found bool, err error) {
	session, ok, err := m.store.Get(ctx, token)
	if err != nil {
		return 0, false, err
	}
	if !ok {
		return 0, false, nil
	}

	if time.Since(session.CreatedAt) > m.ttl {
		if err := m.store.Delete(ctx, token); err != nil {
			log.Errorf("session manager, delete expired session: %s", err)
		}
		return 0, false, nil
	}

	return session.AdminID, true, nil
}

// DeleteSession removes the session; deleting an unknown token is a no-op.
func (m *Manager) DeleteSession(ctx context.Context, token string) error {
	return m.store.Delete(ctx, token)
}

// ScanAndClean will run through all sessions, check the TTL, and remove the
// old ones. Returns the number of sessions removed.
func (m *Manager) ScanAndClean(ctx context.Context) int {
	sessionTokens, err := m.store.Tokens(ctx)
	if err != nil {
		log.Errorf("session manager, scan and clean, get tokens: %s", err)
		return 0
	}
	if len(sessionTokens) == 0 {
		return 0
	}

	log.Debugf("session manager, scan and clean [%d sessions] start ...", len(sessionTokens))
	var toRemove []string
	for _, token := range sessionTokens {
		session, ok, err := m.store.Get(ctx, token)
		if err != nil {
			log.Errorf("session manager, scan and clean, get session: %s", err)
			continue
		}
		if !ok {
			// key gone but still indexed (e.g. redis TTL fired), clean the index
			toRemove = append(toRemove, token)
			continue
		}
		if time.Since(session.CreatedAt) > m.ttl {
			toRemove = append(toRemove, token)
		}
	}

	removed := 0
	for _, token := range toRemove {
		if err := m.store.Delete(ctx, token); err != nil {
			log.Errorf("session manager, clean session: %s", err)
			continue
		}
		removed++
	}

	if removed > 0 {
		log.Debugf("session manager, scan and clean done, removed %d sessions", removed)
	}
	return removed
}
