// Package session owns the caller identity attached to every API request.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/nhle/vanta/internal/api"
	"github.com/nhle/vanta/internal/credential"
	"github.com/nhle/vanta/internal/model"
)

// Persister stores the session between runs.
type Persister interface {
	LoadSession() (model.Session, error)
	SaveSession(model.Session) error
	ClearSession() error
}

// Authenticator issues identities.
type Authenticator interface {
	DevLogin(ctx context.Context, email string) (*model.Session, error)
}

// Manager holds the current session. It is safe for concurrent use; the
// background poller reads the identity from its own goroutines.
type Manager struct {
	mu      sync.RWMutex
	current model.Session

	store  Persister
	auth   Authenticator
	logger *zap.Logger
}

// NewManager creates a Manager with no active session.
func NewManager(store Persister, auth Authenticator, logger *zap.Logger) *Manager {
	return &Manager{store: store, auth: auth, logger: logger}
}

// Restore loads a previously stored session. It reports whether one was
// found.
func (m *Manager) Restore() (bool, error) {
	sess, err := m.store.LoadSession()
	if errors.Is(err, credential.ErrNoSession) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("restoring session: %w", err)
	}
	m.set(sess)
	m.logger.Debug("session restored", zap.String("user_id", sess.UserID))
	return true, nil
}

// SignIn exchanges an email for an identity and persists it.
func (m *Manager) SignIn(ctx context.Context, email string) (model.Session, error) {
	sess, err := m.auth.DevLogin(ctx, email)
	if err != nil {
		return model.Session{}, err
	}
	if err := m.store.SaveSession(*sess); err != nil {
		// The identity is still usable for this run.
		m.logger.Warn("persisting session failed", zap.Error(err))
	}
	m.set(*sess)
	m.logger.Info("signed in", zap.String("user_id", sess.UserID))
	return *sess, nil
}

// SignOut forgets the session locally and in the keyring.
func (m *Manager) SignOut() error {
	m.set(model.Session{})
	if err := m.store.ClearSession(); err != nil {
		return fmt.Errorf("signing out: %w", err)
	}
	return nil
}

// Current returns the active session, which may be empty.
func (m *Manager) Current() model.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// SignedIn reports whether an identity is active.
func (m *Manager) SignedIn() bool {
	return m.Current().Valid()
}

// Options returns request options carrying the current identity.
func (m *Manager) Options() api.RequestOptions {
	return api.RequestOptions{Identity: m.Current().UserID}
}

func (m *Manager) set(sess model.Session) {
	m.mu.Lock()
	m.current = sess
	m.mu.Unlock()
}
