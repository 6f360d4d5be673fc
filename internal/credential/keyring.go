package credential

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/99designs/keyring"

	"github.com/nhle/vanta/internal/model"
)

const (
	serviceName = "vanta"
	sessionKey  = "session"
)

// ErrNoSession is returned when no session has been stored.
var ErrNoSession = errors.New("no stored session")

// Store persists the signed-in session in the system keyring.
type Store struct {
	ring keyring.Keyring
}

// Open returns a Store backed by the system keyring, falling back to an
// encrypted file under dir.
func Open(dir string) (*Store, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  filepath.Join(dir, "credentials"),
		FilePasswordFunc:         keyring.FixedStringPrompt("vanta-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return &Store{ring: ring}, nil
}

// NewStore wraps an already opened keyring.
func NewStore(ring keyring.Keyring) *Store {
	return &Store{ring: ring}
}

// LoadSession returns the stored session, or ErrNoSession.
func (s *Store) LoadSession() (model.Session, error) {
	item, err := s.ring.Get(sessionKey)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return model.Session{}, ErrNoSession
	}
	if err != nil {
		return model.Session{}, fmt.Errorf("getting credential %q: %w", sessionKey, err)
	}

	var sess model.Session
	if err := json.Unmarshal(item.Data, &sess); err != nil {
		return model.Session{}, fmt.Errorf("decoding credential %q: %w", sessionKey, err)
	}
	if !sess.Valid() {
		return model.Session{}, ErrNoSession
	}
	return sess, nil
}

// SaveSession stores the session, replacing any previous one.
func (s *Store) SaveSession(sess model.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encoding credential %q: %w", sessionKey, err)
	}
	err = s.ring.Set(keyring.Item{
		Key:   sessionKey,
		Data:  data,
		Label: "Vanta session",
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", sessionKey, err)
	}
	return nil
}

// ClearSession removes the stored session. Clearing an absent session is
// not an error.
func (s *Store) ClearSession() error {
	err := s.ring.Remove(sessionKey)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("deleting credential %q: %w", sessionKey, err)
	}
	return nil
}
