package postify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"
)

// SessionKey is the durable-store key holding the logged-in user.
const SessionKey = "user"

// SessionStore holds the authenticated identity and persists it so a
// restarted process resumes the session. Logout is a composite reset: the
// identity is cleared first, then every registered hook runs in order.
type SessionStore struct {
	mu       sync.RWMutex
	current  *User
	kv       KeyValueStore
	enc      Encryptor
	logger   Logger
	onLogout []func()
}

// NewSessionStore creates a SessionStore backed by kv. enc may be nil, in
// which case the record is stored in plaintext.
func NewSessionStore(kv KeyValueStore, enc Encryptor, logger Logger) *SessionStore {
	return &SessionStore{
		kv:     kv,
		enc:    enc,
		logger: logger,
	}
}

// OnLogout registers fn to run during Logout, after the identity is cleared.
// Hooks run in registration order.
func (s *SessionStore) OnLogout(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onLogout = append(s.onLogout, fn)
}

// Login stores user as the current identity and writes it to the durable
// store. The in-memory session is set even if the durable write fails.
func (s *SessionStore) Login(user User) error {
	u := user
	s.mu.Lock()
	s.current = &u
	s.mu.Unlock()

	record, err := s.seal(u)
	if err != nil {
		return fmt.Errorf("sealing session: %w", err)
	}
	if err := s.kv.Put(SessionKey, record); err != nil {
		return fmt.Errorf("persisting session: %w", err)
	}

	s.logger.Info("session started", "user", u.Username)
	return nil
}

// Logout clears the identity in memory and in the durable store, then runs
// the logout hooks. A durable delete failure is logged; the logout still
// completes so no authenticated state survives in this process.
func (s *SessionStore) Logout() {
	s.mu.Lock()
	prev := s.current
	s.current = nil
	hooks := append([]func(){}, s.onLogout...)
	s.mu.Unlock()

	if err := s.kv.Delete(SessionKey); err != nil {
		s.logger.Error("removing persisted session", "error", err)
	}

	for _, fn := range hooks {
		fn()
	}

	if prev != nil {
		s.logger.Info("session ended", "user", prev.Username)
	}
}

// Current returns a copy of the logged-in user, or nil.
func (s *SessionStore) Current() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	u := *s.current
	return &u
}

// Restore loads the persisted session, if any, and makes it current.
// A record that cannot be read back is discarded and treated as absent.
func (s *SessionStore) Restore() (*User, error) {
	record, ok, err := s.kv.Get(SessionKey)
	if err != nil {
		return nil, fmt.Errorf("reading persisted session: %w", err)
	}
	if !ok {
		return nil, nil
	}

	u, err := s.open(record)
	if err != nil {
		s.logger.Warn("discarding unreadable session", "error", err)
		if err := s.kv.Delete(SessionKey); err != nil {
			s.logger.Error("removing unreadable session", "error", err)
		}
		return nil, nil
	}

	s.mu.Lock()
	s.current = u
	s.mu.Unlock()

	s.logger.Debug("session restored", "user", u.Username)
	return s.Current(), nil
}

func (s *SessionStore) seal(u User) ([]byte, error) {
	plain, err := json.Marshal(u)
	if err != nil {
		return nil, err
	}
	if s.enc == nil {
		return plain, nil
	}
	var buf bytes.Buffer
	if err := s.enc.Encrypt(bytes.NewReader(plain), &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *SessionStore) open(record []byte) (*User, error) {
	plain := record
	if s.enc != nil {
		var buf bytes.Buffer
		if err := s.enc.Decrypt(bytes.NewReader(record), &buf); err != nil {
			return nil, fmt.Errorf("decrypting session: %w", err)
		}
		plain = buf.Bytes()
	}

	var u User
	if err := json.Unmarshal(plain, &u); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	if u.ID == "" {
		return nil, fmt.Errorf("session record has no user id")
	}
	return &u, nil
}
