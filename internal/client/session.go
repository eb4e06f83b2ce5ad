package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const sessionFileName = "session.json"

// Session is the client-side identity token: the opaque account id, the email
// it was registered under, and the bearer token for remote calls. Passwords
// are never held after authentication.
type Session struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Token string `json:"token"`
}

// SessionStore persists the active session as a JSON file in the studio
// directory so a writer stays signed in across runs.
type SessionStore struct {
	dir string
}

// NewSessionStore returns a store rooted at the given directory.
func NewSessionStore(dir string) *SessionStore {
	return &SessionStore{dir: dir}
}

func (s *SessionStore) path() string {
	return filepath.Join(s.dir, sessionFileName)
}

// Save writes the session to disk, creating the studio directory if needed.
func (s *SessionStore) Save(session Session) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("client: create studio dir: %w", err)
	}
	encoded, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("client: encode session: %w", err)
	}
	if err := os.WriteFile(s.path(), encoded, 0o600); err != nil {
		return fmt.Errorf("client: write session: %w", err)
	}
	return nil
}

// Load reads the persisted session. A missing file yields ErrNoSession.
func (s *SessionStore) Load() (Session, error) {
	raw, err := os.ReadFile(s.path())
	if errors.Is(err, fs.ErrNotExist) {
		return Session{}, ErrNoSession
	}
	if err != nil {
		return Session{}, fmt.Errorf("client: read session: %w", err)
	}
	var session Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return Session{}, fmt.Errorf("client: decode session: %w", err)
	}
	if session.ID == "" {
		return Session{}, ErrNoSession
	}
	return session, nil
}

// Clear removes the persisted session. Clearing an absent session is not an
// error.
func (s *SessionStore) Clear() error {
	err := os.Remove(s.path())
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("client: clear session: %w", err)
	}
	return nil
}
