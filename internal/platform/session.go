package platform

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ersinak/upload-dispatcher/internal/domain"
)

// SessionStore persists platform session state (login cookies, oauth tokens)
// between runs, one JSON file per service. Saving is best-effort from the
// caller's perspective: a failed save must never fail the publish that
// produced the session.
type SessionStore struct {
	dir string
}

func NewSessionStore(dir string) *SessionStore {
	return &SessionStore{dir: dir}
}

func (s *SessionStore) path(service domain.Service) string {
	return filepath.Join(s.dir, service.String()+".json")
}

// Load unmarshals the persisted session for a service into v. It returns
// false with a nil error when no session has been persisted yet.
func (s *SessionStore) Load(service domain.Service, v any) (bool, error) {
	data, err := os.ReadFile(s.path(service))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s session: %w", service, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to decode %s session: %w", service, err)
	}
	return true, nil
}

// Save persists the session for a service, creating the session directory on
// first use.
func (s *SessionStore) Save(service domain.Service, v any) error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s session: %w", service, err)
	}

	if err := os.WriteFile(s.path(service), data, 0600); err != nil {
		return fmt.Errorf("failed to write %s session: %w", service, err)
	}
	return nil
}
