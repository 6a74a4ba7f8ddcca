package tokenstore

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Store persists a single plaintext access token in a file.
//
// SECURITY: the token grants access to the user's notifications.
//   - The file is created with 0600 permissions, its directory with 0700
//   - Token values are never logged, only the file path and token length
//
// An absent or empty file means no token has been stored yet.
type Store struct {
	mu   sync.Mutex
	path string
}

// New creates a Store backed by the file at path.
func New(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("token path is required")
	}
	return &Store{path: path}, nil
}

// Path returns the token file path.
func (s *Store) Path() string {
	return s.path
}

// Load returns the stored token with surrounding whitespace removed, or an
// empty string when no token is stored.
func (s *Store) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read token file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Save replaces the stored token.
func (s *Store) Save(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("refusing to store an empty token")
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open token file: %w", err)
	}
	if _, err := f.WriteString(token); err != nil {
		f.Close()
		return fmt.Errorf("failed to write token file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	// OpenFile keeps the mode of an existing file.
	if err := os.Chmod(s.path, 0o600); err != nil {
		return fmt.Errorf("failed to restrict token file permissions: %w", err)
	}

	// SECURITY AUDIT: Token stored
	slog.Info("SECURITY_AUDIT: access token stored",
		"event", "token_stored",
		"path", s.path,
		"token_length", len(token),
	)
	return nil
}

// Clear removes the stored token. Clearing an absent token is not an error.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("SECURITY_AUDIT: access token deletion failed",
			"event", "token_delete_failed",
			"path", s.path,
			"error", err.Error(),
		)
		return fmt.Errorf("failed to delete token file: %w", err)
	}

	slog.Info("SECURITY_AUDIT: access token deleted",
		"event", "token_deleted",
		"path", s.path,
	)
	return nil
}
