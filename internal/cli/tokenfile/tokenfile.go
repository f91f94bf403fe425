// Package tokenfile persists a CLI session as a JSON file.
package tokenfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/aussiebroadwan/quill/pkg/blogsdk"
)

// DefaultPath is $XDG_CONFIG_HOME/quill/tokens.json, or the platform
// equivalent.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config directory: %w", err)
	}
	return filepath.Join(dir, "quill", "tokens.json"), nil
}

// Store is a blogsdk.TokenStore backed by one file. A missing file is an
// empty session. Writes replace the file atomically.
type Store struct {
	Path string

	mu sync.Mutex
}

func New(path string) *Store {
	return &Store{Path: path}
}

func (s *Store) Load(_ context.Context) (blogsdk.Tokens, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return blogsdk.Tokens{}, nil
	}
	if err != nil {
		return blogsdk.Tokens{}, fmt.Errorf("failed to read token file: %w", err)
	}

	var t blogsdk.Tokens
	if err := json.Unmarshal(b, &t); err != nil {
		// A corrupt file is treated as logged out rather than a hard failure.
		return blogsdk.Tokens{}, nil
	}
	return t, nil
}

func (s *Store) Save(_ context.Context, t blogsdk.Tokens) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode tokens: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.Path), ".tokens-*.json")
	if err != nil {
		return fmt.Errorf("failed to create token file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write token file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write token file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		return fmt.Errorf("failed to replace token file: %w", err)
	}
	return nil
}

func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}
	return nil
}
