package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bnema/bilibackup/internal/domain"
	"github.com/bnema/bilibackup/internal/ports"
)

const (
	storeDirMode  = 0o700
	secretFileMod = 0o600
)

// Store keeps each cookie in its own 0600 file below root. A reference such
// as bili://42/cookie maps to <root>/bili/42/cookie.
type Store struct {
	root string
	mu   sync.RWMutex
}

var _ ports.SecretStore = (*Store)(nil)

func NewStore(root string) *Store {
	return &Store{root: filepath.Clean(root)}
}

func (s *Store) Put(ctx context.Context, key string, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := s.pathForKey(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), storeDirMode); err != nil {
		return fmt.Errorf("%w: create secret directory: %w", domain.ErrIO, err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(path), ".secret-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp secret %q: %w", domain.ErrIO, key, err)
	}
	tempName := tempFile.Name()
	defer func() { _ = os.Remove(tempName) }()

	if _, err := tempFile.WriteString(value); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("%w: write secret %q: %w", domain.ErrIO, key, err)
	}
	if err := tempFile.Chmod(secretFileMod); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("%w: chmod secret %q: %w", domain.ErrIO, key, err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("%w: close secret %q: %w", domain.ErrIO, key, err)
	}
	if err := os.Rename(tempName, path); err != nil {
		return fmt.Errorf("%w: replace secret %q: %w", domain.ErrIO, key, err)
	}

	return nil
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path, err := s.pathForKey(key)
	if err != nil {
		return "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %q", domain.ErrSecretNotFound, key)
		}
		return "", fmt.Errorf("%w: read secret %q: %w", domain.ErrIO, key, err)
	}

	return strings.TrimSpace(string(data)), nil
}

// Delete is idempotent.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := s.pathForKey(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err = os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: delete secret %q: %w", domain.ErrIO, key, err)
	}

	return nil
}

func (s *Store) pathForKey(key string) (string, error) {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return "", domain.ParamError("secret key is empty")
	}
	if scheme, rest, ok := strings.Cut(trimmed, "://"); ok {
		trimmed = scheme + "/" + rest
	}

	cleaned := filepath.Clean(trimmed)
	if filepath.IsAbs(cleaned) || strings.HasPrefix(cleaned, "..") || cleaned == "." {
		return "", domain.ParamError("invalid secret key %q", key)
	}

	return filepath.Join(s.root, cleaned), nil
}
