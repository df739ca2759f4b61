// Package chain keeps login cookies in pass when it works and in plain files
// when it does not.
package chain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	filestore "github.com/bnema/bilibackup/internal/adapters/secrets/file"
	passstore "github.com/bnema/bilibackup/internal/adapters/secrets/pass"
	"github.com/bnema/bilibackup/internal/domain"
	"github.com/bnema/bilibackup/internal/ports"
)

var errMissingBackend = errors.New("cookie store needs a preferred and a spare backend")

// Store writes cookies to the preferred backend and only uses the spare one
// when the preferred backend fails. A cookie saved in the preferred backend
// evicts the spare copy, so a later fallback read never resurrects an older
// login.
type Store struct {
	preferred ports.SecretStore
	spare     ports.SecretStore
}

var _ ports.SecretStore = (*Store)(nil)

func New(preferred ports.SecretStore, spare ports.SecretStore) (*Store, error) {
	if preferred == nil || spare == nil {
		return nil, errMissingBackend
	}
	return &Store{preferred: preferred, spare: spare}, nil
}

// NewPassWithFileFallback stores cookies in pass and falls back to files
// under root.
func NewPassWithFileFallback(root string) (*Store, error) {
	return New(passstore.NewStore(), filestore.NewStore(root))
}

func (s *Store) Put(ctx context.Context, ref string, cookie string) error {
	err := s.preferred.Put(ctx, ref, cookie)
	if err == nil {
		if delErr := s.spare.Delete(ctx, ref); delErr != nil && !gaveUp(delErr) {
			return fmt.Errorf("evict spare cookie %s: %w", ref, delErr)
		}
		return nil
	}
	if gaveUp(err) {
		return err
	}

	if spareErr := s.spare.Put(ctx, ref, cookie); spareErr != nil {
		return fmt.Errorf("store cookie %s: %w", ref, errors.Join(err, spareErr))
	}
	return nil
}

// Get returns the first non-empty cookie. An empty value counts as missing.
func (s *Store) Get(ctx context.Context, ref string) (string, error) {
	cookie, err := read(ctx, s.preferred, ref)
	if err == nil || gaveUp(err) {
		return cookie, err
	}

	cookie, spareErr := read(ctx, s.spare, ref)
	if spareErr != nil {
		return "", fmt.Errorf("load cookie %s: %w", ref, errors.Join(err, spareErr))
	}
	return cookie, nil
}

// Delete removes the cookie from both backends. A preferred-backend failure is
// tolerated when the spare copy is gone.
func (s *Store) Delete(ctx context.Context, ref string) error {
	err := s.preferred.Delete(ctx, ref)
	if gaveUp(err) {
		return err
	}

	if spareErr := s.spare.Delete(ctx, ref); spareErr != nil {
		return fmt.Errorf("delete cookie %s: %w", ref, errors.Join(err, spareErr))
	}
	return nil
}

func read(ctx context.Context, store ports.SecretStore, ref string) (string, error) {
	cookie, err := store.Get(ctx, ref)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(cookie) == "" {
		return "", domain.ErrSecretNotFound
	}
	return cookie, nil
}

func gaveUp(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
