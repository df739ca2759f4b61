package jsonfile

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/bnema/bilibackup/internal/domain"
	"github.com/bnema/bilibackup/internal/ports"
)

const (
	snapshotDirMode  = 0o700
	snapshotFileMode = 0o600
	lockSuffix       = ".lock"
	lockRetryDelay   = 50 * time.Millisecond
)

// Store writes snapshots as indented JSON. Every access holds an advisory
// lock, shared for Load and exclusive for Save. Lock files live in lockDir,
// named after the snapshot's absolute path, so snapshot directories only ever
// hold the snapshots themselves.
type Store struct {
	lockDir string
}

var _ ports.SnapshotStore = Store{}

func NewStore(lockDir string) Store {
	return Store{lockDir: lockDir}
}

func (s Store) lock(path string) (*flock.Flock, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve snapshot path %s: %w", domain.ErrIO, path, err)
	}
	if err := os.MkdirAll(s.lockDir, snapshotDirMode); err != nil {
		return nil, fmt.Errorf("%w: create lock directory: %w", domain.ErrIO, err)
	}
	sum := sha256.Sum256([]byte(abs))
	return flock.New(filepath.Join(s.lockDir, hex.EncodeToString(sum[:16])+lockSuffix)), nil
}

func (s Store) Save(ctx context.Context, path string, v any) error {
	if path == "" {
		return domain.ParamError("snapshot path is empty")
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode snapshot: %w", domain.ErrIO, err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, snapshotDirMode); err != nil {
		return fmt.Errorf("%w: create snapshot directory: %w", domain.ErrIO, err)
	}

	lock, err := s.lock(path)
	if err != nil {
		return err
	}
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("%w: lock snapshot %s: %w", domain.ErrIO, path, err)
	}
	if !locked {
		return fmt.Errorf("%w: snapshot %s is locked by another process", domain.ErrIO, path)
	}
	defer func() { _ = lock.Unlock() }()

	tempFile, err := os.CreateTemp(dir, ".snapshot-*.json.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp snapshot: %w", domain.ErrIO, err)
	}
	tempName := tempFile.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("%w: write temp snapshot: %w", domain.ErrIO, err)
	}
	if err := tempFile.Chmod(snapshotFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("%w: chmod temp snapshot: %w", domain.ErrIO, err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("%w: close temp snapshot: %w", domain.ErrIO, err)
	}
	if err := os.Rename(tempName, path); err != nil {
		return fmt.Errorf("%w: replace snapshot %s: %w", domain.ErrIO, path, err)
	}
	committed = true

	return nil
}

func (s Store) Load(ctx context.Context, path string, v any) error {
	if path == "" {
		return domain.ParamError("snapshot path is empty")
	}

	data, err := s.readLocked(ctx, path)
	if err != nil {
		return err
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return fmt.Errorf("%w: snapshot %s is empty", domain.ErrIO, path)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: decode snapshot %s: %w", domain.ErrIO, path, err)
	}
	return nil
}

func (s Store) readLocked(ctx context.Context, path string) ([]byte, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: snapshot %s does not exist", domain.ErrIO, path)
		}
		return nil, fmt.Errorf("%w: stat snapshot %s: %w", domain.ErrIO, path, err)
	}

	lock, err := s.lock(path)
	if err != nil {
		return nil, err
	}
	locked, err := lock.TryRLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("%w: lock snapshot %s: %w", domain.ErrIO, path, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: snapshot %s is locked by another process", domain.ErrIO, path)
	}
	defer func() { _ = lock.Unlock() }()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read snapshot %s: %w", domain.ErrIO, path, err)
	}
	return data, nil
}
