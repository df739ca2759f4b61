package toml

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/bilibackup/internal/domain"
)

func newTestRepository(t *testing.T, accountsPath string) *Repository {
	t.Helper()

	config := viper.New()
	config.Set(AccountsPathKey, accountsPath)

	repo, err := NewRepository(config, t.TempDir())
	require.NoError(t, err)
	return repo
}

func TestRepositoryRoundTrip(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t, filepath.Join(t.TempDir(), "accounts.toml"))
	loginAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	first := domain.Account{ID: "42", Name: "main", SecretRef: "bili://42/cookie", LastLogin: loginAt}
	second := domain.Account{ID: "43", Name: "alt", SecretRef: "bili://43/cookie"}

	require.NoError(t, repo.Save(context.Background(), first))
	require.NoError(t, repo.Save(context.Background(), second))

	got, err := repo.GetByID(context.Background(), first.ID)
	require.NoError(t, err)
	assert.Equal(t, first, got)

	accounts, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []domain.Account{first, second}, accounts)

	first.Name = "renamed"
	require.NoError(t, repo.Save(context.Background(), first))
	accounts, err = repo.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, accounts, 2)
}

func TestRepositoryActiveAccount(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t, filepath.Join(t.TempDir(), "accounts.toml"))
	ctx := context.Background()

	_, err := repo.Active(ctx)
	require.ErrorIs(t, err, domain.ErrAccountNotFound)

	require.ErrorIs(t, repo.SetActive(ctx, "42"), domain.ErrAccountNotFound)

	account := domain.Account{ID: "42", Name: "main", SecretRef: "bili://42/cookie"}
	require.NoError(t, repo.Save(ctx, account))
	require.NoError(t, repo.SetActive(ctx, "42"))

	active, err := repo.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, account, active)

	require.NoError(t, repo.SetActive(ctx, ""))
	_, err = repo.Active(ctx)
	require.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestRepositoryDeleteClearsActive(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t, filepath.Join(t.TempDir(), "accounts.toml"))
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, domain.Account{ID: "42", Name: "main"}))
	require.NoError(t, repo.SetActive(ctx, "42"))
	require.NoError(t, repo.Delete(ctx, "42"))

	_, err := repo.Active(ctx)
	require.ErrorIs(t, err, domain.ErrAccountNotFound)
	require.ErrorIs(t, repo.Delete(ctx, "42"), domain.ErrAccountNotFound)
}

func TestRepositoryFillsMissingSecretRef(t *testing.T) {
	t.Parallel()

	accountsPath := filepath.Join(t.TempDir(), "accounts.toml")
	require.NoError(t, os.WriteFile(accountsPath, []byte(strings.Join([]string{
		"version = 1",
		"active = \"42\"",
		"",
		"[[accounts]]",
		"id = \"42\"",
		"name = \"main\"",
		"",
	}, "\n")), 0o600))

	repo := newTestRepository(t, accountsPath)

	account, err := repo.Active(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "bili://42/cookie", account.SecretRef)
	assert.True(t, account.LastLogin.IsZero())
}

func TestRepositorySaveCreatesDefaultPathAndEnforcesPermissions(t *testing.T) {
	t.Parallel()

	configDir := filepath.Join(t.TempDir(), "bbk")
	repo, err := NewRepository(viper.New(), configDir)
	require.NoError(t, err)

	require.NoError(t, repo.Save(context.Background(), domain.Account{ID: "42", Name: "main"}))

	info, err := os.Stat(filepath.Join(configDir, "accounts.toml"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	dirInfo, err := os.Stat(configDir)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), dirInfo.Mode().Perm())
}

func TestRepositoryMissingFileBehaviors(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t, filepath.Join(t.TempDir(), "missing", "accounts.toml"))

	accounts, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, accounts)

	_, err = repo.GetByID(context.Background(), "42")
	require.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestRepositoryRejectsNewerSchema(t *testing.T) {
	t.Parallel()

	accountsPath := filepath.Join(t.TempDir(), "accounts.toml")
	require.NoError(t, os.WriteFile(accountsPath, []byte("version = 9\n"), 0o600))

	_, err := newTestRepository(t, accountsPath).List(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "unsupported accounts schema version 9")
}

func TestRepositoryListMalformedTOMLReturnsError(t *testing.T) {
	t.Parallel()

	accountsPath := filepath.Join(t.TempDir(), "accounts.toml")
	require.NoError(t, os.WriteFile(accountsPath, []byte("accounts = ["), 0o600))

	_, err := newTestRepository(t, accountsPath).List(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "decode accounts file")
}

func TestRepositorySaveCanceledContextReturnsContextError(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t, filepath.Join(t.TempDir(), "accounts.toml"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := repo.Save(ctx, domain.Account{ID: "42"})
	require.ErrorIs(t, err, context.Canceled)
}

func TestRepositoryConcurrentSavesKeepEveryAccount(t *testing.T) {
	t.Parallel()

	accountsPath := filepath.Join(t.TempDir(), "accounts.toml")
	first := newTestRepository(t, accountsPath)
	second := newTestRepository(t, accountsPath)

	var wg sync.WaitGroup
	for i := range 20 {
		repo := first
		if i%2 == 1 {
			repo = second
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := domain.AccountID(strconv.Itoa(i))
			assert.NoError(t, repo.Save(context.Background(), domain.Account{ID: id, Name: "n" + string(id)}))
		}()
	}
	wg.Wait()

	accounts, err := first.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, accounts, 20)
}
