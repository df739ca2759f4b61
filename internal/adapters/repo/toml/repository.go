package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/bnema/bilibackup/internal/domain"
	"github.com/bnema/bilibackup/internal/ports"
)

const (
	AccountsPathKey = "accounts.path"

	accountsFileMode = 0o600
	accountsDirMode  = 0o700
	accountsFileName = "accounts.toml"
	tempFilePattern  = ".accounts-*.toml.tmp"
)

// Repository stores login profiles in a single TOML file. Writes go through a
// temp file and rename so readers never see a torn file.
type Repository struct {
	accountsPath string
	mu           *sync.RWMutex
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ ports.AccountRepository = (*Repository)(nil)

// NewRepository resolves accounts.path from cfg, defaulting to accounts.toml
// inside configDir.
func NewRepository(cfg *viper.Viper, configDir string) (*Repository, error) {
	if cfg == nil {
		cfg = viper.New()
	}
	cfg.SetDefault(AccountsPathKey, filepath.Join(configDir, accountsFileName))

	accountsPath := cfg.GetString(AccountsPathKey)
	if accountsPath == "" {
		return nil, errors.New("accounts path is empty")
	}
	absPath, err := filepath.Abs(accountsPath)
	if err != nil {
		return nil, fmt.Errorf("resolve accounts path: %w", err)
	}
	absPath = filepath.Clean(absPath)

	return &Repository{accountsPath: absPath, mu: lockForPath(absPath)}, nil
}

func (r *Repository) Path() string {
	return r.accountsPath
}

func (r *Repository) Save(ctx context.Context, account domain.Account) error {
	return r.update(ctx, func(file *fileSchema) error {
		encoded := toSchema(account)
		if i := file.indexOf(encoded.ID); i >= 0 {
			file.Accounts[i] = encoded
		} else {
			file.Accounts = append(file.Accounts, encoded)
		}
		return nil
	})
}

func (r *Repository) Delete(ctx context.Context, id domain.AccountID) error {
	return r.update(ctx, func(file *fileSchema) error {
		i := file.indexOf(string(id))
		if i < 0 {
			return domain.ErrAccountNotFound
		}
		file.Accounts = append(file.Accounts[:i], file.Accounts[i+1:]...)
		if file.Active == string(id) {
			file.Active = ""
		}
		return nil
	})
}

// SetActive selects the profile used by later commands. An empty id clears it.
func (r *Repository) SetActive(ctx context.Context, id domain.AccountID) error {
	return r.update(ctx, func(file *fileSchema) error {
		if id != "" && file.indexOf(string(id)) < 0 {
			return domain.ErrAccountNotFound
		}
		file.Active = string(id)
		return nil
	})
}

func (r *Repository) Active(ctx context.Context) (domain.Account, error) {
	file, err := r.read(ctx)
	if err != nil {
		return domain.Account{}, err
	}
	if file.Active == "" {
		return domain.Account{}, domain.ErrAccountNotFound
	}

	i := file.indexOf(file.Active)
	if i < 0 {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	return fromSchema(file.Accounts[i]), nil
}

func (r *Repository) GetByID(ctx context.Context, id domain.AccountID) (domain.Account, error) {
	file, err := r.read(ctx)
	if err != nil {
		return domain.Account{}, err
	}

	i := file.indexOf(string(id))
	if i < 0 {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	return fromSchema(file.Accounts[i]), nil
}

func (r *Repository) List(ctx context.Context) ([]domain.Account, error) {
	file, err := r.read(ctx)
	if err != nil {
		return nil, err
	}

	accounts := make([]domain.Account, 0, len(file.Accounts))
	for _, entry := range file.Accounts {
		accounts = append(accounts, fromSchema(entry))
	}
	return accounts, nil
}

func (r *Repository) read(ctx context.Context) (fileSchema, error) {
	if err := ctx.Err(); err != nil {
		return fileSchema{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.readSchema()
}

func (r *Repository) update(ctx context.Context, mutate func(file *fileSchema) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}
	if err := mutate(&file); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	return r.writeSchema(file)
}

func (r *Repository) readSchema() (fileSchema, error) {
	data, err := os.ReadFile(r.accountsPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fileSchema{Version: currentSchemaVersion}, nil
		}
		return fileSchema{}, fmt.Errorf("read accounts file: %w", err)
	}

	var file fileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return fileSchema{}, fmt.Errorf("decode accounts file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return fileSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}

func (r *Repository) writeSchema(file fileSchema) error {
	file.applyDefaults()

	dir := filepath.Dir(r.accountsPath)
	if err := os.MkdirAll(dir, accountsDirMode); err != nil {
		return fmt.Errorf("create accounts directory: %w", err)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode accounts file: %w", err)
	}

	tempFile, err := os.CreateTemp(dir, tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp accounts file: %w", err)
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
		return fmt.Errorf("write temp accounts file: %w", err)
	}
	if err := tempFile.Chmod(accountsFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp accounts file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp accounts file: %w", err)
	}
	if err := os.Rename(tempName, r.accountsPath); err != nil {
		return fmt.Errorf("replace accounts file: %w", err)
	}
	committed = true

	return nil
}

func toSchema(account domain.Account) accountSchema {
	return accountSchema{
		ID:        string(account.ID),
		Name:      account.Name,
		SecretRef: account.SecretRef,
		LastLogin: formatTime(account.LastLogin),
	}
}

func fromSchema(account accountSchema) domain.Account {
	secretRef := account.SecretRef
	if secretRef == "" {
		secretRef = domain.SecretRefFor(domain.AccountID(account.ID))
	}

	return domain.Account{
		ID:        domain.AccountID(account.ID),
		Name:      account.Name,
		SecretRef: secretRef,
		LastLogin: parseTime(account.LastLogin),
	}
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}

	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}
	return parsed
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.UTC().Format(time.RFC3339)
}
