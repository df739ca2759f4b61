package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"

	"github.com/bnema/bilibackup/internal/adapters/bili"
	outcomeadapter "github.com/bnema/bilibackup/internal/adapters/render/outcome"
	"github.com/bnema/bilibackup/internal/adapters/repo/jsonfile"
	tomlrepo "github.com/bnema/bilibackup/internal/adapters/repo/toml"
	chainstore "github.com/bnema/bilibackup/internal/adapters/secrets/chain"
	filestore "github.com/bnema/bilibackup/internal/adapters/secrets/file"
	"github.com/bnema/bilibackup/internal/application"
	"github.com/bnema/bilibackup/internal/domain"
	"github.com/bnema/bilibackup/internal/platform/config"
	"github.com/bnema/bilibackup/internal/ports"
)

type app struct {
	configDir string
	service   *application.Service
	catalog   *application.Catalog
	groups    groupDirectory
	stderr    *syncWriter
	logLevel  *slog.LevelVar
	render    func(outcomeadapter.Report) (string, error)
}

// groupDirectory manages the follow groups of the logged-in account.
type groupDirectory interface {
	Groups(ctx context.Context) ([]domain.GroupTag, error)
	CreateGroup(ctx context.Context, name string) (domain.GroupTag, error)
}

// syncWriter serializes the log handler and the spinner, which both write to
// stderr from different goroutines.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

func (s *syncWriter) reset(w io.Writer) {
	s.mu.Lock()
	s.w = w
	s.mu.Unlock()
}

func wireApp() (*app, error) {
	configDir, err := config.Dir()
	if err != nil {
		return nil, fmt.Errorf("resolve config directory: %w", err)
	}

	v := viper.New()
	settings, err := config.Load(v, configDir, defaultTransport())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	repo, err := tomlrepo.NewRepository(v, configDir)
	if err != nil {
		return nil, fmt.Errorf("wire account repository: %w", err)
	}
	secretStore, err := newSecretStore(v, filepath.Join(configDir, "secrets"))
	if err != nil {
		return nil, err
	}

	stderr := &syncWriter{w: os.Stderr}
	level := new(slog.LevelVar)
	level.Set(slog.LevelWarn)
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	sessions := bili.NewSessionHolder()
	client := bili.NewClient(bili.Config{
		BaseURL:       settings.BaseURL,
		Concurrency:   settings.Concurrency,
		MaxAttempts:   settings.MaxAttempts,
		RetryInterval: settings.RetryInterval,
		Delay:         settings.Delay(),
		Timeout:       settings.Timeout,
	}, bili.WithSessions(sessions), bili.WithLogger(logger))

	snapshots := jsonfile.NewStore(filepath.Join(configDir, "locks"))
	clock := ports.SystemClock{}
	service := application.NewService(sessions, bili.NewNavigator(client), repo, secretStore, clock, logger)

	return &app{
		configDir: configDir,
		service:   service,
		catalog:   newCatalog(application.NewSyncer(sessions, client, logger), client, snapshots),
		groups:    bili.NewFollowing(client),
		stderr:    stderr,
		logLevel:  level,
		render:    outcomeadapter.Render,
	}, nil
}

func newCatalog(syncer *application.Syncer, client *bili.Client, snapshots ports.SnapshotStore) *application.Catalog {
	return application.NewCatalog(
		application.Bind[bili.Relation](syncer, snapshots, bili.NewFollowing(client)),
		application.Bind[bili.Relation](syncer, snapshots, bili.NewFollowers(client)),
		application.Bind[bili.User](syncer, snapshots, bili.NewBlacklist(client)),
		application.Bind[bili.Season](syncer, snapshots, bili.NewShowTracking(client, bili.SeasonAnime)),
		application.Bind[bili.Season](syncer, snapshots, bili.NewShowTracking(client, bili.SeasonDrama)),
		application.Bind[bili.ToView](syncer, snapshots, bili.NewWatchLater(client)),
		application.Bind[bili.History](syncer, snapshots, bili.NewWatchHistory(client)),
		application.BindContainers[bili.FolderBackup, bili.Media](syncer, snapshots, bili.NewFavorites(client)),
	)
}

func newSecretStore(v *viper.Viper, root string) (ports.SecretStore, error) {
	secrets, err := config.LoadSecrets(v)
	if err != nil {
		return nil, fmt.Errorf("load secrets config: %w", err)
	}
	if secrets.Backend == config.SecretsPass {
		store, err := chainstore.NewPassWithFileFallback(root)
		if err != nil {
			return nil, fmt.Errorf("wire secret store chain: %w", err)
		}
		return store, nil
	}
	return filestore.NewStore(root), nil
}

func defaultTransport() config.Transport {
	def := bili.DefaultConfig()
	return config.Transport{
		BaseURL:       def.BaseURL,
		Concurrency:   def.Concurrency,
		MaxAttempts:   def.MaxAttempts,
		RetryInterval: def.RetryInterval,
		DelayMin:      def.Delay.Min,
		DelayMax:      def.Delay.Max,
		Timeout:       def.Timeout,
	}
}

func (a *app) configureLogging(w io.Writer, verbose bool) {
	a.stderr.reset(w)
	if verbose {
		a.logLevel.Set(slog.LevelDebug)
	}
}

// session resumes the stored login before commands that talk to the API.
func (a *app) session(ctx context.Context) error {
	if _, err := a.service.Resume(ctx); err != nil {
		return fmt.Errorf("resume session (run `bbk login` first): %w", err)
	}
	return nil
}
