package application

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"

	"github.com/bnema/bilibackup/internal/domain"
	"github.com/bnema/bilibackup/internal/ports"
)

type Lister[T any] interface {
	Name() string
	List(ctx context.Context) ([]T, error)
}

type Restorer[T any] interface {
	Name() string
	Apply(ctx context.Context, item T) error
	Describe(item T) string
}

type Remover[T any] interface {
	Lister[T]
	Remove(ctx context.Context, item T) error
	Describe(item T) string
}

// Grouper is implemented by domains whose entities belong to named groups.
// Restore detects it and remaps group ids by name before applying items.
type Grouper[T any] interface {
	Groups(ctx context.Context) ([]domain.GroupTag, error)
	CreateGroup(ctx context.Context, name string) (domain.GroupTag, error)
	GroupsOf(item T) []domain.GroupTag
	Assign(ctx context.Context, item T, groupIDs []int64) error
}

// Syncer carries what every run shares: the session source, the pacer and the
// logger. The run functions are generic over the entity type and take it as
// their first collaborator.
type Syncer struct {
	sessions ports.SessionProvider
	pacer    ports.Pacer
	logger   *slog.Logger
	runID    func() string
}

func NewSyncer(sessions ports.SessionProvider, pacer ports.Pacer, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Syncer{
		sessions: sessions,
		pacer:    pacer,
		logger:   logger,
		runID:    uuid.NewString,
	}
}

// begin pins the current session into ctx so the whole run uses one credential
// even if the user logs out midway.
func (s *Syncer) begin(ctx context.Context, op string, name string) (context.Context, *slog.Logger, error) {
	session, ok := domain.SessionFrom(ctx)
	if !ok {
		session = s.sessions.Current()
		if session == nil || session.Credential.IsZero() {
			return ctx, nil, fmt.Errorf("%s %s: %w", op, name, domain.ErrNotLoggedIn)
		}
		ctx = domain.WithSession(ctx, session)
	}

	logger := s.logger.With(
		"run_id", s.runID(),
		"op", op,
		"domain", name,
		"account", string(session.Credential.AccountID),
	)
	return ctx, logger, nil
}

func (s *Syncer) pace(ctx context.Context, delay *domain.DelayRange) error {
	if delay != nil {
		return s.pacer.HumanizeWithin(ctx, *delay)
	}
	return s.pacer.Humanize(ctx)
}

func Backup[T any](ctx context.Context, s *Syncer, d Lister[T]) ([]T, error) {
	ctx, logger, err := s.begin(ctx, "backup", d.Name())
	if err != nil {
		return nil, err
	}

	logger.Info("backup started")
	items, err := d.List(ctx)
	if err != nil {
		logger.Error("backup failed", "error", err)
		return nil, fmt.Errorf("backup %s: %w", d.Name(), err)
	}
	logger.Info("backup finished", "items", len(items))
	return items, nil
}

// Restore applies items one at a time in chunks of opts.BatchSize. A failed item
// is recorded in the outcome; without ContinueOnError the run stops there and
// the partial outcome is returned with a nil error.
func Restore[T any](ctx context.Context, s *Syncer, d Restorer[T], items []T, opts domain.RestoreOptions) (domain.BatchOutcome, error) {
	outcome := domain.NewBatchOutcome(len(items))
	if err := opts.Validate(0); err != nil {
		return outcome, err
	}
	remover, clearable := any(d).(Remover[T])
	if opts.ClearExisting && !clearable {
		return outcome, domain.ParamError("%s cannot be cleared before restoring", d.Name())
	}
	ctx, logger, err := s.begin(ctx, "restore", d.Name())
	if err != nil {
		return outcome, err
	}

	report := func(state domain.RestoreState, batch int) {
		opts.Report(domain.Progress{
			Domain: d.Name(),
			State:  state,
			Batch:  batch,
			Done:   outcome.SuccessCount + outcome.FailedCount,
			Total:  outcome.TotalCount,
		})
	}
	report(domain.StateIdle, 0)
	logger.Info("restore started", "items", len(items), "batch_size", opts.BatchSize)

	if opts.ClearExisting {
		cleared, err := clearItems(ctx, s, remover, opts.Delay, logger)
		outcome.Cleared = cleared.SuccessCount
		if err != nil {
			return outcome, fmt.Errorf("restore %s: clear existing: %w", d.Name(), err)
		}
		if err := checkCleared(d.Name(), cleared, opts); err != nil {
			return outcome, err
		}
	}

	grouper, grouped := any(d).(Grouper[T])
	var mapping map[int64]int64
	if grouped {
		report(domain.StateMappingGroups, 0)
		var created []string
		mapping, created, err = mapGroups(ctx, s, grouper, items, !opts.SkipGroupCreation, opts.Delay, logger)
		if err != nil {
			return outcome, fmt.Errorf("restore %s: map groups: %w", d.Name(), err)
		}
		outcome.CreatedGroups = created
	}

	batch := 0
	for chunk := range slices.Chunk(items, opts.BatchSize) {
		batch++
		report(domain.StateApplyingBatch, batch)

		for _, item := range chunk {
			if err := d.Apply(ctx, item); err != nil {
				outcome.Fail(1, fmt.Sprintf("%s: %v", d.Describe(item), err))
				logger.Warn("restore item failed", "item", d.Describe(item), "error", err)
				if !opts.ContinueOnError {
					outcome.Aborted = true
					report(domain.StateAborted, batch)
					logger.Info("restore aborted", "success", outcome.SuccessCount, "failed", outcome.FailedCount)
					return outcome, nil
				}
			} else {
				outcome.Succeed(1)
				if grouped {
					assignGroups(ctx, grouper, item, mapping, d.Describe(item), logger)
				}
			}

			if err := s.pace(ctx, opts.Delay); err != nil {
				return outcome, err
			}
		}
	}

	report(domain.StateCompleted, batch)
	logger.Info("restore finished", "success", outcome.SuccessCount, "failed", outcome.FailedCount)
	return outcome, nil
}

// Clear removes every item currently on the account. It never stops early.
func Clear[T any](ctx context.Context, s *Syncer, d Remover[T]) (domain.BatchOutcome, error) {
	ctx, logger, err := s.begin(ctx, "clear", d.Name())
	if err != nil {
		return domain.NewBatchOutcome(0), err
	}

	outcome, err := clearItems(ctx, s, d, nil, logger)
	if err != nil {
		return outcome, fmt.Errorf("clear %s: %w", d.Name(), err)
	}
	return outcome, nil
}

func clearItems[T any](ctx context.Context, s *Syncer, d Remover[T], delay *domain.DelayRange, logger *slog.Logger) (domain.BatchOutcome, error) {
	items, err := d.List(ctx)
	if err != nil {
		return domain.NewBatchOutcome(0), err
	}

	outcome := domain.NewBatchOutcome(len(items))
	logger.Info("clear started", "items", len(items))
	for _, item := range items {
		if err := d.Remove(ctx, item); err != nil {
			outcome.Fail(1, fmt.Sprintf("%s: %v", d.Describe(item), err))
			logger.Warn("clear item failed", "item", d.Describe(item), "error", err)
		} else {
			outcome.Succeed(1)
		}

		if err := s.pace(ctx, delay); err != nil {
			return outcome, err
		}
	}

	logger.Info("clear finished", "success", outcome.SuccessCount, "failed", outcome.FailedCount)
	return outcome, nil
}

// checkCleared fails a restore whose destination could not be fully emptied,
// unless the run continues past failures.
func checkCleared(name string, cleared domain.BatchOutcome, opts domain.RestoreOptions) error {
	if cleared.FailedCount == 0 || opts.ContinueOnError {
		return nil
	}
	return fmt.Errorf("restore %s: clear existing: %d of %d items could not be removed: %s",
		name, cleared.FailedCount, cleared.TotalCount, cleared.FailedItems[0])
}
