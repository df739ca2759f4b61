package application

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/bnema/bilibackup/internal/domain"
)

// ContainerDomain is a domain whose items live in capacity-bounded containers
// of type C. Items past a container's free capacity overflow into newly created
// siblings titled "<title> (<n>)".
type ContainerDomain[C any, T any] interface {
	Name() string
	ListContainers(ctx context.Context) ([]C, error)
	Spec(container C) domain.ContainerSpec
	Ref(container C) domain.ContainerRef
	Items(container C) []T
	Capacity(kind domain.ContainerKind) int
	// MaxBatch bounds RemoveItems.
	MaxBatch() int
	// Open resolves the destination for a source container's first part.
	Open(ctx context.Context, spec domain.ContainerSpec) (domain.ContainerRef, error)
	Create(ctx context.Context, spec domain.ContainerSpec) (domain.ContainerRef, error)
	AddItem(ctx context.Context, ref domain.ContainerRef, item T) error
	RemoveItems(ctx context.Context, ref domain.ContainerRef, items []T) error
	DescribeItem(item T) string
}

func BackupContainers[C any, T any](ctx context.Context, s *Syncer, d ContainerDomain[C, T]) ([]C, error) {
	ctx, logger, err := s.begin(ctx, "backup", d.Name())
	if err != nil {
		return nil, err
	}

	logger.Info("backup started")
	containers, err := d.ListContainers(ctx)
	if err != nil {
		logger.Error("backup failed", "error", err)
		return nil, fmt.Errorf("backup %s: %w", d.Name(), err)
	}
	logger.Info("backup finished", "containers", len(containers), "items", countItems(d, containers))
	return containers, nil
}

func RestoreContainers[C any, T any](
	ctx context.Context,
	s *Syncer,
	d ContainerDomain[C, T],
	containers []C,
	opts domain.RestoreOptions,
) (domain.BatchOutcome, error) {
	outcome := domain.NewBatchOutcome(countItems(d, containers))
	if err := opts.Validate(0); err != nil {
		return outcome, err
	}
	userCapacity := d.Capacity(domain.ContainerUser)
	if userCapacity < 1 {
		return outcome, domain.ParamError("%s: container capacity must be positive", d.Name())
	}
	ctx, logger, err := s.begin(ctx, "restore", d.Name())
	if err != nil {
		return outcome, err
	}

	batch := 0
	report := func(state domain.RestoreState) {
		opts.Report(domain.Progress{
			Domain: d.Name(),
			State:  state,
			Batch:  batch,
			Done:   outcome.SuccessCount + outcome.FailedCount,
			Total:  outcome.TotalCount,
		})
	}
	abort := func() (domain.BatchOutcome, error) {
		outcome.Aborted = true
		report(domain.StateAborted)
		logger.Info("restore aborted", "success", outcome.SuccessCount, "failed", outcome.FailedCount)
		return outcome, nil
	}
	report(domain.StateIdle)
	logger.Info("restore started", "containers", len(containers), "items", outcome.TotalCount)

	if opts.ClearExisting {
		cleared, err := clearContainers(ctx, s, d, opts.Delay, logger)
		outcome.Cleared = cleared.SuccessCount
		if err != nil {
			return outcome, fmt.Errorf("restore %s: clear existing: %w", d.Name(), err)
		}
		if err := checkCleared(d.Name(), cleared, opts); err != nil {
			return outcome, err
		}
	}

	for _, container := range containers {
		spec := d.Spec(container)
		remaining := d.Items(container)

		for part := 1; part == 1 || len(remaining) > 0; part++ {
			target := spec
			var ref domain.ContainerRef
			var err error
			if part == 1 {
				ref, err = d.Open(ctx, target)
			} else {
				target.Title = fmt.Sprintf("%s (%d)", spec.Title, part)
				target.Kind = domain.ContainerUser
				ref, err = d.Create(ctx, target)
			}
			if err != nil {
				// Without its first part the whole container is lost; a missing
				// overflow sibling only loses its own share.
				lost := len(remaining)
				if part > 1 {
					lost = min(lost, userCapacity)
				}
				logger.Warn("open container failed", "container", target.Title, "error", err)
				if lost > 0 {
					outcome.Fail(lost, fmt.Sprintf("container %q (%d items): %v", target.Title, lost, err))
				}
				remaining = remaining[lost:]
				if !opts.ContinueOnError {
					return abort()
				}
				if part == 1 {
					break
				}
				continue
			}
			outcome.Containers = append(outcome.Containers, ref.Title)

			free := max(d.Capacity(ref.Kind)-ref.Used, 0)
			if free == 0 && part > 1 {
				outcome.Fail(len(remaining), fmt.Sprintf("container %q has no free capacity", ref.Title))
				remaining = nil
				if !opts.ContinueOnError {
					return abort()
				}
				break
			}
			chunk := remaining[:min(free, len(remaining))]
			remaining = remaining[len(chunk):]
			logger.Debug("container opened", "container", ref.Title, "free", free, "placing", len(chunk))

			if err := s.pace(ctx, opts.Delay); err != nil {
				return outcome, err
			}

			for items := range slices.Chunk(chunk, opts.BatchSize) {
				batch++
				report(domain.StateApplyingBatch)

				for _, item := range items {
					if err := d.AddItem(ctx, ref, item); err != nil {
						outcome.Fail(1, fmt.Sprintf("%s: %v", d.DescribeItem(item), err))
						logger.Warn("restore item failed", "item", d.DescribeItem(item), "container", ref.Title, "error", err)
						if !opts.ContinueOnError {
							return abort()
						}
					} else {
						outcome.Succeed(1)
					}

					if err := s.pace(ctx, opts.Delay); err != nil {
						return outcome, err
					}
				}
			}
		}
	}

	report(domain.StateCompleted)
	logger.Info("restore finished", "success", outcome.SuccessCount, "failed", outcome.FailedCount)
	return outcome, nil
}

// ClearContainers empties every container in batches of at most MaxBatch items.
// Containers themselves are kept.
func ClearContainers[C any, T any](ctx context.Context, s *Syncer, d ContainerDomain[C, T]) (domain.BatchOutcome, error) {
	ctx, logger, err := s.begin(ctx, "clear", d.Name())
	if err != nil {
		return domain.NewBatchOutcome(0), err
	}

	outcome, err := clearContainers(ctx, s, d, nil, logger)
	if err != nil {
		return outcome, fmt.Errorf("clear %s: %w", d.Name(), err)
	}
	return outcome, nil
}

func clearContainers[C any, T any](
	ctx context.Context,
	s *Syncer,
	d ContainerDomain[C, T],
	delay *domain.DelayRange,
	logger *slog.Logger,
) (domain.BatchOutcome, error) {
	containers, err := d.ListContainers(ctx)
	if err != nil {
		return domain.NewBatchOutcome(0), err
	}

	outcome := domain.NewBatchOutcome(countItems(d, containers))
	size := max(d.MaxBatch(), 1)
	logger.Info("clear started", "containers", len(containers), "items", outcome.TotalCount)

	for _, container := range containers {
		ref := d.Ref(container)
		for items := range slices.Chunk(d.Items(container), size) {
			if err := d.RemoveItems(ctx, ref, items); err != nil {
				outcome.Fail(len(items), fmt.Sprintf("container %q (%d items): %v", ref.Title, len(items), err))
				logger.Warn("clear batch failed", "container", ref.Title, "items", len(items), "error", err)
			} else {
				outcome.Succeed(len(items))
			}

			if err := s.pace(ctx, delay); err != nil {
				return outcome, err
			}
		}
	}

	logger.Info("clear finished", "success", outcome.SuccessCount, "failed", outcome.FailedCount)
	return outcome, nil
}

func countItems[C any, T any](d ContainerDomain[C, T], containers []C) int {
	total := 0
	for _, c := range containers {
		total += len(d.Items(c))
	}
	return total
}
