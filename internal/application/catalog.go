package application

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/bnema/bilibackup/internal/domain"
	"github.com/bnema/bilibackup/internal/ports"
)

type Capabilities struct {
	Restore bool
	Clear   bool
}

// Job binds one domain to the snapshot store so it can be driven by name.
type Job interface {
	Name() string
	Capabilities() Capabilities
	Backup(ctx context.Context, path string) (int, error)
	Restore(ctx context.Context, path string, opts domain.RestoreOptions) (domain.BatchOutcome, error)
	Clear(ctx context.Context) (domain.BatchOutcome, error)
}

type entityJob[T any] struct {
	syncer *Syncer
	store  ports.SnapshotStore
	lister Lister[T]
}

func Bind[T any](s *Syncer, store ports.SnapshotStore, d Lister[T]) Job {
	return &entityJob[T]{syncer: s, store: store, lister: d}
}

func (j *entityJob[T]) Name() string {
	return j.lister.Name()
}

func (j *entityJob[T]) Capabilities() Capabilities {
	_, restore := any(j.lister).(Restorer[T])
	_, clearable := any(j.lister).(Remover[T])
	return Capabilities{Restore: restore, Clear: clearable}
}

func (j *entityJob[T]) Backup(ctx context.Context, path string) (int, error) {
	items, err := Backup(ctx, j.syncer, j.lister)
	if err != nil {
		return 0, err
	}
	if err := j.store.Save(ctx, path, items); err != nil {
		return 0, fmt.Errorf("save %s snapshot: %w", j.Name(), err)
	}
	return len(items), nil
}

func (j *entityJob[T]) Restore(ctx context.Context, path string, opts domain.RestoreOptions) (domain.BatchOutcome, error) {
	restorer, ok := any(j.lister).(Restorer[T])
	if !ok {
		return domain.NewBatchOutcome(0), fmt.Errorf("restore %s: %w", j.Name(), domain.ErrUnsupported)
	}

	var items []T
	if err := j.store.Load(ctx, path, &items); err != nil {
		return domain.NewBatchOutcome(0), fmt.Errorf("load %s snapshot: %w", j.Name(), err)
	}
	return Restore(ctx, j.syncer, restorer, items, opts)
}

func (j *entityJob[T]) Clear(ctx context.Context) (domain.BatchOutcome, error) {
	remover, ok := any(j.lister).(Remover[T])
	if !ok {
		return domain.NewBatchOutcome(0), fmt.Errorf("clear %s: %w", j.Name(), domain.ErrUnsupported)
	}
	return Clear(ctx, j.syncer, remover)
}

type containerJob[C any, T any] struct {
	syncer *Syncer
	store  ports.SnapshotStore
	source ContainerDomain[C, T]
}

func BindContainers[C any, T any](s *Syncer, store ports.SnapshotStore, d ContainerDomain[C, T]) Job {
	return &containerJob[C, T]{syncer: s, store: store, source: d}
}

func (j *containerJob[C, T]) Name() string {
	return j.source.Name()
}

func (j *containerJob[C, T]) Capabilities() Capabilities {
	return Capabilities{Restore: true, Clear: true}
}

func (j *containerJob[C, T]) Backup(ctx context.Context, path string) (int, error) {
	containers, err := BackupContainers(ctx, j.syncer, j.source)
	if err != nil {
		return 0, err
	}
	if err := j.store.Save(ctx, path, containers); err != nil {
		return 0, fmt.Errorf("save %s snapshot: %w", j.Name(), err)
	}
	return len(containers), nil
}

func (j *containerJob[C, T]) Restore(ctx context.Context, path string, opts domain.RestoreOptions) (domain.BatchOutcome, error) {
	var containers []C
	if err := j.store.Load(ctx, path, &containers); err != nil {
		return domain.NewBatchOutcome(0), fmt.Errorf("load %s snapshot: %w", j.Name(), err)
	}
	return RestoreContainers(ctx, j.syncer, j.source, containers, opts)
}

func (j *containerJob[C, T]) Clear(ctx context.Context) (domain.BatchOutcome, error) {
	return ClearContainers(ctx, j.syncer, j.source)
}

type Catalog struct {
	jobs   []Job
	byName map[string]Job
}

func NewCatalog(jobs ...Job) *Catalog {
	c := &Catalog{byName: make(map[string]Job, len(jobs))}
	for _, job := range jobs {
		c.jobs = append(c.jobs, job)
		c.byName[job.Name()] = job
	}
	return c
}

func (c *Catalog) Jobs() []Job {
	return c.jobs
}

func (c *Catalog) Job(name string) (Job, error) {
	job, ok := c.byName[name]
	if !ok {
		return nil, domain.ParamError("unknown domain %q", name)
	}
	return job, nil
}

// SnapshotPath is where BackupAll writes a domain's snapshot inside dir.
func SnapshotPath(dir string, name string) string {
	return filepath.Join(dir, name+".json")
}

// BackupAll backs up every domain concurrently. The transport's permit pool
// bounds how many requests are in flight across domains. The first failure
// cancels the rest.
func (c *Catalog) BackupAll(ctx context.Context, dir string) (map[string]int, error) {
	var mu sync.Mutex
	counts := make(map[string]int, len(c.jobs))

	g, gctx := errgroup.WithContext(ctx)
	for _, job := range c.jobs {
		g.Go(func() error {
			n, err := job.Backup(gctx, SnapshotPath(dir, job.Name()))
			if err != nil {
				return err
			}
			mu.Lock()
			counts[job.Name()] = n
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return counts, err
	}
	return counts, nil
}
