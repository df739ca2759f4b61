package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/bnema/bilibackup/internal/domain"
)

var errRejected = errors.New("rejected")

var testSession = &domain.Session{
	Credential: domain.Credential{Cookie: "DedeUserID=42; bili_jct=tok", CSRFToken: "tok", AccountID: "42"},
	Name:       "tester",
}

type memorySessions struct {
	current atomic.Pointer[domain.Session]
}

func newMemorySessions(s *domain.Session) *memorySessions {
	m := &memorySessions{}
	m.current.Store(s)
	return m
}

func (m *memorySessions) Current() *domain.Session { return m.current.Load() }
func (m *memorySessions) Replace(session *domain.Session) { m.current.Store(session) }

type countingPacer struct {
	mu     sync.Mutex
	calls  int
	ranges []domain.DelayRange
	err    error
}

func (p *countingPacer) Humanize(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return p.err
	}
	return ctx.Err()
}

func (p *countingPacer) HumanizeWithin(ctx context.Context, r domain.DelayRange) error {
	p.mu.Lock()
	p.ranges = append(p.ranges, r)
	p.mu.Unlock()
	return p.Humanize(ctx)
}

func (p *countingPacer) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type entry struct {
	ID     int               `json:"id"`
	Title  string            `json:"title"`
	Groups []domain.GroupTag `json:"groups,omitempty"`
}

func entries(n int) []entry {
	out := make([]entry, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, entry{ID: i, Title: fmt.Sprintf("item-%d", i)})
	}
	return out
}

// fakeDomain is a restorable and clearable domain keyed by entry id.
type fakeDomain struct {
	name     string
	items    []entry
	listErr  error
	failOn   map[int]bool
	onApply  func(ctx context.Context, e entry)
	mu       sync.Mutex
	applied  []int
	removed  []int
	sessions []*domain.Session
}

func (d *fakeDomain) Name() string { return d.name }

func (d *fakeDomain) List(ctx context.Context) ([]entry, error) {
	if d.listErr != nil {
		return nil, d.listErr
	}
	return d.items, nil
}

func (d *fakeDomain) Apply(ctx context.Context, e entry) error {
	d.mu.Lock()
	d.applied = append(d.applied, e.ID)
	s, _ := domain.SessionFrom(ctx)
	d.sessions = append(d.sessions, s)
	d.mu.Unlock()

	if d.onApply != nil {
		d.onApply(ctx, e)
	}
	if d.failOn[e.ID] {
		return errRejected
	}
	return nil
}

func (d *fakeDomain) Remove(ctx context.Context, e entry) error {
	d.mu.Lock()
	d.removed = append(d.removed, e.ID)
	d.mu.Unlock()
	if d.failOn[e.ID] {
		return errRejected
	}
	return nil
}

func (d *fakeDomain) Describe(e entry) string {
	return fmt.Sprintf("%s (id %d)", e.Title, e.ID)
}

// listOnly has no mutations, like a backup-only domain.
type listOnly struct {
	items []entry
}

func (l listOnly) Name() string { return "followers" }
func (l listOnly) List(ctx context.Context) ([]entry, error) { return l.items, nil }

// groupedDomain keeps its destination groups in memory across runs.
type groupedDomain struct {
	fakeDomain
	groups    []domain.GroupTag
	nextID    int64
	createErr map[string]error
	assignErr error
	created   []string
	assigned  map[int][]int64
}

func newGroupedDomain(existing ...domain.GroupTag) *groupedDomain {
	return &groupedDomain{
		fakeDomain: fakeDomain{name: "following"},
		groups:     existing,
		nextID:     1000,
		assigned:   map[int][]int64{},
	}
}

func (g *groupedDomain) Groups(ctx context.Context) ([]domain.GroupTag, error) {
	return append([]domain.GroupTag(nil), g.groups...), nil
}

func (g *groupedDomain) CreateGroup(ctx context.Context, name string) (domain.GroupTag, error) {
	if err := g.createErr[name]; err != nil {
		return domain.GroupTag{}, err
	}
	g.nextID++
	tag := domain.GroupTag{ID: g.nextID, Name: name}
	g.groups = append(g.groups, tag)
	g.created = append(g.created, name)
	return tag, nil
}

func (g *groupedDomain) GroupsOf(e entry) []domain.GroupTag { return e.Groups }

func (g *groupedDomain) Assign(ctx context.Context, e entry, ids []int64) error {
	if g.assignErr != nil {
		return g.assignErr
	}
	g.assigned[e.ID] = ids
	return nil
}

type box struct {
	Title string
	Kind  domain.ContainerKind
	ID    int64
	Used  int
	Items []entry
}

// fakeShelves is a container domain with small, configurable capacities.
type fakeShelves struct {
	boxes       []box
	userCap     int
	defaultCap  int
	defaultUsed int
	maxBatch    int
	failCreate  map[string]bool
	failItem    map[int]bool
	nextID      int64
	placed      map[string][]int
	order       []string
	removeCalls [][]int
}

func newFakeShelves(boxes ...box) *fakeShelves {
	return &fakeShelves{
		boxes:      boxes,
		userCap:    1000,
		defaultCap: 50000,
		maxBatch:   20,
		placed:     map[string][]int{},
	}
}

func (f *fakeShelves) Name() string { return "favorites" }

func (f *fakeShelves) ListContainers(ctx context.Context) ([]box, error) { return f.boxes, nil }

func (f *fakeShelves) Spec(b box) domain.ContainerSpec {
	return domain.ContainerSpec{Title: b.Title, Kind: b.Kind}
}

func (f *fakeShelves) Ref(b box) domain.ContainerRef {
	return domain.ContainerRef{ID: b.ID, Title: b.Title, Kind: b.Kind, Used: b.Used}
}

func (f *fakeShelves) Items(b box) []entry { return b.Items }

func (f *fakeShelves) Capacity(kind domain.ContainerKind) int {
	if kind == domain.ContainerDefault {
		return f.defaultCap
	}
	return f.userCap
}

func (f *fakeShelves) MaxBatch() int { return f.maxBatch }

func (f *fakeShelves) Open(ctx context.Context, spec domain.ContainerSpec) (domain.ContainerRef, error) {
	if spec.Kind == domain.ContainerDefault {
		f.order = append(f.order, "default")
		return domain.ContainerRef{ID: 1, Title: "default", Kind: domain.ContainerDefault, Used: f.defaultUsed}, nil
	}
	return f.Create(ctx, spec)
}

func (f *fakeShelves) Create(ctx context.Context, spec domain.ContainerSpec) (domain.ContainerRef, error) {
	if f.failCreate[spec.Title] {
		return domain.ContainerRef{}, errRejected
	}
	f.nextID++
	f.order = append(f.order, spec.Title)
	return domain.ContainerRef{ID: 100 + f.nextID, Title: spec.Title, Kind: domain.ContainerUser}, nil
}

func (f *fakeShelves) AddItem(ctx context.Context, ref domain.ContainerRef, e entry) error {
	if f.failItem[e.ID] {
		return errRejected
	}
	f.placed[ref.Title] = append(f.placed[ref.Title], e.ID)
	return nil
}

func (f *fakeShelves) RemoveItems(ctx context.Context, ref domain.ContainerRef, items []entry) error {
	ids := make([]int, 0, len(items))
	for _, e := range items {
		ids = append(ids, e.ID)
	}
	f.removeCalls = append(f.removeCalls, ids)
	for _, e := range items {
		if f.failItem[e.ID] {
			return errRejected
		}
	}
	return nil
}

func (f *fakeShelves) DescribeItem(e entry) string {
	return fmt.Sprintf("%s (id %d)", e.Title, e.ID)
}

type memoryStore struct {
	mu    sync.Mutex
	saved map[string]any
	load  map[string]func(v any) error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{saved: map[string]any{}, load: map[string]func(v any) error{}}
}

func (m *memoryStore) Save(ctx context.Context, path string, v any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved[path] = v
	return nil
}

func (m *memoryStore) Load(ctx context.Context, path string, v any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	fill, ok := m.load[path]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrIO, path)
	}
	return fill(v)
}
