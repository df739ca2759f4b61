package ports

import "context"

// SnapshotStore persists one domain's entity list per path.
type SnapshotStore interface {
	Save(ctx context.Context, path string, v any) error
	Load(ctx context.Context, path string, v any) error
}
