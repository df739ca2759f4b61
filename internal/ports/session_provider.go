package ports

import (
	"context"

	"github.com/bnema/bilibackup/internal/domain"
)

// SessionProvider hands out the current session. Replace swaps it atomically;
// nil logs out.
type SessionProvider interface {
	Current() *domain.Session
	Replace(session *domain.Session)
}

type Navigator interface {
	Navigate(ctx context.Context) (domain.Navigation, error)
}

// Pacer inserts the randomized pause between remote mutations.
type Pacer interface {
	Humanize(ctx context.Context) error
	HumanizeWithin(ctx context.Context, r domain.DelayRange) error
}
