package bili

import (
	"sync/atomic"

	"github.com/bnema/bilibackup/internal/domain"
)

// SessionHolder keeps the current session behind an atomic pointer.
type SessionHolder struct {
	current atomic.Pointer[domain.Session]
}

func NewSessionHolder() *SessionHolder {
	return &SessionHolder{}
}

func (h *SessionHolder) Current() *domain.Session {
	return h.current.Load()
}

func (h *SessionHolder) Replace(session *domain.Session) {
	h.current.Store(session)
}
