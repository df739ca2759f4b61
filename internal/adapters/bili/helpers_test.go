package bili

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/bnema/bilibackup/internal/domain"
)

type recordingClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func (c *recordingClock) Now() time.Time {
	return c.now
}

func (c *recordingClock) Sleep(ctx context.Context, d time.Duration) error {
	c.mu.Lock()
	c.sleeps = append(c.sleeps, d)
	c.mu.Unlock()
	return ctx.Err()
}

func (c *recordingClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.sleeps...)
}

var testSession = &domain.Session{
	Credential: domain.Credential{
		Cookie:    "SESSDATA=s; DedeUserID=42; bili_jct=csrf-token",
		CSRFToken: "csrf-token",
		AccountID: "42",
	},
	Keys: testKeys,
	Name: "tester",
}

// newTestClient points a client at handler with instant sleeps and the test
// session installed.
func newTestClient(t *testing.T, handler http.Handler) (*Client, *recordingClock) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	clock := &recordingClock{now: fixedNow()}
	sessions := NewSessionHolder()
	sessions.Replace(testSession)

	cfg := DefaultConfig()
	cfg.BaseURL = server.URL
	client := NewClient(cfg, WithClock(clock), WithSessions(sessions), WithHTTPClient(server.Client()))
	return client, clock
}

func writeEnvelope(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"code": code, "message": "msg", "data": data})
}
