package bili

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/bnema/bilibackup/internal/domain"
	"github.com/bnema/bilibackup/internal/ports"
)

const (
	DefaultBaseURL        = "https://api.bilibili.com"
	DefaultConcurrency    = 2
	DefaultMaxAttempts    = 3
	DefaultRetryInterval  = time.Second
	DefaultDelayMin       = 1000 * time.Millisecond
	DefaultDelayMax       = 3000 * time.Millisecond
	DefaultRequestTimeout = 30 * time.Second

	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	referer        = "https://www.bilibili.com/"
	acceptHeader   = "application/json, text/plain, */*"
	acceptLanguage = "zh-CN,zh;q=0.9,en;q=0.8"

	maxResponseBytes = 8 << 20
)

type Config struct {
	BaseURL       string
	Concurrency   int
	MaxAttempts   int
	RetryInterval time.Duration
	Delay         domain.DelayRange
	Timeout       time.Duration
}

func DefaultConfig() Config {
	return Config{
		BaseURL:       DefaultBaseURL,
		Concurrency:   DefaultConcurrency,
		MaxAttempts:   DefaultMaxAttempts,
		RetryInterval: DefaultRetryInterval,
		Delay:         domain.DelayRange{Min: DefaultDelayMin, Max: DefaultDelayMax},
		Timeout:       DefaultRequestTimeout,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.BaseURL == "" {
		c.BaseURL = def.BaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Concurrency < 1 {
		c.Concurrency = def.Concurrency
	}
	if c.MaxAttempts < 1 {
		c.MaxAttempts = def.MaxAttempts
	}
	if c.RetryInterval < 0 {
		c.RetryInterval = def.RetryInterval
	}
	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}
	if c.Delay.Validate() != nil {
		c.Delay = def.Delay
	}
	return c
}

type Request struct {
	Method string
	// Path is appended to the base URL unless it is already absolute.
	Path   string
	Query  map[string]string
	Signed bool
	Form   url.Values
	JSON   any
}

func (r Request) op() string {
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}
	return method + " " + r.Path
}

// Client is the shared transport: every call borrows one permit from a pool
// sized by Config.Concurrency and holds it across its retries.
type Client struct {
	cfg      Config
	http     *http.Client
	permits  *semaphore.Weighted
	sessions ports.SessionProvider
	clock    ports.Clock
	logger   *slog.Logger
	jitter   func(n int64) int64
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

func WithClock(clock ports.Clock) Option {
	return func(c *Client) {
		if clock != nil {
			c.clock = clock
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithSessions(sessions ports.SessionProvider) Option {
	return func(c *Client) {
		if sessions != nil {
			c.sessions = sessions
		}
	}
}

func NewClient(cfg Config, opts ...Option) *Client {
	cfg = cfg.withDefaults()
	c := &Client{
		cfg:      cfg,
		http:     &http.Client{},
		permits:  semaphore.NewWeighted(int64(cfg.Concurrency)),
		sessions: NewSessionHolder(),
		clock:    ports.SystemClock{},
		logger:   slog.New(slog.DiscardHandler),
		jitter:   rand.Int64N,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Sessions() ports.SessionProvider {
	return c.sessions
}

// Session prefers the session pinned in ctx over the holder's current one.
func (c *Client) Session(ctx context.Context) *domain.Session {
	if s, ok := domain.SessionFrom(ctx); ok {
		return s
	}
	return c.sessions.Current()
}

func (c *Client) Execute(ctx context.Context, req Request) ([]byte, error) {
	session := c.Session(ctx)
	target, err := c.buildURL(req, session)
	if err != nil {
		return nil, err
	}

	var payload []byte
	contentType := ""
	switch {
	case req.JSON != nil:
		payload, err = json.Marshal(req.JSON)
		if err != nil {
			return nil, fmt.Errorf("encode %s body: %w", req.op(), err)
		}
		contentType = "application/json"
	case req.Form != nil:
		payload = []byte(req.Form.Encode())
		contentType = "application/x-www-form-urlencoded"
	}

	if err := c.permits.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("acquire request permit: %w", err)
	}
	defer c.permits.Release(1)

	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		body, retryable, err := c.attempt(ctx, req, target, payload, contentType, session)
		if err == nil {
			return body, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !retryable {
			return nil, &domain.NetworkError{Op: req.op(), Attempts: attempt, Err: err}
		}

		lastErr = err
		if attempt == c.cfg.MaxAttempts {
			break
		}
		c.logger.Warn("request failed, retrying",
			"op", req.op(), "attempt", attempt, "max_attempts", c.cfg.MaxAttempts, "error", err)
		if err := c.clock.Sleep(ctx, c.cfg.RetryInterval); err != nil {
			return nil, err
		}
	}

	return nil, &domain.NetworkError{Op: req.op(), Attempts: c.cfg.MaxAttempts, Err: lastErr}
}

// attempt performs one round trip. Connection failures, timeouts and body read
// failures are retryable; an unexpected HTTP status is not.
func (c *Client) attempt(
	ctx context.Context,
	req Request,
	target string,
	payload []byte,
	contentType string,
	session *domain.Session,
) ([]byte, bool, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(reqCtx, method, target, body)
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("User-Agent", userAgent)
	httpReq.Header.Set("Referer", referer)
	httpReq.Header.Set("Accept", acceptHeader)
	httpReq.Header.Set("Accept-Language", acceptLanguage)
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if session != nil && session.Credential.Cookie != "" {
		httpReq.Header.Set("Cookie", session.Credential.Cookie)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, true, fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, false, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return data, false, nil
}

func (c *Client) buildURL(req Request, session *domain.Session) (string, error) {
	target := req.Path
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		target = c.cfg.BaseURL + "/" + strings.TrimLeft(target, "/")
	}

	params := make(map[string]string, len(req.Query)+2)
	for k, v := range req.Query {
		params[k] = v
	}

	var query string
	if req.Signed {
		if session == nil {
			return "", fmt.Errorf("sign %s: %w", req.op(), domain.ErrNotLoggedIn)
		}
		query = NewSigner(session.Keys, c.clock.Now).Encode(params)
	} else if len(params) > 0 {
		query = canonicalQuery(params)
	}

	if query == "" {
		return target, nil
	}
	return target + "?" + query, nil
}

func (c *Client) Humanize(ctx context.Context) error {
	return c.HumanizeWithin(ctx, c.cfg.Delay)
}

// HumanizeWithin sleeps a uniform random duration in [r.Min, r.Max].
func (c *Client) HumanizeWithin(ctx context.Context, r domain.DelayRange) error {
	if err := r.Validate(); err != nil {
		return err
	}

	d := r.Min
	if span := int64(r.Max - r.Min); span > 0 {
		d += time.Duration(c.jitter(span + 1))
	}
	return c.clock.Sleep(ctx, d)
}
