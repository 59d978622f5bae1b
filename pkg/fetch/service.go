// Package fetch wraps adapter fetches with polite-crawler behavior: bounded
// retries with linear backoff, a per-host minimum request interval, and
// robots.txt enforcement. Each adapter gets its own Service instance, so the
// rate-limit clock and robots cache are only ever touched from the run
// goroutine.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/go-hclog"
	"github.com/temoto/robotstxt"
	"golang.org/x/time/rate"

	"github.com/ocean-watch/rfmo-ingestion/pkg/models"
)

// FetchFunc is the adapter-provided fetch an attempt invokes.
type FetchFunc func(ctx context.Context, ref models.DocumentRef) (*models.RawDocument, error)

// RobotsDeniedError marks a URL the configured user-agent may not fetch.
// It is terminal for that URL: no retry will change the answer.
type RobotsDeniedError struct {
	URL string
}

func (e *RobotsDeniedError) Error() string {
	return fmt.Sprintf("robots.txt denies %s", e.URL)
}

// RetryExhaustedError wraps the last failure after all attempts are spent.
type RetryExhaustedError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("fetch %s failed after %d attempts: %v", e.URL, e.Attempts, e.Err)
}

func (e *RetryExhaustedError) Unwrap() error {
	return e.Err
}

// Config tunes the politeness envelope.
type Config struct {
	// MaxAttempts is the total number of fetch attempts per document.
	MaxAttempts int

	// BackoffBase scales the linear backoff: attempt N sleeps N × base.
	BackoffBase time.Duration

	// MinInterval is the minimum spacing between requests to one host.
	MinInterval time.Duration

	// UserAgent is matched against robots.txt groups and sent on the
	// robots fetch itself.
	UserAgent string

	// RobotsTimeout bounds the robots.txt fetch.
	RobotsTimeout time.Duration
}

// DefaultConfig returns the default politeness envelope.
func DefaultConfig(userAgent string) Config {
	return Config{
		MaxAttempts:   3,
		BackoffBase:   time.Second,
		MinInterval:   250 * time.Millisecond,
		UserAgent:     userAgent,
		RobotsTimeout: 10 * time.Second,
	}
}

// Service is the bounded-retry fetch wrapper for one adapter.
type Service struct {
	cfg      Config
	client   *http.Client
	limiters map[string]*rate.Limiter
	robots   map[string]*robotstxt.RobotsData
	log      hclog.Logger
}

// New creates a fetch service.
func New(cfg Config, log hclog.Logger) *Service {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = time.Second
	}
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = 250 * time.Millisecond
	}
	if cfg.RobotsTimeout <= 0 {
		cfg.RobotsTimeout = 10 * time.Second
	}
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Service{
		cfg:      cfg,
		client:   &http.Client{Timeout: cfg.RobotsTimeout},
		limiters: make(map[string]*rate.Limiter),
		robots:   make(map[string]*robotstxt.RobotsData),
		log:      log,
	}
}

// Fetch runs fn with retries. Robots denial aborts immediately; any other
// failure is retried with linear backoff until MaxAttempts is spent, then
// wrapped in a RetryExhaustedError.
func (s *Service) Fetch(ctx context.Context, fn FetchFunc, ref models.DocumentRef) (*models.RawDocument, error) {
	var raw *models.RawDocument
	attempts := 0

	op := func() error {
		attempts++
		if err := s.waitTurn(ctx, ref.SourceURL); err != nil {
			return backoff.Permanent(err)
		}
		if !s.allowed(ctx, ref.SourceURL) {
			return backoff.Permanent(&RobotsDeniedError{URL: ref.SourceURL})
		}
		result, err := fn(ctx, ref)
		if err != nil {
			s.log.Debug("fetch attempt failed",
				"url", ref.SourceURL,
				"attempt", attempts,
				"error", err,
			)
			return err
		}
		raw = result
		return nil
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(newLinearBackOff(s.cfg.BackoffBase), uint64(s.cfg.MaxAttempts-1)),
		ctx,
	)
	if err := backoff.Retry(op, b); err != nil {
		if robots, ok := err.(*RobotsDeniedError); ok {
			return nil, robots
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &RetryExhaustedError{URL: ref.SourceURL, Attempts: attempts, Err: err}
	}
	return raw, nil
}

// waitTurn blocks until the host's minimum interval has elapsed.
func (s *Service) waitTurn(ctx context.Context, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	limiter, ok := s.limiters[u.Host]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(s.cfg.MinInterval), 1)
		s.limiters[u.Host] = limiter
	}
	return limiter.Wait(ctx)
}

// allowed consults the host's robots.txt, fetching and caching it on first
// use. A robots fetch failure is fail-open: the host is cached as
// unrestricted.
func (s *Service) allowed(ctx context.Context, rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return true
	}

	data, ok := s.robots[u.Host]
	if !ok {
		data = s.fetchRobots(ctx, u)
		s.robots[u.Host] = data
	}
	if data == nil {
		return true
	}
	return data.FindGroup(s.cfg.UserAgent).Test(u.Path)
}

func (s *Service) fetchRobots(ctx context.Context, u *url.URL) *robotstxt.RobotsData {
	robotsURL := fmt.Sprintf("%s://%s/robots.txt", u.Scheme, u.Host)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", s.cfg.UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		s.log.Debug("robots fetch failed, allowing host", "host", u.Host, "error", err)
		return nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil
	}

	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		return nil
	}
	return data
}

// linearBackOff sleeps attempt × base between retries.
type linearBackOff struct {
	base    time.Duration
	attempt int
}

func newLinearBackOff(base time.Duration) *linearBackOff {
	return &linearBackOff{base: base}
}

// NextBackOff implements backoff.BackOff.
func (l *linearBackOff) NextBackOff() time.Duration {
	l.attempt++
	return time.Duration(l.attempt) * l.base
}

// Reset implements backoff.BackOff.
func (l *linearBackOff) Reset() {
	l.attempt = 0
}
