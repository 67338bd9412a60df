package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/okian/simcat/internal/domain/model"
	"github.com/okian/simcat/pkg/logger"
	"github.com/okian/simcat/pkg/metrics"
	"golang.org/x/time/rate"
)

const (
	catalogPath     = "/api/all"
	maxPayloadBytes = 32 << 20
	maxErrorBody    = 4096

	defaultFetchTimeout = 10 * time.Second
	defaultRetries      = 2
	defaultRatePerSec   = 2.0
)

// HTTPSource fetches the catalog with a single GET of <base>/api/all per
// attempt. Failed attempts are retried on transport errors, 429 and 5xx,
// paced by a token bucket limiter.
type HTTPSource struct {
	endpoint string
	client   *http.Client
	timeout  time.Duration
	limiter  *rate.Limiter
	retries  int
	log      logger.Logger
}

// HTTPOption configures an HTTPSource.
type HTTPOption func(*HTTPSource)

// WithHTTPClient replaces the HTTP client. WithTimeout does not apply to it.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(s *HTTPSource) {
		if c != nil {
			s.client = c
		}
	}
}

// WithTimeout sets the per-attempt timeout of the default client.
func WithTimeout(d time.Duration) HTTPOption {
	return func(s *HTTPSource) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithRetries sets how many times a failed attempt is retried.
func WithRetries(n int) HTTPOption {
	return func(s *HTTPSource) {
		if n >= 0 {
			s.retries = n
		}
	}
}

// WithRate sets the maximum number of attempts per second. Non-positive
// values disable pacing.
func WithRate(perSec float64) HTTPOption {
	return func(s *HTTPSource) {
		if perSec <= 0 {
			s.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		s.limiter = rate.NewLimiter(rate.Limit(perSec), 1)
	}
}

// WithSourceLogger sets the logger.
func WithSourceLogger(l logger.Logger) HTTPOption {
	return func(s *HTTPSource) {
		if l != nil {
			s.log = l
		}
	}
}

// NewHTTPSource returns a source for the catalog served under base.
func NewHTTPSource(base string, opts ...HTTPOption) (*HTTPSource, error) {
	base = strings.TrimSpace(base)
	if base == "" {
		return nil, ErrNoSource
	}
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("source: invalid base url %q", base)
	}
	endpoint := strings.TrimSuffix(u.String(), "/")
	if !strings.HasSuffix(endpoint, catalogPath) {
		endpoint += catalogPath
	}
	s := &HTTPSource{
		endpoint: endpoint,
		timeout:  defaultFetchTimeout,
		limiter:  rate.NewLimiter(rate.Limit(defaultRatePerSec), 1),
		retries:  defaultRetries,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.client == nil {
		s.client = &http.Client{Timeout: s.timeout}
	}
	if s.log == nil {
		s.log = logger.Get().Named("source")
	}
	return s, nil
}

// Name implements Source.
func (s *HTTPSource) Name() string { return "http" }

// Endpoint returns the catalog URL.
func (s *HTTPSource) Endpoint() string { return s.endpoint }

// Load implements Source. A cancelled ctx yields ErrCancelled; every other
// failure, an expired ctx deadline included, yields ErrFetch.
func (s *HTTPSource) Load(ctx context.Context) (model.Catalog, error) {
	var lastErr error
	for attempt := 0; attempt <= s.retries; attempt++ {
		if err := s.limiter.Wait(ctx); err != nil {
			if cerr := contextFailure(ctx); cerr != nil {
				return model.Catalog{}, cerr
			}
			return model.Catalog{}, fmt.Errorf("%w: rate limiter: %v", ErrFetch, err)
		}

		start := time.Now()
		c, retry, err := s.fetch(ctx)
		metrics.RecordFetchAttempt("http", outcome(err), time.Since(start))
		if err == nil {
			return c, nil
		}
		if IsCancelled(err) {
			return model.Catalog{}, err
		}
		lastErr = err
		if !retry {
			break
		}
		s.log.Warn(ctx, "catalog fetch attempt failed",
			logger.Int("attempt", attempt+1),
			logger.Int("retries", s.retries),
			logger.Error(err),
		)
	}
	metrics.RecordErrorByComponent("source", "fetch")
	return model.Catalog{}, lastErr
}

func (s *HTTPSource) fetch(ctx context.Context) (model.Catalog, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint, nil)
	if err != nil {
		return model.Catalog{}, false, fmt.Errorf("%w: build request: %v", ErrFetch, err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	resp, err := s.client.Do(req)
	if err != nil {
		if cerr := contextFailure(ctx); cerr != nil {
			return model.Catalog{}, false, cerr
		}
		return model.Catalog{}, true, fmt.Errorf("%w: request %s: %v", ErrFetch, requestID, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		retry := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError
		return model.Catalog{}, retry, fmt.Errorf("%w: status %d: %s", ErrFetch, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		if cerr := contextFailure(ctx); cerr != nil {
			return model.Catalog{}, false, cerr
		}
		return model.Catalog{}, true, fmt.Errorf("%w: read body: %v", ErrFetch, err)
	}
	c, err := decode(raw, s.endpoint)
	if err != nil {
		return model.Catalog{}, false, err
	}
	s.log.Debug(ctx, "catalog fetched",
		logger.String("request_id", requestID),
		logger.Int("simulations", len(c.Simulations)),
	)
	return c, false, nil
}
