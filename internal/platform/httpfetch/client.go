package httpfetch

import (
	"context"
	"net/http"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"
	"github.com/valyala/fasthttp"

	"github.com/riskibarqy/fixture-reconciler/internal/platform/logging"
	"github.com/riskibarqy/fixture-reconciler/internal/platform/resilience"
)

// ErrTransient marks failures worth another attempt: network errors, 408, 429
// and 5xx responses.
var ErrTransient = crerr.New("http fetch transient failure")

const (
	defaultTimeout      = 20 * time.Second
	defaultRetryBackoff = 500 * time.Millisecond
	defaultMaxBodyBytes = 16 << 20
	defaultUserAgent    = "fixture-reconciler/1.0 (+https://github.com/riskibarqy/fixture-reconciler)"
)

type Config struct {
	UserAgent      string
	Timeout        time.Duration
	Retries        int
	RetryBackoff   time.Duration
	MaxBodyBytes   int
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Response is a fully read, decompressed upstream document.
type Response struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
	FetchedAt   time.Time
}

// StatusError reports a non-2xx answer.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return "unexpected status " + http.StatusText(e.StatusCode) + " from " + e.URL + ": " + e.Body
}

// Client fetches documents for the scraping adapters over fasthttp.
type Client struct {
	client  *fasthttp.Client
	cfg     Config
	breaker *resilience.CircuitBreaker
	logger  *logging.Logger
}

func New(cfg Config, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = defaultRetryBackoff
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	if strings.TrimSpace(cfg.UserAgent) == "" {
		cfg.UserAgent = defaultUserAgent
	}
	breakerCfg := cfg.CircuitBreaker
	if breakerCfg.Name == "" {
		breakerCfg.Name = "httpfetch"
	}
	if breakerCfg.OnStateChange == nil {
		breakerCfg.OnStateChange = logCircuitChange(logger)
	}

	return &Client{
		client: &fasthttp.Client{
			Name:                     cfg.UserAgent,
			ReadTimeout:              cfg.Timeout,
			WriteTimeout:             cfg.Timeout,
			MaxResponseBodySize:      cfg.MaxBodyBytes,
			NoDefaultUserAgentHeader: true,
		},
		cfg:     cfg,
		breaker: resilience.NewCircuitBreaker(breakerCfg),
		logger:  logger,
	}
}

// Get fetches rawURL, retrying transient failures up to Retries times.
func (c *Client) Get(ctx context.Context, rawURL string, headers map[string]string) (Response, error) {
	if err := c.breaker.Allow(); err != nil {
		c.logger.WarnContext(ctx, "http fetch circuit breaker rejected request", "url", rawURL, "state", c.breaker.State())
		return Response{}, crerr.Wrapf(err, "get %s", rawURL)
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.Retries; attempt++ {
		if attempt > 0 {
			if err := sleepContext(ctx, c.cfg.RetryBackoff*time.Duration(attempt)); err != nil {
				lastErr = crerr.Wrapf(err, "get %s", rawURL)
				break
			}
		}

		resp, err := c.do(ctx, rawURL, headers)
		if err == nil {
			c.recordCircuitResult(nil)
			return resp, nil
		}
		lastErr = err
		if !crerr.Is(err, ErrTransient) {
			break
		}
		c.logger.DebugContext(ctx, "http fetch attempt failed", "url", rawURL, "attempt", attempt+1, "error", err)
	}

	c.recordCircuitResult(lastErr)
	return Response{}, lastErr
}

func (c *Client) do(ctx context.Context, rawURL string, headers map[string]string) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, crerr.Wrapf(err, "get %s", rawURL)
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(rawURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.SetUserAgent(c.cfg.UserAgent)
	req.Header.Set(fasthttp.HeaderAccept, "text/html,text/csv,application/json;q=0.9,*/*;q=0.8")
	req.Header.Set(fasthttp.HeaderAcceptEncoding, "gzip, br, deflate")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	deadline := time.Now().Add(c.cfg.Timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	if err := c.client.DoDeadline(req, resp, deadline); err != nil {
		return Response{}, crerr.Mark(crerr.Wrapf(err, "get %s", rawURL), ErrTransient)
	}

	status := resp.StatusCode()
	if status/100 != 2 {
		statusErr := &StatusError{URL: rawURL, StatusCode: status, Body: abbreviate(resp.Body(), 256)}
		if isRetryableStatus(status) {
			return Response{}, crerr.Mark(statusErr, ErrTransient)
		}
		return Response{}, statusErr
	}

	body, err := decodeBody(string(resp.Header.ContentEncoding()), resp.Body())
	if err != nil {
		return Response{}, crerr.Wrapf(err, "decode body of %s", rawURL)
	}

	return Response{
		URL:         rawURL,
		StatusCode:  status,
		ContentType: string(resp.Header.ContentType()),
		Body:        body,
		FetchedAt:   time.Now().UTC(),
	}, nil
}

// decodeBody undoes Content-Encoding into a pooled buffer and returns a copy
// that outlives the fasthttp response.
func decodeBody(encoding string, raw []byte) ([]byte, error) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	var err error
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "gzip":
		buf.B, err = fasthttp.AppendGunzipBytes(buf.B[:0], raw)
	case "br":
		buf.B, err = fasthttp.AppendUnbrotliBytes(buf.B[:0], raw)
	case "deflate":
		buf.B, err = fasthttp.AppendInflateBytes(buf.B[:0], raw)
	default:
		_, err = buf.Write(raw)
	}
	if err != nil {
		return nil, crerr.Wrapf(err, "content-encoding %q", encoding)
	}

	out := make([]byte, buf.Len())
	copy(out, buf.B)
	return out, nil
}

func (c *Client) recordCircuitResult(err error) {
	c.breaker.Record(err != nil && crerr.Is(err, ErrTransient))
}

func logCircuitChange(logger *logging.Logger) func(name string, from, to resilience.CircuitState) {
	return func(name string, from, to resilience.CircuitState) {
		logger.Warn("circuit breaker state changed", "breaker", name, "from", from, "to", to)
	}
}

func isRetryableStatus(statusCode int) bool {
	return statusCode == http.StatusRequestTimeout ||
		statusCode == http.StatusTooManyRequests ||
		statusCode >= http.StatusInternalServerError
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func abbreviate(body []byte, max int) string {
	value := strings.TrimSpace(string(body))
	if len(value) <= max {
		return value
	}
	return value[:max] + "..."
}
