package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	"github.com/vladislavdragonenkov/storefront/internal/version"
)

const (
	defaultTimeout         = 10 * time.Second
	defaultBreakerFailures = 5
	defaultBreakerCooldown = 30 * time.Second
	maxResponseBodyBytes   = 4 << 20
	headerIdempotencyKey   = "Idempotency-Key"
	headerAuthorization    = "Authorization"
	contentTypeJSON        = "application/json"
	breakerName            = "storefront-api"
)

// Options задаёт параметры REST-клиента.
type Options struct {
	HTTPClient      *http.Client
	Timeout         time.Duration
	BreakerFailures uint32
	BreakerCooldown time.Duration
	Logger          *log.Entry
	Metrics         *metrics.SyncMetrics
}

// Option настраивает Client.
type Option func(*Options)

// WithHTTPClient подменяет HTTP-клиент (в тестах клиент httptest-сервера).
func WithHTTPClient(client *http.Client) Option {
	return func(opts *Options) {
		opts.HTTPClient = client
	}
}

// WithTimeout задаёт таймаут одного запроса.
func WithTimeout(timeout time.Duration) Option {
	return func(opts *Options) {
		opts.Timeout = timeout
	}
}

// WithBreaker задаёт число подряд идущих временных ошибок до размыкания и время остывания.
func WithBreaker(failures uint32, cooldown time.Duration) Option {
	return func(opts *Options) {
		opts.BreakerFailures = failures
		opts.BreakerCooldown = cooldown
	}
}

// WithLogger задаёт logger.
func WithLogger(logger *log.Entry) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// WithMetrics задаёт метрики.
func WithMetrics(m *metrics.SyncMetrics) Option {
	return func(opts *Options) {
		opts.Metrics = m
	}
}

// Client — REST-клиент API магазина.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	tokens  domain.TokenProvider
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker[[]byte]
	logger  *log.Entry
	metrics *metrics.SyncMetrics
}

// NewClient создаёт клиент; tokens может быть nil, тогда доступны только публичные ресурсы.
func NewClient(baseURL string, tokens domain.TokenProvider, options ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid api base url %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid api base url %q: scheme and host are required", baseURL)
	}
	// ResolveReference отбрасывает последний сегмент пути без завершающего слеша.
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}

	opts := Options{
		Timeout:         defaultTimeout,
		BreakerFailures: defaultBreakerFailures,
		BreakerCooldown: defaultBreakerCooldown,
	}
	for _, option := range options {
		option(&opts)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.BreakerFailures == 0 {
		opts.BreakerFailures = defaultBreakerFailures
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "api-client")
	}

	failures := opts.BreakerFailures
	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    breakerName,
		Timeout: opts.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// Постоянные ошибки (4xx) не говорят о недоступности сервера.
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, domain.ErrTransient)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithFields(log.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("api circuit breaker state changed")
		},
	})

	return &Client{
		baseURL: u,
		http:    httpClient,
		tokens:  tokens,
		timeout: opts.Timeout,
		breaker: breaker,
		logger:  logger,
		metrics: opts.Metrics,
	}, nil
}

// request описывает один вызов API.
type request struct {
	method         string
	path           string
	query          url.Values
	body           any
	authenticated  bool
	idempotencyKey string
}

func (r request) endpoint() string {
	return r.method + " " + r.path
}

// do выполняет запрос и декодирует JSON-ответ в out (если out != nil).
func (c *Client) do(ctx context.Context, req request, out any) error {
	var token string
	if req.authenticated {
		var ok bool
		if c.tokens != nil {
			token, ok = c.tokens.Token(ctx)
		}
		if !ok {
			return domain.ErrUnauthenticated
		}
	}

	var payload []byte
	if req.body != nil {
		var err error
		payload, err = json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", req.endpoint(), err)
		}
	}

	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.send(ctx, req, token, payload)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %s: %w", domain.ErrTransient, req.endpoint(), err)
	}
	if err != nil {
		return err
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", req.endpoint(), err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, req request, token string, payload []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	rel := &url.URL{Path: strings.TrimPrefix(req.path, "/")}
	if len(req.query) > 0 {
		rel.RawQuery = req.query.Encode()
	}
	target := c.baseURL.ResolveReference(rel)

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, target.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", req.endpoint(), err)
	}
	httpReq.Header.Set("Accept", contentTypeJSON)
	httpReq.Header.Set("User-Agent", version.UserAgent())
	if payload != nil {
		httpReq.Header.Set("Content-Type", contentTypeJSON)
	}
	if token != "" {
		httpReq.Header.Set(headerAuthorization, "Bearer "+token)
	}
	if req.idempotencyKey != "" {
		httpReq.Header.Set(headerIdempotencyKey, req.idempotencyKey)
	}

	started := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.metrics.RecordAPIRequest(req.endpoint(), "transport_error", time.Since(started))
		c.logger.WithError(err).WithField("endpoint", req.endpoint()).Debug("api transport failure")
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrTransient, req.endpoint(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyBytes))
	c.metrics.RecordAPIRequest(req.endpoint(), statusClass(resp.StatusCode), time.Since(started))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s response: %w", domain.ErrTransient, req.endpoint(), err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, nil
	}
	return nil, statusError(resp.StatusCode, body)
}

func statusClass(code int) string {
	return fmt.Sprintf("%dxx", code/100)
}

// Healthy сообщает, принимает ли клиент запросы: разомкнутый breaker означает недоступный API.
func (c *Client) Healthy(context.Context) error {
	if state := c.breaker.State(); state == gobreaker.StateOpen {
		return fmt.Errorf("%w: api circuit breaker is %s", domain.ErrTransient, state)
	}
	return nil
}
