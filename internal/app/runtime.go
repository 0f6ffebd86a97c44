package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/api"
	"github.com/vladislavdragonenkov/storefront/internal/catalog"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	"github.com/vladislavdragonenkov/storefront/internal/profile"
	"github.com/vladislavdragonenkov/storefront/internal/session"
)

// ErrNoSession возвращается операциями, которым нужна активная сессия.
var ErrNoSession = errors.New("no active session")

// RuntimeOptions задаёт параметры runtime.
type RuntimeOptions struct {
	Registerer prometheus.Registerer
	HTTPClient *http.Client
	Logger     *log.Entry
}

// RuntimeOption настраивает Runtime.
type RuntimeOption func(*RuntimeOptions)

// WithRegisterer задаёт registerer для метрик (в тестах отдельный registry).
func WithRegisterer(reg prometheus.Registerer) RuntimeOption {
	return func(opts *RuntimeOptions) {
		opts.Registerer = reg
	}
}

// WithHTTPClient подменяет HTTP-клиент REST API.
func WithHTTPClient(client *http.Client) RuntimeOption {
	return func(opts *RuntimeOptions) {
		opts.HTTPClient = client
	}
}

// WithLogger задаёт logger.
func WithLogger(logger *log.Entry) RuntimeOption {
	return func(opts *RuntimeOptions) {
		opts.Logger = logger
	}
}

// Runtime держит долгоживущие зависимости и текущую сессию.
type Runtime struct {
	cfg           Config
	logger        *log.Entry
	metrics       *metrics.SyncMetrics
	outboxMetrics *metrics.OutboxMetrics

	state   domain.KVStore
	outbox  domain.OutboxRepository
	tokens  *session.Tokens
	pending *session.PendingPayments
	client  *api.Client
	catalog *catalog.Catalog
	profile *profile.Store

	closeState func() error

	mu      sync.Mutex
	current *Session
}

// NewRuntime собирает зависимости и восстанавливает сессию, если токен уже сохранён.
func NewRuntime(ctx context.Context, cfg Config, options ...RuntimeOption) (*Runtime, error) {
	var opts RuntimeOptions
	for _, option := range options {
		option(&opts)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	deps, err := initStateDependencies(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	syncMetrics := metrics.NewSyncMetricsWithRegisterer(opts.Registerer)
	tokens := session.NewTokens(deps.state, logger.WithField("component", "session-tokens"))

	apiOpts := []api.Option{
		api.WithTimeout(cfg.HTTPTimeout),
		api.WithBreaker(cfg.BreakerFailures, cfg.BreakerCooldown),
		api.WithLogger(logger.WithField("component", "api-client")),
		api.WithMetrics(syncMetrics),
	}
	if opts.HTTPClient != nil {
		apiOpts = append(apiOpts, api.WithHTTPClient(opts.HTTPClient))
	}
	client, err := api.NewClient(cfg.APIBaseURL, tokens, apiOpts...)
	if err != nil {
		_ = deps.close()
		return nil, err
	}

	rt := &Runtime{
		cfg:           cfg,
		logger:        logger,
		metrics:       syncMetrics,
		outboxMetrics: metrics.NewOutboxMetricsWithRegisterer(opts.Registerer),
		state:         deps.state,
		outbox:        deps.outbox,
		tokens:        tokens,
		pending:       session.NewPendingPayments(deps.state),
		client:        client,
		catalog:       catalog.New(client, logger.WithField("component", "catalog"), syncMetrics),
		profile:       profile.NewStore(client, tokens, logger.WithField("component", "profile-store")),
		closeState:    deps.close,
	}

	if _, ok := tokens.Token(ctx); ok {
		rt.current = rt.newSession()
		rt.current.load(ctx, logger)
		logger.Info("restored persisted session")
	}
	return rt, nil
}

// Login сохраняет токен и открывает новую сессию.
func (r *Runtime) Login(ctx context.Context, token string) (*Session, error) {
	if err := r.tokens.Login(ctx, token); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	sess := r.newSession()
	sess.load(ctx, r.logger)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current != nil {
		r.current.Close()
	}
	r.current = sess
	r.logger.Info("session opened")
	return sess, nil
}

// Logout закрывает сессию и удаляет токен вместе с маркером платежа.
func (r *Runtime) Logout(ctx context.Context) error {
	r.mu.Lock()
	if r.current != nil {
		r.current.Close()
		r.current = nil
	}
	r.mu.Unlock()

	if err := r.tokens.Logout(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	r.logger.Info("session closed")
	return nil
}

// Session возвращает текущую сессию или ErrNoSession.
func (r *Runtime) Session() (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		return nil, ErrNoSession
	}
	return r.current, nil
}

// Catalog возвращает кэширующий каталог.
func (r *Runtime) Catalog() *catalog.Catalog {
	return r.catalog
}

// Profile возвращает стор профиля.
func (r *Runtime) Profile() *profile.Store {
	return r.profile
}

// Outbox возвращает журнал событий оформления.
func (r *Runtime) Outbox() domain.OutboxRepository {
	return r.outbox
}

// WatchProfile перечитывает профиль при входе и выходе, пока не отменён ctx.
func (r *Runtime) WatchProfile(ctx context.Context) {
	changes, cancel := r.tokens.Subscribe()
	defer cancel()

	if _, err := r.profile.Fetch(ctx); err != nil {
		r.logger.WithError(err).Warn("initial profile fetch failed")
	}
	r.profile.Watch(ctx, changes)
}

// Close закрывает сессию и хранилище состояния.
func (r *Runtime) Close() error {
	r.mu.Lock()
	if r.current != nil {
		r.current.Close()
		r.current = nil
	}
	r.mu.Unlock()

	if r.closeState == nil {
		return nil
	}
	return r.closeState()
}
