package wishlist

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/coalesce"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
)

const storeName = "wishlist"

// Snapshot — копия текущей страницы списка желаний.
type Snapshot struct {
	Page    domain.Page[domain.WishlistItem]
	Request domain.PageRequest
	Loading bool
}

// Options задаёт параметры стора.
type Options struct {
	Window  time.Duration
	Logger  *log.Entry
	Metrics *metrics.SyncMetrics
}

// Option настраивает Store.
type Option func(*Options)

// WithWindow задаёт окно тишины для Refresh.
func WithWindow(window time.Duration) Option {
	return func(opts *Options) {
		opts.Window = window
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

// Store держит текущую страницу списка желаний.
// Мутации не оптимистичны: после ответа сервера страница перечитывается,
// чтобы TotalElements оставался серверным.
type Store struct {
	api     domain.WishlistAPI
	tokens  domain.TokenProvider
	logger  *log.Entry
	metrics *metrics.SyncMetrics

	refresher *coalesce.Coalescer[domain.PageRequest, Snapshot]

	mu         sync.RWMutex
	page       domain.Page[domain.WishlistItem]
	request    domain.PageRequest
	inFlight   int
	generation uint64

	subsMu sync.Mutex
	subs   map[int]chan Snapshot
	nextID int
}

// NewStore создаёт стор списка желаний.
func NewStore(api domain.WishlistAPI, tokens domain.TokenProvider, options ...Option) *Store {
	var opts Options
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "wishlist-store")
	}

	req := domain.PageRequest{}.Normalize()
	s := &Store{
		api:     api,
		tokens:  tokens,
		logger:  logger,
		metrics: opts.Metrics,
		page:    domain.EmptyPage[domain.WishlistItem](req),
		request: req,
		subs:    make(map[int]chan Snapshot),
	}
	s.refresher = coalesce.New(func(ctx context.Context, req domain.PageRequest) (Snapshot, error) {
		if err := s.RefreshNow(ctx, req.Number, req.Size); err != nil {
			return Snapshot{}, err
		}
		return s.Snapshot(), nil
	},
		coalesce.WithWindow(opts.Window),
		coalesce.WithName(storeName),
		coalesce.WithLogger(logger),
		coalesce.WithMetrics(opts.Metrics),
	)

	return s
}

// Refresh планирует загрузку страницы через окно тишины.
func (s *Store) Refresh(ctx context.Context, pageNumber, pageSize int) <-chan coalesce.Result[Snapshot] {
	return s.refresher.Schedule(ctx, domain.PageRequest{Number: pageNumber, Size: pageSize})
}

// RefreshNow загружает страницу без схлопывания.
func (s *Store) RefreshNow(ctx context.Context, pageNumber, pageSize int) error {
	req := domain.PageRequest{Number: pageNumber, Size: pageSize}.Normalize()

	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.inFlight++
	s.mu.Unlock()
	s.notify()

	page, err := s.load(ctx, req)

	s.mu.Lock()
	s.inFlight--
	if gen != s.generation {
		s.mu.Unlock()
		s.metrics.RecordStoreRefresh(storeName, "stale")
		s.logger.WithField("generation", gen).Debug("stale wishlist reload discarded")
		s.notify()
		return nil
	}
	if err != nil {
		s.mu.Unlock()
		s.metrics.RecordStoreRefresh(storeName, "failed")
		s.notify()
		return err
	}
	s.page = page
	s.request = req
	s.mu.Unlock()

	s.metrics.RecordStoreRefresh(storeName, "applied")
	s.notify()
	return nil
}

func (s *Store) load(ctx context.Context, req domain.PageRequest) (domain.Page[domain.WishlistItem], error) {
	if _, ok := s.tokens.Token(ctx); !ok {
		return domain.EmptyPage[domain.WishlistItem](req), nil
	}

	page, err := s.api.GetWishlist(ctx, req)
	if err != nil {
		if domain.IsUnauthenticated(err) {
			return domain.EmptyPage[domain.WishlistItem](req), nil
		}
		return domain.Page[domain.WishlistItem]{}, fmt.Errorf("load wishlist: %w", err)
	}
	if page.Items == nil {
		page.Items = []domain.WishlistItem{}
	}
	return page, nil
}

// Add добавляет товар и перечитывает текущую страницу.
func (s *Store) Add(ctx context.Context, productID int64) error {
	return s.mutate(ctx, "add", productID, s.api.AddWishlistItem)
}

// Remove удаляет товар и перечитывает текущую страницу.
func (s *Store) Remove(ctx context.Context, productID int64) error {
	return s.mutate(ctx, "remove", productID, s.api.RemoveWishlistItem)
}

func (s *Store) mutate(ctx context.Context, op string, productID int64, call func(context.Context, int64) error) error {
	if productID <= 0 {
		return domain.NewValidationError("product_id", "is required")
	}

	s.mu.RLock()
	req := s.request
	s.mu.RUnlock()

	if err := call(ctx, productID); err != nil {
		s.metrics.RecordStoreMutation(storeName, op, err)
		s.logger.WithError(err).WithFields(log.Fields{
			"operation":  op,
			"product_id": productID,
		}).Warn("wishlist mutation failed, resyncing")
		if resyncErr := s.RefreshNow(ctx, req.Number, req.Size); resyncErr != nil {
			s.logger.WithError(resyncErr).Warn("wishlist resync failed")
		}
		return err
	}
	s.metrics.RecordStoreMutation(storeName, op, nil)

	if err := s.RefreshNow(ctx, req.Number, req.Size); err != nil {
		s.logger.WithError(err).WithField("product_id", productID).Warn("wishlist refresh after mutation failed")
	}
	return nil
}

// Contains сообщает, есть ли товар на текущей странице.
func (s *Store) Contains(productID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, item := range s.page.Items {
		if item.ProductID == productID {
			return true
		}
	}
	return false
}

// Count возвращает серверное общее число элементов.
func (s *Store) Count() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.page.TotalElements
}

// Snapshot возвращает копию текущего состояния.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	page := s.page
	page.Items = append([]domain.WishlistItem{}, s.page.Items...)
	return Snapshot{Page: page, Request: s.request, Loading: s.inFlight > 0}
}

// Subscribe возвращает канал последних снимков.
func (s *Store) Subscribe() (<-chan Snapshot, func()) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	id := s.nextID
	s.nextID++
	ch := make(chan Snapshot, 1)
	s.subs[id] = ch

	return ch, func() {
		s.subsMu.Lock()
		defer s.subsMu.Unlock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
	}
}

func (s *Store) notify() {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	if len(s.subs) == 0 {
		return
	}

	snapshot := s.Snapshot()
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- snapshot
	}
}

// Close отбрасывает отложенную загрузку и закрывает подписки.
func (s *Store) Close() {
	s.refresher.Stop()

	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}
