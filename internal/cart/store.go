package cart

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

const storeName = "cart"

// ProductCatalog — источник карточек товаров для обогащения корзины.
type ProductCatalog interface {
	// Products возвращает только успешно загруженные карточки.
	Products(ctx context.Context, ids []int64) (map[int64]domain.Product, error)
	// LiveProduct читает карточку мимо кэша.
	LiveProduct(ctx context.Context, id int64) (domain.Product, error)
}

// Snapshot — копия состояния корзины на момент чтения.
type Snapshot struct {
	Lines     []domain.CartLine
	Enriched  []domain.EnrichedCartLine
	Selection []int64
	Loading   bool
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

// Store держит зеркало серверной корзины, её обогащённое представление и выбор позиций.
// Каждый переход состояния атомарен под mu; сетевые вызовы выполняются без блокировки.
type Store struct {
	api     domain.CartAPI
	catalog ProductCatalog
	tokens  domain.TokenProvider
	logger  *log.Entry
	metrics *metrics.SyncMetrics

	refresher *coalesce.Coalescer[struct{}, Snapshot]

	mu        sync.RWMutex
	lines     []domain.CartLine
	enriched  []domain.EnrichedCartLine
	selection map[int64]struct{}
	inFlight  int
	// generation растёт с каждой перезагрузкой и мутацией; применяется только ответ
	// самой свежей перезагрузки.
	generation uint64

	subsMu sync.Mutex
	subs   map[int]chan Snapshot
	nextID int
}

// NewStore создаёт стор корзины.
func NewStore(api domain.CartAPI, catalog ProductCatalog, tokens domain.TokenProvider, options ...Option) *Store {
	var opts Options
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "cart-store")
	}

	s := &Store{
		api:       api,
		catalog:   catalog,
		tokens:    tokens,
		logger:    logger,
		metrics:   opts.Metrics,
		selection: make(map[int64]struct{}),
		subs:      make(map[int]chan Snapshot),
	}
	s.refresher = coalesce.New(func(ctx context.Context, _ struct{}) (Snapshot, error) {
		if err := s.RefreshNow(ctx); err != nil {
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

// Refresh планирует полную перезагрузку корзины через окно тишины.
// Канал вытесненного вызова никогда не получает значения.
func (s *Store) Refresh(ctx context.Context) <-chan coalesce.Result[Snapshot] {
	return s.refresher.Schedule(ctx, struct{}{})
}

// RefreshNow перезагружает корзину без схлопывания.
func (s *Store) RefreshNow(ctx context.Context) error {
	gen := s.beginReload()

	lines, enriched, err := s.load(ctx)

	s.mu.Lock()
	s.inFlight--
	if gen != s.generation {
		s.mu.Unlock()
		s.metrics.RecordStoreRefresh(storeName, "stale")
		s.logger.WithField("generation", gen).Debug("stale cart reload discarded")
		s.notify()
		return nil
	}
	if err != nil {
		s.mu.Unlock()
		s.metrics.RecordStoreRefresh(storeName, "failed")
		s.notify()
		return err
	}
	s.lines = lines
	s.enriched = enriched
	s.pruneSelectionLocked()
	s.mu.Unlock()

	s.metrics.RecordStoreRefresh(storeName, "applied")
	s.notify()
	return nil
}

func (s *Store) beginReload() uint64 {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.inFlight++
	s.mu.Unlock()

	s.notify()
	return gen
}

// load читает корзину и строит обогащённое представление.
func (s *Store) load(ctx context.Context) ([]domain.CartLine, []domain.EnrichedCartLine, error) {
	if _, ok := s.tokens.Token(ctx); !ok {
		return []domain.CartLine{}, []domain.EnrichedCartLine{}, nil
	}

	cart, err := s.api.GetCart(ctx)
	if err != nil {
		if domain.IsUnauthenticated(err) {
			s.logger.Debug("cart read unauthenticated, showing empty cart")
			return []domain.CartLine{}, []domain.EnrichedCartLine{}, nil
		}
		return nil, nil, fmt.Errorf("load cart: %w", err)
	}

	ids := make([]int64, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		ids = append(ids, line.ProductID)
	}
	products, err := s.catalog.Products(ctx, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("enrich cart: %w", err)
	}

	lines := append([]domain.CartLine{}, cart.Lines...)
	return lines, enrich(lines, products), nil
}

// enrich соединяет позиции с карточками; позиции без карточки в представление не попадают.
func enrich(lines []domain.CartLine, products map[int64]domain.Product) []domain.EnrichedCartLine {
	enriched := make([]domain.EnrichedCartLine, 0, len(lines))
	for _, line := range lines {
		product, ok := products[line.ProductID]
		if !ok {
			continue
		}
		enriched = append(enriched, domain.Enrich(line, product))
	}
	return enriched
}

// AddLine добавляет товар в корзину и применяет ответ сервера локально.
func (s *Store) AddLine(ctx context.Context, productID int64, qty int32) error {
	if productID <= 0 {
		return domain.NewValidationError("product_id", "is required")
	}
	if qty < 1 {
		return domain.NewValidationError("quantity", "must be at least 1")
	}

	line, err := s.api.AddCartItem(ctx, productID, qty)
	if err != nil {
		return s.fail(ctx, "add", err)
	}
	if line.ID == 0 || line.Quantity < 1 {
		// Ответ без позиции: изменение применено на сервере, состояние берём оттуда.
		s.metrics.RecordStoreMutation(storeName, "add", nil)
		if err := s.RefreshNow(ctx); err != nil {
			s.logger.WithError(err).WithField("product_id", productID).Warn("failed to reload cart after add")
		}
		return nil
	}
	if line.ProductID == 0 {
		line.ProductID = productID
	}

	products, err := s.catalog.Products(ctx, []int64{line.ProductID})
	if err != nil {
		s.logger.WithError(err).WithField("product_id", line.ProductID).Warn("failed to enrich added cart line")
	}

	s.mutate(func() {
		s.upsertLineLocked(line, products)
	})
	s.metrics.RecordStoreMutation(storeName, "add", nil)
	return nil
}

// UpdateLineQuantity меняет количество, предварительно сверив его с живым остатком.
func (s *Store) UpdateLineQuantity(ctx context.Context, lineID int64, qty int32) error {
	if qty < 1 {
		return domain.NewValidationError("quantity", "must be at least 1")
	}

	line, ok := s.findLine(lineID)
	if !ok {
		return fmt.Errorf("line %d: %w", lineID, domain.ErrLineNotFound)
	}

	product, err := s.catalog.LiveProduct(ctx, line.ProductID)
	if err != nil {
		return s.fail(ctx, "update", fmt.Errorf("check stock for line %d: %w", lineID, err))
	}
	if !product.CanFulfil(qty) {
		return domain.NewValidationError("quantity", fmt.Sprintf("only %d available", product.Quantity))
	}

	updated, err := s.api.UpdateCartItem(ctx, lineID, qty)
	if err != nil {
		return s.fail(ctx, "update", err)
	}
	if updated.Quantity < 1 {
		updated.Quantity = qty
	}

	s.mutate(func() {
		for i := range s.lines {
			if s.lines[i].ID == lineID {
				s.lines[i].Quantity = updated.Quantity
			}
		}
		for i := range s.enriched {
			if s.enriched[i].ID == lineID {
				s.enriched[i] = domain.Enrich(domain.CartLine{ID: lineID, ProductID: line.ProductID, Quantity: updated.Quantity}, product)
			}
		}
	})
	s.metrics.RecordStoreMutation(storeName, "update", nil)
	return nil
}

// RemoveLine удаляет позицию на сервере и локально.
func (s *Store) RemoveLine(ctx context.Context, lineID int64) error {
	if err := s.api.RemoveCartItem(ctx, lineID); err != nil {
		return s.fail(ctx, "remove", err)
	}

	s.mutate(func() {
		s.removeLineLocked(lineID)
	})
	s.metrics.RecordStoreMutation(storeName, "remove", nil)
	return nil
}

// Clear очищает корзину.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.api.ClearCart(ctx); err != nil {
		return s.fail(ctx, "clear", err)
	}

	s.mutate(func() {
		s.lines = []domain.CartLine{}
		s.enriched = []domain.EnrichedCartLine{}
		s.selection = make(map[int64]struct{})
	})
	s.metrics.RecordStoreMutation(storeName, "clear", nil)
	return nil
}

// fail пересинхронизирует стор с сервером и возвращает исходную ошибку.
func (s *Store) fail(ctx context.Context, op string, err error) error {
	s.metrics.RecordStoreMutation(storeName, op, err)
	s.logger.WithError(err).WithField("operation", op).Warn("cart mutation failed, resyncing")

	if resyncErr := s.RefreshNow(ctx); resyncErr != nil {
		s.logger.WithError(resyncErr).Warn("cart resync failed")
	}
	return err
}

// mutate применяет локальный патч и делает незавершённые перезагрузки устаревшими.
func (s *Store) mutate(patch func()) {
	s.mu.Lock()
	s.generation++
	patch()
	s.pruneSelectionLocked()
	s.mu.Unlock()

	s.notify()
}

func (s *Store) upsertLineLocked(line domain.CartLine, products map[int64]domain.Product) {
	replaced := false
	for i := range s.lines {
		// Сервер мог объединить товар с существующей позицией.
		if s.lines[i].ID == line.ID || s.lines[i].ProductID == line.ProductID {
			if s.lines[i].ID != line.ID {
				delete(s.selection, s.lines[i].ID)
			}
			s.lines[i] = line
			replaced = true
			break
		}
	}
	if !replaced {
		s.lines = append(s.lines, line)
	}

	product, ok := products[line.ProductID]
	if !ok {
		return
	}
	enriched := domain.Enrich(line, product)
	for i := range s.enriched {
		if s.enriched[i].ProductID == line.ProductID {
			s.enriched[i] = enriched
			return
		}
	}
	s.enriched = append(s.enriched, enriched)
}

func (s *Store) removeLineLocked(lineID int64) {
	lines := s.lines[:0:0]
	for _, line := range s.lines {
		if line.ID != lineID {
			lines = append(lines, line)
		}
	}
	s.lines = lines

	enriched := s.enriched[:0:0]
	for _, line := range s.enriched {
		if line.ID != lineID {
			enriched = append(enriched, line)
		}
	}
	s.enriched = enriched

	delete(s.selection, lineID)
}

func (s *Store) findLine(lineID int64) (domain.CartLine, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, line := range s.lines {
		if line.ID == lineID {
			return line, true
		}
	}
	return domain.CartLine{}, false
}

// Snapshot возвращает копию текущего состояния.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Lines:     append([]domain.CartLine{}, s.lines...),
		Enriched:  append([]domain.EnrichedCartLine{}, s.enriched...),
		Selection: s.selectionIDsLocked(),
		Loading:   s.inFlight > 0,
	}
}

// Subscribe возвращает канал последних снимков; непрочитанный снимок заменяется новым.
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

	// Снимок берётся под subsMu, чтобы подписчик не получил более старое состояние последним.
	snapshot := s.Snapshot()
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- snapshot
	}
}

// Close отбрасывает отложенную перезагрузку и закрывает подписки.
func (s *Store) Close() {
	s.refresher.Stop()

	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}
