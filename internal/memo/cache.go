package memo

import (
	"context"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/vladislavdragonenkov/storefront/internal/metrics"
)

const defaultConcurrency = 8

// PageKey — ключ кэша для постраничных ресурсов.
type PageKey struct {
	Number int
	Size   int
}

// Func загружает значение по ключу из сети.
type Func[K comparable, V any] func(ctx context.Context, key K) (V, error)

// Options задаёт параметры кэша.
type Options struct {
	Name        string
	Concurrency int
	Logger      *log.Entry
	Metrics     *metrics.SyncMetrics
}

// Option настраивает Cache.
type Option func(*Options)

// WithName задаёт имя кэша для логов и метрик.
func WithName(name string) Option {
	return func(opts *Options) {
		opts.Name = name
	}
}

// WithConcurrency ограничивает число параллельных загрузок в FetchMany.
func WithConcurrency(n int) Option {
	return func(opts *Options) {
		opts.Concurrency = n
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

// Cache запоминает успешно загруженные значения на всё время жизни процесса.
// Конкурентные промахи по одному ключу разделяют одну загрузку; ошибки не кэшируются.
type Cache[K comparable, V any] struct {
	fetch       Func[K, V]
	name        string
	concurrency int
	logger      *log.Entry
	metrics     *metrics.SyncMetrics

	mu      sync.RWMutex
	entries map[K]V
	group   singleflight.Group
}

// New создаёт кэш вокруг функции загрузки.
func New[K comparable, V any](fetch Func[K, V], options ...Option) *Cache[K, V] {
	opts := Options{Name: "default", Concurrency: defaultConcurrency}
	for _, option := range options {
		option(&opts)
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "memo-cache")
	}

	return &Cache[K, V]{
		fetch:       fetch,
		name:        opts.Name,
		concurrency: opts.Concurrency,
		logger:      logger.WithField("cache", opts.Name),
		metrics:     opts.Metrics,
		entries:     make(map[K]V),
	}
}

// Get возвращает значение из кэша или загружает его.
func (c *Cache[K, V]) Get(ctx context.Context, key K) (V, error) {
	if value, ok := c.Peek(key); ok {
		c.metrics.RecordCacheLookup(c.name, "hit")
		return value, nil
	}
	c.metrics.RecordCacheLookup(c.name, "miss")

	shared, err, _ := c.group.Do(fmt.Sprintf("%v", key), func() (interface{}, error) {
		// Значение могло появиться, пока ждали предыдущую загрузку.
		if value, ok := c.Peek(key); ok {
			return value, nil
		}
		value, err := c.fetch(ctx, key)
		if err != nil {
			return nil, err
		}
		c.Put(key, value)
		return value, nil
	})
	if err != nil {
		c.metrics.RecordCacheLookup(c.name, "error")
		var zero V
		return zero, err
	}

	return shared.(V), nil
}

// FetchMany загружает набор ключей: дубликаты схлопываются, закэшированные
// не запрашиваются, ошибки отдельных ключей исключаются из результата.
// Ошибку возвращает только отменённый контекст.
func (c *Cache[K, V]) FetchMany(ctx context.Context, keys []K) (map[K]V, error) {
	result := make(map[K]V, len(keys))
	var missing []K
	seen := make(map[K]struct{}, len(keys))

	for _, key := range keys {
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		if value, ok := c.Peek(key); ok {
			c.metrics.RecordCacheLookup(c.name, "hit")
			result[key] = value
			continue
		}
		missing = append(missing, key)
	}

	if len(missing) == 0 {
		return result, nil
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(c.concurrency)

	for _, key := range missing {
		g.Go(func() error {
			value, err := c.Get(ctx, key)
			if err != nil {
				c.logger.WithError(err).WithField("key", key).Debug("fetch failed, excluded from batch")
				return nil
			}
			mu.Lock()
			result[key] = value
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

// Peek возвращает значение без загрузки.
func (c *Cache[K, V]) Peek(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	value, ok := c.entries[key]
	return value, ok
}

// Put кладёт значение в кэш, например из ответа списка.
func (c *Cache[K, V]) Put(key K, value V) {
	c.mu.Lock()
	c.entries[key] = value
	c.mu.Unlock()
}

// Len возвращает число закэшированных ключей.
func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
