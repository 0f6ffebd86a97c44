package coalesce

import (
	"context"
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/metrics"
)

const defaultWindow = 500 * time.Millisecond

// ErrStopped возвращается вызовам, запланированным после Stop.
var ErrStopped = errors.New("coalescer stopped")

// Result — результат выполнения функции для выжившего вызова.
type Result[R any] struct {
	Value R
	Err   error
}

// Func — дорогая операция, которую нужно схлопывать.
type Func[A, R any] func(ctx context.Context, args A) (R, error)

// Options задаёт параметры коалесцера.
type Options struct {
	Window  time.Duration
	Name    string
	Logger  *log.Entry
	Metrics *metrics.SyncMetrics
}

// Option настраивает Coalescer.
type Option func(*Options)

// WithWindow задаёт окно тишины.
func WithWindow(window time.Duration) Option {
	return func(opts *Options) {
		opts.Window = window
	}
}

// WithName задаёт имя для логов и метрик.
func WithName(name string) Option {
	return func(opts *Options) {
		opts.Name = name
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

type call[A, R any] struct {
	ctx    context.Context
	args   A
	result chan Result[R]
}

// Coalescer откладывает вызов fn до окна тишины и выполняет его один раз
// с аргументами последнего вызова. Результат получает только последний вызов;
// каналы вытесненных вызовов никогда не пишутся и не закрываются.
type Coalescer[A, R any] struct {
	fn      Func[A, R]
	window  time.Duration
	name    string
	logger  *log.Entry
	metrics *metrics.SyncMetrics

	mu      sync.Mutex
	timer   *time.Timer
	pending *call[A, R]
	stopped bool
}

// New создаёт коалесцер вокруг fn.
func New[A, R any](fn Func[A, R], options ...Option) *Coalescer[A, R] {
	opts := Options{Window: defaultWindow, Name: "default"}
	for _, option := range options {
		option(&opts)
	}
	if opts.Window <= 0 {
		opts.Window = defaultWindow
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "coalescer")
	}

	return &Coalescer[A, R]{
		fn:      fn,
		window:  opts.Window,
		name:    opts.Name,
		logger:  logger.WithField("coalescer", opts.Name),
		metrics: opts.Metrics,
	}
}

// Schedule планирует вызов и перезапускает окно тишины.
func (c *Coalescer[A, R]) Schedule(ctx context.Context, args A) <-chan Result[R] {
	next := &call[A, R]{ctx: ctx, args: args, result: make(chan Result[R], 1)}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		next.result <- Result[R]{Err: ErrStopped}
		return next.result
	}

	c.metrics.RecordCoalescerEvent(c.name, "scheduled")
	if c.pending != nil {
		c.timer.Stop()
		c.metrics.RecordCoalescerEvent(c.name, "superseded")
		c.logger.Debug("pending call superseded")
	}

	c.pending = next
	c.timer = time.AfterFunc(c.window, func() {
		c.fire(next)
	})

	return next.result
}

// Do планирует вызов и ждёт его результата или отмены ctx.
// Вытесненный вызов возвращается только по ctx.Done().
func (c *Coalescer[A, R]) Do(ctx context.Context, args A) (R, error) {
	select {
	case res := <-c.Schedule(ctx, args):
		return res.Value, res.Err
	case <-ctx.Done():
		var zero R
		return zero, ctx.Err()
	}
}

// Flush немедленно выполняет ожидающий вызов, если он есть.
func (c *Coalescer[A, R]) Flush() {
	c.mu.Lock()
	pending := c.pending
	if pending != nil {
		c.timer.Stop()
	}
	c.mu.Unlock()

	if pending != nil {
		c.fire(pending)
	}
}

// Stop отбрасывает ожидающий вызов; последующие Schedule получают ErrStopped.
func (c *Coalescer[A, R]) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending != nil {
		c.timer.Stop()
		c.pending = nil
		c.timer = nil
	}
	c.stopped = true
}

// Pending сообщает, есть ли отложенный вызов.
func (c *Coalescer[A, R]) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending != nil
}

func (c *Coalescer[A, R]) fire(target *call[A, R]) {
	c.mu.Lock()
	// Таймер мог сработать одновременно с новым Schedule или Flush.
	if c.pending != target {
		c.mu.Unlock()
		return
	}
	c.pending = nil
	c.timer = nil
	c.mu.Unlock()

	c.metrics.RecordCoalescerEvent(c.name, "dispatched")

	value, err := c.fn(target.ctx, target.args)
	target.result <- Result[R]{Value: value, Err: err}
}
