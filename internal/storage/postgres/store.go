package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	driverName = "pgx"
	opTimeout  = 5 * time.Second
)

var errNotInitialized = errors.New("postgres store is not initialized")

// Options задаёт параметры пула подключений.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	ConnectTimeout  time.Duration
}

// Option настраивает Store.
type Option func(*Options)

// WithMaxOpenConns ограничивает число открытых подключений; простаивающих держится не больше половины.
func WithMaxOpenConns(n int) Option {
	return func(opts *Options) {
		if n > 0 {
			opts.MaxOpenConns = n
			opts.MaxIdleConns = max(1, n/2)
		}
	}
}

// WithConnectTimeout задаёт таймаут проверки подключения при открытии.
func WithConnectTimeout(timeout time.Duration) Option {
	return func(opts *Options) {
		if timeout > 0 {
			opts.ConnectTimeout = timeout
		}
	}
}

// Store держит пул подключений к PostgreSQL с состоянием клиента и outbox.
type Store struct {
	db  *sql.DB
	dsn string
}

// Open открывает пул и проверяет, что база отвечает.
func Open(ctx context.Context, dsn string, options ...Option) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("postgres dsn is empty")
	}

	opts := Options{
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
		ConnMaxIdleTime: 5 * time.Minute,
		ConnectTimeout:  opTimeout,
	}
	for _, option := range options {
		option(&opts)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}
	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxIdleConns)
	db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	db.SetConnMaxIdleTime(opts.ConnMaxIdleTime)

	store := &Store{db: db, dsn: dsn}
	if err := store.ping(ctx, opts.ConnectTimeout); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// DB отдаёт пул для запросов, которым не хватает методов Store.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Ping используется health-проверкой state store.
func (s *Store) Ping(ctx context.Context) error {
	return s.ping(ctx, opTimeout)
}

func (s *Store) ping(ctx context.Context, timeout time.Duration) error {
	if s == nil || s.db == nil {
		return errNotInitialized
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

// EnsureSchema применяет все up-миграции.
func (s *Store) EnsureSchema(ctx context.Context) error {
	return s.MigrateUp(ctx, 0)
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
