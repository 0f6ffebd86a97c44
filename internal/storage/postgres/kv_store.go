package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// KVStore хранит состояние клиента в таблице client_state.
type KVStore struct {
	store *Store
}

// NewKVStore создаёт PostgreSQL-реализацию domain.KVStore.
func NewKVStore(store *Store) *KVStore {
	return &KVStore{store: store}
}

// Get возвращает значение или domain.ErrKeyNotFound.
func (s *KVStore) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var value []byte
	err := s.store.DB().QueryRowContext(ctx, `
		SELECT value FROM client_state WHERE key = $1
	`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load client state %q: %w", key, err)
	}
	return value, nil
}

// Set сохраняет или перезаписывает значение.
func (s *KVStore) Set(ctx context.Context, key string, value []byte) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if _, err := s.store.DB().ExecContext(ctx, `
		INSERT INTO client_state (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value,
		    updated_at = EXCLUDED.updated_at
	`, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("store client state %q: %w", key, err)
	}
	return nil
}

// Delete удаляет ключи одним запросом.
func (s *KVStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if _, err := s.store.DB().ExecContext(ctx, `
		DELETE FROM client_state WHERE key = ANY($1)
	`, keys); err != nil {
		return fmt.Errorf("clear client state: %w", err)
	}
	return nil
}

// Ping проверяет доступность базы.
func (s *KVStore) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

var _ domain.KVStore = (*KVStore)(nil)
