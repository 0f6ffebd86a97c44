package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// PersistedValue — типизированное значение в KVStore с операциями load/store/clear.
type PersistedValue[T any] struct {
	store domain.KVStore
	key   string
}

// NewPersistedValue привязывает значение к фиксированному ключу.
func NewPersistedValue[T any](store domain.KVStore, key string) *PersistedValue[T] {
	return &PersistedValue[T]{store: store, key: key}
}

// Key возвращает имя ключа.
func (p *PersistedValue[T]) Key() string {
	return p.key
}

// Load читает значение; если ключа нет, возвращает domain.ErrKeyNotFound.
func (p *PersistedValue[T]) Load(ctx context.Context) (T, error) {
	var value T

	raw, err := p.store.Get(ctx, p.key)
	if err != nil {
		if errors.Is(err, domain.ErrKeyNotFound) {
			return value, err
		}
		return value, fmt.Errorf("load %s: %w", p.key, err)
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		return value, fmt.Errorf("decode %s: %w", p.key, err)
	}
	return value, nil
}

// Store сериализует и сохраняет значение.
func (p *PersistedValue[T]) Store(ctx context.Context, value T) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", p.key, err)
	}
	if err := p.store.Set(ctx, p.key, raw); err != nil {
		return fmt.Errorf("store %s: %w", p.key, err)
	}
	return nil
}

// Clear удаляет значение; отсутствие ключа не ошибка.
func (p *PersistedValue[T]) Clear(ctx context.Context) error {
	if err := p.store.Delete(ctx, p.key); err != nil {
		return fmt.Errorf("clear %s: %w", p.key, err)
	}
	return nil
}
