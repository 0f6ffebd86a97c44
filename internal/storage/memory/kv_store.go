package memory

import (
	"context"
	"sync"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// KVStore — in-memory хранилище состояния клиента; живёт, пока живёт процесс.
type KVStore struct {
	mu    sync.RWMutex
	items map[string][]byte
}

// NewKVStore создаёт пустое хранилище.
func NewKVStore() *KVStore {
	return &KVStore{items: make(map[string][]byte)}
}

// Get возвращает копию значения или domain.ErrKeyNotFound.
func (s *KVStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.items[key]
	if !ok {
		return nil, domain.ErrKeyNotFound
	}
	return append([]byte(nil), value...), nil
}

// Set сохраняет копию значения.
func (s *KVStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[key] = append([]byte(nil), value...)
	return nil
}

// Delete удаляет ключи; отсутствующие ключи игнорируются.
func (s *KVStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range keys {
		delete(s.items, key)
	}
	return nil
}

// Ping всегда успешен.
func (s *KVStore) Ping(context.Context) error {
	return nil
}

var _ domain.KVStore = (*KVStore)(nil)
