package session

import (
	"context"
	"errors"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// Tokens хранит bearer-токен сессии и оповещает подписчиков о входе и выходе.
type Tokens struct {
	store  domain.KVStore
	value  *PersistedValue[string]
	logger *log.Entry

	mu     sync.Mutex
	subs   map[int]chan bool
	nextID int
}

// NewTokens создаёт хранилище токена поверх KVStore.
func NewTokens(store domain.KVStore, logger *log.Entry) *Tokens {
	if logger == nil {
		logger = log.WithField("component", "session-tokens")
	}
	return &Tokens{
		store:  store,
		value:  NewPersistedValue[string](store, domain.StateKeySessionToken),
		logger: logger,
		subs:   make(map[int]chan bool),
	}
}

// Token реализует domain.TokenProvider.
func (t *Tokens) Token(ctx context.Context) (string, bool) {
	token, err := t.value.Load(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrKeyNotFound) {
			t.logger.WithError(err).Warn("failed to load session token")
		}
		return "", false
	}
	return token, token != ""
}

// Load возвращает токен или domain.ErrTokenNotFound.
func (t *Tokens) Load(ctx context.Context) (string, error) {
	token, err := t.value.Load(ctx)
	if errors.Is(err, domain.ErrKeyNotFound) || (err == nil && token == "") {
		return "", domain.ErrTokenNotFound
	}
	return token, err
}

// Login сохраняет токен и сообщает подписчикам о появлении сессии.
func (t *Tokens) Login(ctx context.Context, token string) error {
	if token == "" {
		return domain.NewValidationError("token", "is required")
	}
	if err := t.value.Store(ctx, token); err != nil {
		return err
	}
	t.broadcast(true)
	return nil
}

// Logout удаляет токен вместе с маркером внешнего платежа.
func (t *Tokens) Logout(ctx context.Context) error {
	if err := t.store.Delete(ctx, domain.StateKeySessionToken, domain.StateKeyPendingPayment); err != nil {
		return err
	}
	t.broadcast(false)
	return nil
}

// Subscribe возвращает канал изменений наличия токена.
// Канал с буфером 1 хранит только последнее значение.
func (t *Tokens) Subscribe() (<-chan bool, func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.nextID
	t.nextID++
	ch := make(chan bool, 1)
	t.subs[id] = ch

	return ch, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if sub, ok := t.subs[id]; ok {
			delete(t.subs, id)
			close(sub)
		}
	}
}

func (t *Tokens) broadcast(present bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, ch := range t.subs {
		// Вытесняем непрочитанное значение: важно только последнее.
		select {
		case <-ch:
		default:
		}
		ch <- present
	}
}

var _ domain.TokenProvider = (*Tokens)(nil)
