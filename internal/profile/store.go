package profile

import (
	"context"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// Store держит профиль текущего пользователя.
// Без сессии стор отдаёт domain.Anonymous и не обращается к серверу.
type Store struct {
	api    domain.ProfileAPI
	tokens domain.TokenProvider
	logger *log.Entry

	mu      sync.RWMutex
	profile domain.Profile
	gen     uint64

	subsMu sync.Mutex
	subs   map[int]chan domain.Profile
	nextID int
}

// NewStore создаёт стор профиля.
func NewStore(api domain.ProfileAPI, tokens domain.TokenProvider, logger *log.Entry) *Store {
	if logger == nil {
		logger = log.WithField("component", "profile-store")
	}
	return &Store{
		api:     api,
		tokens:  tokens,
		logger:  logger,
		profile: domain.Anonymous,
		subs:    make(map[int]chan domain.Profile),
	}
}

// Fetch перечитывает профиль. Ответ 401 переводит стор в анонимное состояние.
func (s *Store) Fetch(ctx context.Context) (domain.Profile, error) {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	profile, err := s.load(ctx)
	if err != nil {
		return s.Snapshot(), err
	}

	s.mu.Lock()
	if gen != s.gen {
		current := s.profile
		s.mu.Unlock()
		return current, nil
	}
	s.profile = profile
	s.mu.Unlock()

	s.notify()
	return profile, nil
}

func (s *Store) load(ctx context.Context) (domain.Profile, error) {
	if _, ok := s.tokens.Token(ctx); !ok {
		return domain.Anonymous, nil
	}

	profile, err := s.api.GetProfile(ctx)
	if err != nil {
		if domain.IsUnauthenticated(err) {
			s.logger.Debug("profile request rejected, falling back to guest")
			return domain.Anonymous, nil
		}
		return domain.Profile{}, fmt.Errorf("load profile: %w", err)
	}
	return profile, nil
}

// Watch перечитывает профиль при каждом изменении наличия сессии, пока не закроется канал или ctx.
func (s *Store) Watch(ctx context.Context, changes <-chan bool) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-changes:
			if !ok {
				return
			}
			if _, err := s.Fetch(ctx); err != nil {
				s.logger.WithError(err).Warn("profile refresh on session change failed")
			}
		}
	}
}

// Snapshot возвращает текущий профиль.
func (s *Store) Snapshot() domain.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

// Subscribe возвращает канал последних значений профиля.
func (s *Store) Subscribe() (<-chan domain.Profile, func()) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	id := s.nextID
	s.nextID++
	ch := make(chan domain.Profile, 1)
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

// notify рассылает текущий профиль; снимок читается под subsMu, поэтому
// последним подписчик всегда получает актуальное значение.
func (s *Store) notify() {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	profile := s.Snapshot()
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- profile
	}
}
