package app

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/cart"
	"github.com/vladislavdragonenkov/storefront/internal/checkout"
	"github.com/vladislavdragonenkov/storefront/internal/wishlist"
)

// Session — сторы одной пользовательской сессии.
// Создаётся при входе и закрывается при выходе; состояние не переживает смену учётной записи.
type Session struct {
	Cart     *cart.Store
	Wishlist *wishlist.Store
	Checkout *checkout.Orchestrator
}

func (r *Runtime) newSession() *Session {
	logger := r.logger.WithField("layer", "session")

	cartStore := cart.NewStore(r.client, r.catalog, r.tokens,
		cart.WithWindow(r.cfg.Debounce),
		cart.WithLogger(logger.WithField("component", "cart-store")),
		cart.WithMetrics(r.metrics),
	)
	wishlistStore := wishlist.NewStore(r.client, r.tokens,
		wishlist.WithWindow(r.cfg.Debounce),
		wishlist.WithLogger(logger.WithField("component", "wishlist-store")),
		wishlist.WithMetrics(r.metrics),
	)
	orchestrator := checkout.NewOrchestrator(cartStore, r.client, r.client, r.pending, r.tokens,
		checkout.WithOutbox(r.outbox),
		checkout.WithLogger(logger.WithField("component", "checkout")),
		checkout.WithMetrics(r.metrics),
	)

	return &Session{
		Cart:     cartStore,
		Wishlist: wishlistStore,
		Checkout: orchestrator,
	}
}

// load заполняет корзину и избранное с сервера. Ошибки не фатальны:
// сторы остаются пустыми до следующего обновления.
func (s *Session) load(ctx context.Context, logger *log.Entry) {
	if err := s.Cart.RefreshNow(ctx); err != nil {
		logger.WithError(err).Warn("initial cart load failed")
	}
	if err := s.Wishlist.RefreshNow(ctx, 0, 0); err != nil {
		logger.WithError(err).Warn("initial wishlist load failed")
	}
}

// Close отбрасывает отложенные загрузки и закрывает подписки сторов.
func (s *Session) Close() {
	s.Cart.Close()
	s.Wishlist.Close()
}
