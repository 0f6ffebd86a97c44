package domain

import (
	"context"
	"errors"
	"time"
)

// CartAPI описывает серверные операции над корзиной.
type CartAPI interface {
	GetCart(ctx context.Context) (Cart, error)
	// AddCartItem возвращает созданную (или объединённую сервером) позицию.
	AddCartItem(ctx context.Context, productID int64, quantity int32) (CartLine, error)
	UpdateCartItem(ctx context.Context, id int64, quantity int32) (CartLine, error)
	RemoveCartItem(ctx context.Context, id int64) error
	ClearCart(ctx context.Context) error
}

// ProductAPI — публичное чтение карточки товара.
type ProductAPI interface {
	GetProduct(ctx context.Context, id int64) (Product, error)
}

// CatalogAPI — публичные справочные данные витрины.
type CatalogAPI interface {
	ProductAPI
	ListNews(ctx context.Context, page PageRequest) (Page[NewsArticle], error)
	GetNews(ctx context.Context, id int64) (NewsArticle, error)
	GetHomeBanners(ctx context.Context) ([]HeroBanner, error)
	GetFilters(ctx context.Context) ([]CatalogFilter, error)
}

// WishlistAPI описывает серверные операции над списком желаний.
type WishlistAPI interface {
	GetWishlist(ctx context.Context, page PageRequest) (Page[WishlistItem], error)
	AddWishlistItem(ctx context.Context, productID int64) error
	RemoveWishlistItem(ctx context.Context, productID int64) error
}

// AddressAPI — адреса доставки пользователя.
type AddressAPI interface {
	GetAddresses(ctx context.Context, page PageRequest) (Page[Address], error)
}

// OrderAPI — создание и отмена заказа.
type OrderAPI interface {
	CreateOrder(ctx context.Context, draft OrderDraft) (Order, error)
	CancelOrder(ctx context.Context, id int64) (Order, error)
}

// PaymentAPI — взаимодействие с внешним платёжным провайдером через сервер.
type PaymentAPI interface {
	CreateExternalPayment(ctx context.Context, orderID int64, description string, amountMinor int64) (ExternalPayment, error)
}

// ProfileAPI — профиль текущего пользователя.
type ProfileAPI interface {
	GetProfile(ctx context.Context) (Profile, error)
}

// TokenProvider отдаёт bearer-токен текущей сессии; ok=false, если сессии нет.
type TokenProvider interface {
	Token(ctx context.Context) (token string, ok bool)
}

// ErrKeyNotFound возвращается KVStore, если ключ не сохранён.
var ErrKeyNotFound = errors.New("key not found")

// Фиксированные имена ключей долговременного состояния клиента.
const (
	StateKeySessionToken   = "storefront.session_token"
	StateKeyPendingPayment = "storefront.pending_external_payment"
)

// KVStore — долговременное хранилище состояния клиента, переживающее навигацию и перезагрузку.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
}

// OutboxPublisher публикует события из outbox.
type OutboxPublisher interface {
	// Publish передаёт событие наружу; должен быть идемпотентным.
	Publish(event OutboxMessage) error
}

// OutboxRepository позволяет сохранять события для последующей публикации.
type OutboxRepository interface {
	Enqueue(msg OutboxMessage) (OutboxMessage, error)
	PullPending(limit int) ([]OutboxMessage, error)
	Stats() (OutboxStats, error)
	MarkSent(id string) error
	MarkFailed(id string) error
}

// OutboxMessage хранит данные для публикуемого события.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// OutboxStats описывает текущее состояние backlog outbox.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}
