package kafka

import (
	"encoding/json"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// Топики событий оформления заказа.
const (
	TopicCheckoutEvents = "storefront.checkout.events"
	TopicCheckoutDLQ    = "storefront.checkout.dlq"
)

// Заголовки сообщений, по которым потребители фильтруют события без разбора тела.
const (
	HeaderEventType     = "x-event-type"
	HeaderAggregateType = "x-aggregate-type"
	HeaderOutboxID      = "x-outbox-id"
)

// CheckoutEnvelope — тело сообщения о событии оформления.
type CheckoutEnvelope struct {
	ID          string          `json:"id"`
	EventType   string          `json:"event_type"`
	OrderID     string          `json:"order_id"`
	Payload     json.RawMessage `json:"payload"`
	PublishedAt time.Time       `json:"published_at"`
}

// NewCheckoutEnvelope собирает тело сообщения из записи outbox.
func NewCheckoutEnvelope(msg domain.OutboxMessage, now time.Time) CheckoutEnvelope {
	payload := json.RawMessage(msg.Payload)
	if len(payload) == 0 || !json.Valid(payload) {
		payload = json.RawMessage("{}")
	}
	return CheckoutEnvelope{
		ID:          msg.ID,
		EventType:   msg.EventType,
		OrderID:     msg.AggregateID,
		Payload:     payload,
		PublishedAt: now.UTC(),
	}
}
