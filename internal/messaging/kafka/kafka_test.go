package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

func checkoutMessage() domain.OutboxMessage {
	return domain.OutboxMessage{
		ID:            "outbox-1",
		AggregateType: domain.AggregateCheckout,
		AggregateID:   "42",
		EventType:     string(domain.CheckoutEventOrderCreated),
		Payload:       []byte(`{"order_id":42,"total_minor":1500}`),
	}
}

func TestOutboxPublisher_Publish(t *testing.T) {
	t.Parallel()

	mockProducer := mocks.NewSyncProducer(t, nil)
	mockProducer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != TopicCheckoutEvents {
			t.Errorf("unexpected topic %q", msg.Topic)
		}
		key, err := msg.Key.Encode()
		require.NoError(t, err)
		assert.Equal(t, "42", string(key))

		headers := map[string]string{}
		for _, h := range msg.Headers {
			headers[string(h.Key)] = string(h.Value)
		}
		assert.Equal(t, string(domain.CheckoutEventOrderCreated), headers[HeaderEventType])
		assert.Equal(t, "outbox-1", headers[HeaderOutboxID])

		body, err := msg.Value.Encode()
		require.NoError(t, err)
		var envelope CheckoutEnvelope
		require.NoError(t, json.Unmarshal(body, &envelope))
		assert.Equal(t, "42", envelope.OrderID)
		assert.JSONEq(t, `{"order_id":42,"total_minor":1500}`, string(envelope.Payload))
		return nil
	})

	publisher := NewOutboxPublisher(newProducer(mockProducer, nil), "")
	require.NoError(t, publisher.Publish(checkoutMessage()))
	require.NoError(t, mockProducer.Close())
}

func TestOutboxPublisher_PublishProducerError(t *testing.T) {
	t.Parallel()

	mockProducer := mocks.NewSyncProducer(t, nil)
	mockProducer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	publisher := NewOutboxPublisher(newProducer(mockProducer, nil), TopicCheckoutDLQ)
	err := publisher.Publish(checkoutMessage())
	require.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	require.NoError(t, mockProducer.Close())
}

func TestOutboxPublisher_PublishNilProducer(t *testing.T) {
	t.Parallel()

	publisher := NewOutboxPublisher(nil, "")
	require.ErrorIs(t, publisher.Publish(checkoutMessage()), domain.ErrOutboxPublish)
}

func TestNewProducer_RequiresBrokers(t *testing.T) {
	_, err := NewProducer(nil, "storefront", nil)
	require.Error(t, err)
}

func TestNewCheckoutEnvelope(t *testing.T) {
	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.FixedZone("MSK", 3*3600))

	envelope := NewCheckoutEnvelope(domain.OutboxMessage{ID: "x", AggregateID: "7", EventType: "checkout.order_cancelled", Payload: []byte("not json")}, now)

	assert.Equal(t, "7", envelope.OrderID)
	assert.Equal(t, json.RawMessage("{}"), envelope.Payload)
	assert.Equal(t, time.UTC, envelope.PublishedAt.Location())
	assert.True(t, envelope.PublishedAt.Equal(now))
}
