package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/cart"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
)

// MessageStartNewOrder — подсказка пользователю при конфликте с незавершённым платежом.
const MessageStartNewOrder = "this order already has a pending payment, please start a new order"

// CartState — часть стора корзины, которая нужна оформлению.
type CartState interface {
	SelectedLines() []domain.EnrichedCartLine
	Snapshot() cart.Snapshot
	RemoveLine(ctx context.Context, lineID int64) error
	ClearSelection()
}

// PendingStore хранит маркер внешнего платежа между уходом на платёжную страницу и возвратом.
type PendingStore interface {
	Load(ctx context.Context) (domain.PendingExternalPayment, error)
	Store(ctx context.Context, pending domain.PendingExternalPayment) error
	Clear(ctx context.Context) error
}

// OrderService — создание и отмена заказов.
type OrderService interface {
	CreateOrder(ctx context.Context, draft domain.OrderDraft) (domain.Order, error)
	CancelOrder(ctx context.Context, id int64) (domain.Order, error)
}

// Request — выбор пользователя на странице оформления.
type Request struct {
	ShippingAddressID int64
	PaymentMethod     domain.PaymentMethod
	ShippingTier      ShippingTier
	Note              string
}

// Outcome — итог шага оформления.
type Outcome struct {
	Route Route
	Order domain.Order
	// Message — текст для пользователя, если шаг требует его действия.
	Message string
}

// Options задаёт необязательные зависимости оркестратора.
type Options struct {
	Outbox  domain.OutboxRepository
	Logger  *log.Entry
	Metrics *metrics.SyncMetrics
	Now     func() time.Time
}

// Option настраивает Orchestrator.
type Option func(*Options)

// WithOutbox включает запись событий оформления в outbox.
func WithOutbox(outbox domain.OutboxRepository) Option {
	return func(opts *Options) {
		opts.Outbox = outbox
	}
}

// WithLogger задаёт logger.
func WithLogger(logger *log.Entry) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// WithMetrics задаёт метрики.
func WithMetrics(m *metrics.SyncMetrics) Option {
	return func(opts *Options) {
		opts.Metrics = m
	}
}

// WithClock подменяет источник времени для маркера платежа.
func WithClock(now func() time.Time) Option {
	return func(opts *Options) {
		opts.Now = now
	}
}

// Orchestrator ведёт оформление заказа: проверка, создание, оплата и сверка возврата.
type Orchestrator struct {
	cart     CartState
	orders   OrderService
	payments domain.PaymentAPI
	pending  PendingStore
	tokens   domain.TokenProvider
	outbox   domain.OutboxRepository
	logger   *log.Entry
	metrics  *metrics.SyncMetrics
	now      func() time.Time
}

// NewOrchestrator создаёт оркестратор оформления.
func NewOrchestrator(
	cartState CartState,
	orders OrderService,
	payments domain.PaymentAPI,
	pending PendingStore,
	tokens domain.TokenProvider,
	options ...Option,
) *Orchestrator {
	var opts Options
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "checkout")
	}
	now := opts.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}

	return &Orchestrator{
		cart:     cartState,
		orders:   orders,
		payments: payments,
		pending:  pending,
		tokens:   tokens,
		outbox:   opts.Outbox,
		logger:   logger,
		metrics:  opts.Metrics,
		now:      now,
	}
}

// Validate проверяет локальные предусловия без обращения к сети.
func (o *Orchestrator) Validate(ctx context.Context, req Request) error {
	switch {
	case req.ShippingAddressID <= 0:
		return domain.NewValidationError("shipping_address_id", "choose a shipping address")
	case !req.PaymentMethod.Valid():
		return domain.NewValidationError("payment_method", "choose a payment method")
	}
	if _, err := ShippingFee(req.ShippingTier); err != nil {
		return err
	}
	if len(o.cart.SelectedLines()) == 0 {
		return domain.NewValidationError("selection", "select at least one cart line")
	}
	if _, ok := o.tokens.Token(ctx); !ok {
		return domain.ErrUnauthenticated
	}
	return nil
}

// BuildOrder собирает черновик заказа из выбранных позиций.
func (o *Orchestrator) BuildOrder(req Request) (domain.OrderDraft, error) {
	fee, err := ShippingFee(req.ShippingTier)
	if err != nil {
		return domain.OrderDraft{}, err
	}

	selected := o.cart.SelectedLines()
	items := make([]domain.OrderItem, 0, len(selected))
	for _, line := range selected {
		items = append(items, domain.OrderItem{
			ProductID:  line.ProductID,
			Quantity:   line.Quantity,
			PriceMinor: line.PriceMinor,
		})
	}

	draft := domain.OrderDraft{
		ShippingAddressID: req.ShippingAddressID,
		PaymentMethod:     req.PaymentMethod,
		ShippingFeeMinor:  fee,
		Items:             items,
		Note:              req.Note,
		IdempotencyKey:    uuid.NewString(),
	}
	if errs := draft.ValidateInvariants(); len(errs) > 0 {
		return domain.OrderDraft{}, errors.Join(errs...)
	}
	return draft, nil
}

// Checkout проводит оформление от проверки до перехода на следующую страницу.
func (o *Orchestrator) Checkout(ctx context.Context, req Request) (Outcome, error) {
	method := string(req.PaymentMethod)
	if err := o.Validate(ctx, req); err != nil {
		if domain.IsUnauthenticated(err) {
			o.metrics.RecordCheckout(method, "unauthenticated")
			return Outcome{Route: Route{Kind: RouteLogin}}, err
		}
		o.metrics.RecordCheckout(method, "invalid")
		return Outcome{}, err
	}

	draft, err := o.BuildOrder(req)
	if err != nil {
		o.metrics.RecordCheckout(method, "invalid")
		return Outcome{}, err
	}

	order, err := o.orders.CreateOrder(ctx, draft)
	if err != nil {
		o.metrics.RecordCheckout(method, "create_failed")
		o.logger.WithError(err).WithFields(log.Fields{
			"payment_method":  method,
			"idempotency_key": draft.IdempotencyKey,
			"error_kind":      domain.Classify(err),
		}).Warn("create order failed")
		return Outcome{Route: Route{Kind: RouteCart}}, fmt.Errorf("create order: %w", err)
	}
	if errs := order.ValidateInvariants(draft.ShippingFeeMinor); len(errs) > 0 {
		o.logger.WithError(errors.Join(errs...)).WithField("order_id", order.ID).Warn("server order differs from draft")
	}
	o.emit(domain.CheckoutEventOrderCreated, order, map[string]any{
		"payment_method": method,
		"total_minor":    order.TotalMinor,
	})

	if req.PaymentMethod == domain.PaymentOnDelivery {
		return o.completeOnDelivery(ctx, order, draft), nil
	}
	return o.redirectToGateway(ctx, order, draft)
}

func (o *Orchestrator) completeOnDelivery(ctx context.Context, order domain.Order, draft domain.OrderDraft) Outcome {
	o.removePurchased(ctx, order.ID, o.cart.SelectedLines(), productSet(draft.Items))
	o.metrics.RecordCheckout(string(domain.PaymentOnDelivery), "confirmed")
	o.logger.WithField("order_id", order.ID).Info("order confirmed, pay on delivery")
	return Outcome{
		Route: Route{Kind: RouteOrderConfirmation, OrderID: order.ID},
		Order: order,
	}
}

func (o *Orchestrator) redirectToGateway(ctx context.Context, order domain.Order, draft domain.OrderDraft) (Outcome, error) {
	method := string(domain.PaymentExternalGateway)
	description := "Order #" + strconv.FormatInt(order.ID, 10)

	payment, err := o.payments.CreateExternalPayment(ctx, order.ID, description, order.TotalMinor)
	if err != nil {
		fields := log.Fields{"order_id": order.ID, "error_kind": domain.Classify(err)}
		if errors.Is(err, domain.ErrPaymentAlreadyPending) {
			o.metrics.RecordCheckout(method, "payment_conflict")
			o.logger.WithError(err).WithFields(fields).Warn("order already has a pending payment")
			return Outcome{
				Route:   Route{Kind: RouteCart},
				Order:   order,
				Message: MessageStartNewOrder,
			}, fmt.Errorf("create external payment: %w", err)
		}
		o.metrics.RecordCheckout(method, "payment_failed")
		o.logger.WithError(err).WithFields(fields).Warn("create external payment failed")
		return Outcome{Route: Route{Kind: RouteCart}, Order: order}, fmt.Errorf("create external payment: %w", err)
	}

	marker := domain.PendingExternalPayment{
		OriginalOrderID: order.ID,
		TransactionID:   payment.TransactionID,
		CreatedAt:       o.now(),
		ProductIDs:      productIDs(draft.Items),
	}
	if marker.OriginalOrderID == 0 {
		marker.OriginalOrderID = payment.OriginalOrderID
	}
	if err := o.pending.Store(ctx, marker); err != nil {
		// Без маркера возврат не очистит корзину; редирект всё равно выполняется.
		o.logger.WithError(err).WithField("order_id", order.ID).Error("persist pending payment failed")
	}

	o.emit(domain.CheckoutEventPaymentRedirected, order, map[string]any{
		"transaction_id": payment.TransactionID,
	})
	o.metrics.RecordCheckout(method, "redirected")
	return Outcome{
		Route: Route{Kind: RouteExternal, OrderID: order.ID, URL: payment.PayURL},
		Order: order,
	}, nil
}

// Cancel переводит заказ в статус cancelled.
func (o *Orchestrator) Cancel(ctx context.Context, orderID int64) (domain.Order, error) {
	if orderID <= 0 {
		return domain.Order{}, domain.NewValidationError("order_id", "is required")
	}

	order, err := o.orders.CancelOrder(ctx, orderID)
	if err != nil {
		o.logger.WithError(err).WithField("order_id", orderID).Warn("cancel order failed")
		return domain.Order{}, fmt.Errorf("cancel order: %w", err)
	}
	if order.ID == 0 {
		order.ID = orderID
	}
	order.Status = domain.OrderStatusCancelled

	o.emit(domain.CheckoutEventOrderCancelled, order, nil)
	return order, nil
}

// removePurchased удаляет купленные позиции из корзины. Ошибки удаления не прерывают оформление.
// Если выбор пуст, позиции ищутся по товарам заказа.
func (o *Orchestrator) removePurchased(ctx context.Context, orderID int64, selected []domain.EnrichedCartLine, products map[int64]struct{}) {
	lineIDs := make([]int64, 0, len(selected))
	for _, line := range selected {
		lineIDs = append(lineIDs, line.ID)
	}
	if len(lineIDs) == 0 && len(products) > 0 {
		for _, line := range o.cart.Snapshot().Lines {
			if _, ok := products[line.ProductID]; ok {
				lineIDs = append(lineIDs, line.ID)
			}
		}
	}

	for _, id := range lineIDs {
		if err := o.cart.RemoveLine(ctx, id); err != nil {
			o.logger.WithError(err).WithFields(log.Fields{
				"order_id": orderID,
				"line_id":  id,
			}).Warn("remove purchased cart line failed")
		}
	}
	o.cart.ClearSelection()
}

func (o *Orchestrator) emit(eventType domain.CheckoutEventType, order domain.Order, payload map[string]any) {
	if o.outbox == nil {
		return
	}
	if payload == nil {
		payload = make(map[string]any)
	}
	payload["order_id"] = order.ID
	payload["ts"] = o.now().Format(time.RFC3339Nano)

	data, err := json.Marshal(payload)
	if err != nil {
		o.logger.WithError(err).WithFields(log.Fields{
			"order_id": order.ID,
			"event":    eventType,
		}).Error("marshal checkout event failed")
		return
	}

	msg := domain.OutboxMessage{
		AggregateType: domain.AggregateCheckout,
		AggregateID:   strconv.FormatInt(order.ID, 10),
		EventType:     string(eventType),
		Payload:       data,
	}
	if _, err := o.outbox.Enqueue(msg); err != nil {
		o.logger.WithError(err).WithFields(log.Fields{
			"order_id": order.ID,
			"event":    eventType,
		}).Error("enqueue checkout event failed")
		return
	}
	o.metrics.RecordOutboxEvent()
}

func productIDs(items []domain.OrderItem) []int64 {
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	return ids
}

func productSet(items []domain.OrderItem) map[int64]struct{} {
	set := make(map[int64]struct{}, len(items))
	for _, item := range items {
		set[item.ProductID] = struct{}{}
	}
	return set
}
