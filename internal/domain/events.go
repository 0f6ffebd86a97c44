package domain

// CheckoutEventType — тип события оформления заказа для журнала и аналитики.
type CheckoutEventType string

const (
	CheckoutEventOrderCreated      CheckoutEventType = "checkout.order_created"
	CheckoutEventPaymentRedirected CheckoutEventType = "checkout.payment_redirected"
	CheckoutEventPaymentSucceeded  CheckoutEventType = "checkout.payment_succeeded"
	CheckoutEventPaymentFailed     CheckoutEventType = "checkout.payment_failed"
	CheckoutEventOrderCancelled    CheckoutEventType = "checkout.order_cancelled"
)

// AggregateCheckout — тип агрегата в сообщениях outbox.
const AggregateCheckout = "checkout"
