package domain

import "time"

// OrderStatus описывает статус заказа, как его видит сервер.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusConfirmed OrderStatus = "confirmed"
	// Единственный статус, который клиент выставляет сам.
	OrderStatusCancelled OrderStatus = "cancelled"
)

// PaymentMethod — способ оплаты заказа.
type PaymentMethod string

const (
	// PaymentOnDelivery — оплата при получении; корзина очищается сразу.
	PaymentOnDelivery PaymentMethod = "on_delivery"
	// PaymentExternalGateway — оплата на странице внешнего провайдера через редирект.
	PaymentExternalGateway PaymentMethod = "external_gateway"
)

// Valid проверяет, что способ оплаты поддерживается.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentOnDelivery, PaymentExternalGateway:
		return true
	default:
		return false
	}
}

// OrderItem представляет одну позицию заказа.
type OrderItem struct {
	ProductID  int64
	Quantity   int32
	PriceMinor int64
}

// OrderDraft — тело запроса на создание заказа.
type OrderDraft struct {
	ShippingAddressID int64
	PaymentMethod     PaymentMethod
	ShippingFeeMinor  int64
	Items             []OrderItem
	Note              string
	// IdempotencyKey защищает от дублей при повторной отправке той же попытки.
	IdempotencyKey string
}

// ItemsTotalMinor возвращает сумму позиций без доставки.
func (d *OrderDraft) ItemsTotalMinor() int64 {
	var total int64
	for _, item := range d.Items {
		total += int64(item.Quantity) * item.PriceMinor
	}
	return total
}

// TotalMinor возвращает итог заказа с доставкой.
func (d *OrderDraft) TotalMinor() int64 {
	return d.ItemsTotalMinor() + d.ShippingFeeMinor
}

// ValidateInvariants проверяет базовые инварианты черновика и возвращает список замечаний.
func (d *OrderDraft) ValidateInvariants() []error {
	var errs []error

	if d.ShippingAddressID <= 0 {
		errs = append(errs, NewValidationError("shipping_address_id", "is required"))
	}
	if !d.PaymentMethod.Valid() {
		errs = append(errs, NewValidationError("payment_method", "is required"))
	}
	if len(d.Items) == 0 {
		errs = append(errs, ErrItemsRequired)
	}
	for _, item := range d.Items {
		if item.Quantity <= 0 {
			errs = append(errs, ErrItemQtyInvalid)
		}
		if item.PriceMinor < 0 {
			errs = append(errs, ErrItemPriceInvalid)
		}
	}

	return errs
}

// Order — заказ в том виде, в котором клиент получает его при создании.
type Order struct {
	ID                int64
	TotalMinor        int64
	PaymentMethod     PaymentMethod
	ShippingAddressID int64
	Items             []OrderItem
	Status            OrderStatus
	CreatedAt         time.Time
}

// ValidateInvariants сверяет итог заказа с позициями и доставкой.
func (o *Order) ValidateInvariants(shippingFeeMinor int64) []error {
	var errs []error

	if len(o.Items) == 0 {
		errs = append(errs, ErrItemsRequired)
	}

	// Сверяем сумму заказа с суммой позиций: qty * price + доставка.
	calc := shippingFeeMinor
	for _, item := range o.Items {
		if item.Quantity <= 0 {
			errs = append(errs, ErrItemQtyInvalid)
		}
		if item.PriceMinor < 0 {
			errs = append(errs, ErrItemPriceInvalid)
		}
		calc += int64(item.Quantity) * item.PriceMinor
	}
	if calc != o.TotalMinor {
		errs = append(errs, ErrAmountMismatch)
	}

	return errs
}

// HasProduct сообщает, содержит ли заказ товар.
func (o *Order) HasProduct(productID int64) bool {
	for _, item := range o.Items {
		if item.ProductID == productID {
			return true
		}
	}
	return false
}
