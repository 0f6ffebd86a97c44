package domain

import "time"

// GatewayResultSuccess — код результата, которым провайдер сообщает об успешной оплате.
const GatewayResultSuccess = "0"

// ExternalPayment — ответ на создание внешнего платежа.
type ExternalPayment struct {
	PayURL          string
	TransactionID   string
	OriginalOrderID int64
}

// PendingExternalPayment — маркер незавершённого внешнего платежа.
// Хранится вне памяти, чтобы пережить уход браузера на домен провайдера.
type PendingExternalPayment struct {
	OriginalOrderID int64     `json:"originalOrderId"`
	TransactionID   string    `json:"transactionId"`
	CreatedAt       time.Time `json:"createdAt"`
	// ProductIDs — товары заказа; по ним чистится корзина, если выбор потерян при навигации.
	ProductIDs []int64 `json:"productIds,omitempty"`
}

// Validate проверяет корректность полей маркера и возвращает ошибки, если они есть.
func (p *PendingExternalPayment) Validate() []error {
	var errs []error

	switch {
	case p.OriginalOrderID <= 0:
		errs = append(errs, ErrOrderIDRequired)
	case p.TransactionID == "":
		errs = append(errs, ErrTransactionIDRequired)
	}

	return errs
}

// GatewayReturn — параметры возврата с платёжной страницы.
type GatewayReturn struct {
	OrderID    int64
	ResultCode string
}

// Succeeded сообщает, что провайдер вернул код успеха.
func (r GatewayReturn) Succeeded() bool {
	return r.ResultCode == GatewayResultSuccess
}
