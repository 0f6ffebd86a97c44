package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation — общий маркер локальной ошибки валидации (запрос в сеть не отправлялся).
	ErrValidation = errors.New("validation failed")
	// ErrUnauthenticated — сервер ответил 401 или токен сессии отсутствует.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrTransient — временная ошибка сети или сервера; повтор инициирует пользователь.
	ErrTransient = errors.New("transient failure")
	// ErrPaymentAlreadyPending — у заказа уже есть незавершённый внешний платёж.
	ErrPaymentAlreadyPending = errors.New("order already has a pending payment")
	// ErrNotFound — запрошенный ресурс не найден на сервере.
	ErrNotFound = errors.New("resource not found")
	// ErrPendingPaymentNotFound — маркер внешнего платежа не сохранён.
	ErrPendingPaymentNotFound = errors.New("pending external payment not found")
	// ErrTokenNotFound — токен сессии не сохранён.
	ErrTokenNotFound = errors.New("session token not found")
	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")

	// Ошибка отсутствия позиций в заказе.
	ErrItemsRequired = errors.New("order must contain at least one item")
	// Ошибка при некорректном количестве товара (<= 0).
	ErrItemQtyInvalid = errors.New("item qty must be greater than zero")
	// Ошибка, если цена позиции отрицательная.
	ErrItemPriceInvalid = errors.New("item price must be non-negative")
	// Ошибка несоответствия суммы заказа и сумм позиций.
	ErrAmountMismatch = errors.New("order total does not match items sum")
	// Ошибка отсутствующего идентификатора заказа во внешнем платеже.
	ErrOrderIDRequired = errors.New("order_id is required")
	// Ошибка отсутствующего идентификатора транзакции во внешнем платеже.
	ErrTransactionIDRequired = errors.New("transaction_id is required")
)

// ErrLineNotFound — строка корзины отсутствует в локальном состоянии.
// Является ошибкой валидации: запрос в сеть не отправляется.
var ErrLineNotFound error = &ValidationError{Field: "line_id", Reason: "cart line not found"}

// ValidationError описывает нарушение локального предусловия конкретного поля.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

// Is позволяет сравнивать любую ValidationError с ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError создаёт ошибку валидации поля.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// APIError — постоянная ошибка сервера (4xx, кроме 401).
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("api error: status %d: %s", e.StatusCode, e.Message)
}

// ErrorKind — класс ошибки для выбора реакции интерфейса.
type ErrorKind string

const (
	KindNone            ErrorKind = ""
	KindValidation      ErrorKind = "validation"
	KindUnauthenticated ErrorKind = "unauthenticated"
	KindTransient       ErrorKind = "transient"
	KindConflict        ErrorKind = "conflict"
	KindPermanent       ErrorKind = "permanent"
)

// Classify относит ошибку к одному из классов таксономии.
func Classify(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrUnauthenticated):
		return KindUnauthenticated
	case errors.Is(err, ErrPaymentAlreadyPending):
		return KindConflict
	case errors.Is(err, ErrTransient):
		return KindTransient
	default:
		return KindPermanent
	}
}

// IsValidation проверяет, является ли ошибка локальной ошибкой валидации.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsUnauthenticated проверяет, требует ли ошибка повторного входа.
func IsUnauthenticated(err error) bool {
	return errors.Is(err, ErrUnauthenticated)
}
