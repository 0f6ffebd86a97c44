package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// pendingPaymentMessage — текст ошибки сервера при повторной оплате заказа.
const pendingPaymentMessage = "order already has a pending payment"

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// statusError переводит HTTP-статус в таксономию ошибок домена.
func statusError(status int, body []byte) error {
	apiErr := &domain.APIError{StatusCode: status, Message: errorMessage(body)}

	switch {
	case status == http.StatusUnauthorized:
		return fmt.Errorf("%w: %w", domain.ErrUnauthenticated, apiErr)
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: %w", domain.ErrNotFound, apiErr)
	case isConflictStatus(status) && strings.Contains(strings.ToLower(apiErr.Message), pendingPaymentMessage):
		return fmt.Errorf("%w: %w", domain.ErrPaymentAlreadyPending, apiErr)
	case status >= 500:
		return fmt.Errorf("%w: %w", domain.ErrTransient, apiErr)
	case status == http.StatusRequestTimeout || status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", domain.ErrTransient, apiErr)
	default:
		return apiErr
	}
}

func isConflictStatus(status int) bool {
	switch status {
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		return true
	default:
		return false
	}
}

func errorMessage(body []byte) string {
	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Message != "" {
			return parsed.Message
		}
		if parsed.Error != "" {
			return parsed.Error
		}
	}
	text := strings.TrimSpace(string(body))
	if len(text) > 256 {
		text = text[:256]
	}
	return text
}
