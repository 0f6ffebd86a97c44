package session

import (
	"context"
	"errors"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// PendingPayments хранит маркер незавершённого внешнего платежа.
type PendingPayments struct {
	value *PersistedValue[domain.PendingExternalPayment]
}

// NewPendingPayments создаёт хранилище маркера поверх KVStore.
func NewPendingPayments(store domain.KVStore) *PendingPayments {
	return &PendingPayments{
		value: NewPersistedValue[domain.PendingExternalPayment](store, domain.StateKeyPendingPayment),
	}
}

// Load возвращает маркер или domain.ErrPendingPaymentNotFound.
func (p *PendingPayments) Load(ctx context.Context) (domain.PendingExternalPayment, error) {
	pending, err := p.value.Load(ctx)
	if errors.Is(err, domain.ErrKeyNotFound) {
		return domain.PendingExternalPayment{}, domain.ErrPendingPaymentNotFound
	}
	if err != nil {
		return domain.PendingExternalPayment{}, err
	}
	return pending, nil
}

// Store сохраняет валидный маркер.
func (p *PendingPayments) Store(ctx context.Context, pending domain.PendingExternalPayment) error {
	if errs := pending.Validate(); len(errs) > 0 {
		return errors.Join(errs...)
	}
	return p.value.Store(ctx, pending)
}

// Clear удаляет маркер.
func (p *PendingPayments) Clear(ctx context.Context) error {
	return p.value.Clear(ctx)
}
