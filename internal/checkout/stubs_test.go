package checkout

import (
	"context"
	"sync"

	"github.com/vladislavdragonenkov/storefront/internal/cart"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type staticTokens struct {
	token string
}

func (s staticTokens) Token(context.Context) (string, bool) {
	return s.token, s.token != ""
}

// fakeCart держит позиции и выбор без сети.
type fakeCart struct {
	mu        sync.Mutex
	lines     []domain.EnrichedCartLine
	selection map[int64]struct{}
	removed   []int64
	removeErr map[int64]error
}

func newFakeCart(lines ...domain.EnrichedCartLine) *fakeCart {
	return &fakeCart{
		lines:     lines,
		selection: make(map[int64]struct{}),
		removeErr: make(map[int64]error),
	}
}

func (f *fakeCart) selectLines(ids ...int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		f.selection[id] = struct{}{}
	}
}

func (f *fakeCart) SelectedLines() []domain.EnrichedCartLine {
	f.mu.Lock()
	defer f.mu.Unlock()
	var selected []domain.EnrichedCartLine
	for _, line := range f.lines {
		if _, ok := f.selection[line.ID]; ok {
			selected = append(selected, line)
		}
	}
	return selected
}

func (f *fakeCart) Snapshot() cart.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap := cart.Snapshot{}
	for _, line := range f.lines {
		snap.Lines = append(snap.Lines, line.CartLine)
		snap.Enriched = append(snap.Enriched, line)
	}
	for id := range f.selection {
		snap.Selection = append(snap.Selection, id)
	}
	return snap
}

func (f *fakeCart) RemoveLine(_ context.Context, lineID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.removeErr[lineID]; err != nil {
		return err
	}
	f.removed = append(f.removed, lineID)
	kept := f.lines[:0]
	for _, line := range f.lines {
		if line.ID != lineID {
			kept = append(kept, line)
		}
	}
	f.lines = kept
	delete(f.selection, lineID)
	return nil
}

func (f *fakeCart) ClearSelection() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.selection = make(map[int64]struct{})
}

func (f *fakeCart) Removed() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64{}, f.removed...)
}

func (f *fakeCart) LineIDs() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]int64, 0, len(f.lines))
	for _, line := range f.lines {
		ids = append(ids, line.ID)
	}
	return ids
}

type stubOrders struct {
	mu        sync.Mutex
	nextID    int64
	drafts    []domain.OrderDraft
	createErr error
	cancelled []int64
}

func (s *stubOrders) CreateOrder(_ context.Context, draft domain.OrderDraft) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts = append(s.drafts, draft)
	if s.createErr != nil {
		return domain.Order{}, s.createErr
	}
	return domain.Order{
		ID:                s.nextID,
		TotalMinor:        draft.TotalMinor(),
		PaymentMethod:     draft.PaymentMethod,
		ShippingAddressID: draft.ShippingAddressID,
		Items:             draft.Items,
		Status:            domain.OrderStatusPending,
	}, nil
}

func (s *stubOrders) CancelOrder(_ context.Context, id int64) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelled = append(s.cancelled, id)
	return domain.Order{ID: id, Status: domain.OrderStatusCancelled}, nil
}

func (s *stubOrders) Drafts() []domain.OrderDraft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.OrderDraft{}, s.drafts...)
}

type paymentCall struct {
	OrderID     int64
	Description string
	AmountMinor int64
}

type stubPayments struct {
	mu    sync.Mutex
	calls []paymentCall
	err   error
}

func (s *stubPayments) CreateExternalPayment(_ context.Context, orderID int64, description string, amountMinor int64) (domain.ExternalPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, paymentCall{OrderID: orderID, Description: description, AmountMinor: amountMinor})
	if s.err != nil {
		return domain.ExternalPayment{}, s.err
	}
	return domain.ExternalPayment{
		PayURL:          "https://pay.example/checkout/t-1",
		TransactionID:   "t-1",
		OriginalOrderID: orderID,
	}, nil
}

func (s *stubPayments) Calls() []paymentCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]paymentCall{}, s.calls...)
}

// scenarioLines: две позиции, 2 x 450 и 1 x 300.
func scenarioLines() []domain.EnrichedCartLine {
	return []domain.EnrichedCartLine{
		{CartLine: domain.CartLine{ID: 1, ProductID: 10, Quantity: 2}, ProductName: "Mug", PriceMinor: 450, IsAvailable: true, AvailableQty: 5},
		{CartLine: domain.CartLine{ID: 2, ProductID: 11, Quantity: 1}, ProductName: "Tea", PriceMinor: 300, IsAvailable: true, AvailableQty: 3},
		{CartLine: domain.CartLine{ID: 3, ProductID: 12, Quantity: 1}, ProductName: "Spoon", PriceMinor: 120, IsAvailable: true, AvailableQty: 9},
	}
}
