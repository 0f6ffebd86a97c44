package cart

import (
	"context"
	"errors"
	"sync"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

var errBoom = errors.New("boom")

type staticTokens struct {
	token string
}

func (s staticTokens) Token(context.Context) (string, bool) {
	return s.token, s.token != ""
}

// stubCartAPI имитирует серверную корзину.
type stubCartAPI struct {
	mu       sync.Mutex
	lines    []domain.CartLine
	nextID   int64
	getCalls int
	updates  int
	removes  []int64
	failOp   map[string]error
	// emptyAdd имитирует ответ AddCartItem без тела.
	emptyAdd bool
	// gate блокирует GetCart, пока тест не отпустит ответ.
	gate chan struct{}
}

func newStubCartAPI(lines ...domain.CartLine) *stubCartAPI {
	return &stubCartAPI{lines: lines, nextID: 100, failOp: make(map[string]error)}
}

func (s *stubCartAPI) fail(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failOp[op] = err
}

func (s *stubCartAPI) GetCart(ctx context.Context) (domain.Cart, error) {
	s.mu.Lock()
	gate := s.gate
	s.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return domain.Cart{}, ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.getCalls++
	if err := s.failOp["get"]; err != nil {
		return domain.Cart{}, err
	}
	return domain.Cart{Lines: append([]domain.CartLine{}, s.lines...)}, nil
}

func (s *stubCartAPI) AddCartItem(_ context.Context, productID int64, qty int32) (domain.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failOp["add"]; err != nil {
		return domain.CartLine{}, err
	}
	for i := range s.lines {
		if s.lines[i].ProductID == productID {
			s.lines[i].Quantity += qty
			if s.emptyAdd {
				return domain.CartLine{}, nil
			}
			return s.lines[i], nil
		}
	}
	s.nextID++
	line := domain.CartLine{ID: s.nextID, ProductID: productID, Quantity: qty}
	s.lines = append(s.lines, line)
	if s.emptyAdd {
		return domain.CartLine{}, nil
	}
	return line, nil
}

func (s *stubCartAPI) UpdateCartItem(_ context.Context, id int64, qty int32) (domain.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates++
	if err := s.failOp["update"]; err != nil {
		return domain.CartLine{}, err
	}
	for i := range s.lines {
		if s.lines[i].ID == id {
			s.lines[i].Quantity = qty
			return s.lines[i], nil
		}
	}
	return domain.CartLine{}, domain.ErrNotFound
}

func (s *stubCartAPI) RemoveCartItem(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failOp["remove"]; err != nil {
		return err
	}
	s.removes = append(s.removes, id)
	kept := s.lines[:0]
	for _, line := range s.lines {
		if line.ID != id {
			kept = append(kept, line)
		}
	}
	s.lines = kept
	return nil
}

func (s *stubCartAPI) ClearCart(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failOp["clear"]; err != nil {
		return err
	}
	s.lines = nil
	return nil
}

func (s *stubCartAPI) GetCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getCalls
}

// stubCatalog отдаёт карточки товаров; missing имитирует неудачную загрузку.
type stubCatalog struct {
	mu        sync.Mutex
	products  map[int64]domain.Product
	missing   map[int64]bool
	liveErr   error
	liveCalls int
}

func newStubCatalog(products ...domain.Product) *stubCatalog {
	c := &stubCatalog{products: make(map[int64]domain.Product), missing: make(map[int64]bool)}
	for _, p := range products {
		c.products[p.ID] = p
	}
	return c
}

func (c *stubCatalog) Products(_ context.Context, ids []int64) (map[int64]domain.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	result := make(map[int64]domain.Product, len(ids))
	for _, id := range ids {
		if p, ok := c.products[id]; ok && !c.missing[id] {
			result[id] = p
		}
	}
	return result, nil
}

func (c *stubCatalog) LiveProduct(_ context.Context, id int64) (domain.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.liveCalls++
	if c.liveErr != nil {
		return domain.Product{}, c.liveErr
	}
	p, ok := c.products[id]
	if !ok {
		return domain.Product{}, domain.ErrNotFound
	}
	return p, nil
}

func scenarioLines() []domain.CartLine {
	return []domain.CartLine{
		{ID: 1, ProductID: 10, Quantity: 2},
		{ID: 2, ProductID: 11, Quantity: 1},
	}
}

func scenarioCatalog() *stubCatalog {
	return newStubCatalog(
		domain.Product{ID: 10, Name: "Mug", PriceMinor: 450, Available: true, Quantity: 5},
		domain.Product{ID: 11, Name: "Tea", PriceMinor: 300, Available: true, Quantity: 1},
		domain.Product{ID: 12, Name: "Spoon", PriceMinor: 120, Available: true, Quantity: 10},
	)
}
