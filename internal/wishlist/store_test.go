package wishlist

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const testWindow = 20 * time.Millisecond

type staticTokens struct {
	token string
}

func (s staticTokens) Token(context.Context) (string, bool) {
	return s.token, s.token != ""
}

type stubWishlistAPI struct {
	mu       sync.Mutex
	items    []domain.WishlistItem
	getCalls []domain.PageRequest
	addErr   error
}

func (s *stubWishlistAPI) GetWishlist(_ context.Context, page domain.PageRequest) (domain.Page[domain.WishlistItem], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getCalls = append(s.getCalls, page)

	start := page.Number * page.Size
	end := start + page.Size
	if start > len(s.items) {
		start = len(s.items)
	}
	if end > len(s.items) {
		end = len(s.items)
	}
	totalPages := (len(s.items) + page.Size - 1) / page.Size
	return domain.Page[domain.WishlistItem]{
		Items:         append([]domain.WishlistItem{}, s.items[start:end]...),
		PageNumber:    page.Number,
		PageSize:      page.Size,
		TotalElements: int64(len(s.items)),
		TotalPages:    totalPages,
		LastPage:      page.Number >= totalPages-1,
	}, nil
}

func (s *stubWishlistAPI) AddWishlistItem(_ context.Context, productID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.addErr != nil {
		return s.addErr
	}
	s.items = append(s.items, domain.WishlistItem{ProductID: productID})
	return nil
}

func (s *stubWishlistAPI) RemoveWishlistItem(_ context.Context, productID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.items[:0]
	for _, item := range s.items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	s.items = kept
	return nil
}

func (s *stubWishlistAPI) Calls() []domain.PageRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.PageRequest{}, s.getCalls...)
}

func TestRefreshNow_LoadsPage(t *testing.T) {
	api := &stubWishlistAPI{items: []domain.WishlistItem{{ProductID: 1}, {ProductID: 2}, {ProductID: 3}}}
	store := NewStore(api, staticTokens{token: "secret"})
	t.Cleanup(store.Close)

	require.NoError(t, store.RefreshNow(context.Background(), 0, 2))

	snap := store.Snapshot()
	assert.Len(t, snap.Page.Items, 2)
	assert.Equal(t, int64(3), store.Count())
	assert.True(t, store.Contains(2))
	assert.False(t, store.Contains(3))
}

func TestRefreshNow_NoTokenEmptyPage(t *testing.T) {
	api := &stubWishlistAPI{items: []domain.WishlistItem{{ProductID: 1}}}
	store := NewStore(api, staticTokens{})
	t.Cleanup(store.Close)

	require.NoError(t, store.RefreshNow(context.Background(), 1, 5))

	snap := store.Snapshot()
	assert.True(t, snap.Page.IsEmpty())
	assert.NotNil(t, snap.Page.Items)
	assert.Equal(t, 1, snap.Page.PageNumber)
	assert.Empty(t, api.Calls())
}

func TestRefresh_CoalescesToLastPage(t *testing.T) {
	api := &stubWishlistAPI{items: []domain.WishlistItem{{ProductID: 1}, {ProductID: 2}}}
	store := NewStore(api, staticTokens{token: "secret"}, WithWindow(testWindow))
	t.Cleanup(store.Close)

	ctx := context.Background()
	store.Refresh(ctx, 0, 1)
	last := store.Refresh(ctx, 1, 1)

	select {
	case res := <-last:
		require.NoError(t, res.Err)
		assert.Equal(t, 1, res.Value.Page.PageNumber)
	case <-time.After(time.Second):
		t.Fatal("refresh did not settle")
	}
	assert.Equal(t, []domain.PageRequest{{Number: 1, Size: 1}}, api.Calls())
}

func TestAdd_RefreshesWithServerTotal(t *testing.T) {
	api := &stubWishlistAPI{}
	store := NewStore(api, staticTokens{token: "secret"})
	t.Cleanup(store.Close)
	ctx := context.Background()

	require.NoError(t, store.RefreshNow(ctx, 0, 10))
	require.NoError(t, store.Add(ctx, 5))

	assert.True(t, store.Contains(5))
	assert.Equal(t, int64(1), store.Count())

	require.NoError(t, store.Remove(ctx, 5))
	assert.False(t, store.Contains(5))
	assert.Zero(t, store.Count())
}

func TestAdd_FailureResyncs(t *testing.T) {
	api := &stubWishlistAPI{addErr: domain.ErrTransient}
	store := NewStore(api, staticTokens{token: "secret"})
	t.Cleanup(store.Close)
	ctx := context.Background()

	require.NoError(t, store.RefreshNow(ctx, 0, 10))
	before := len(api.Calls())

	require.ErrorIs(t, store.Add(ctx, 5), domain.ErrTransient)
	assert.Len(t, api.Calls(), before+1)
}

func TestAdd_Validation(t *testing.T) {
	api := &stubWishlistAPI{}
	store := NewStore(api, staticTokens{token: "secret"})
	t.Cleanup(store.Close)

	require.True(t, domain.IsValidation(store.Add(context.Background(), 0)))
	assert.Empty(t, api.Calls())
}
