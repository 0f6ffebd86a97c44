package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

func TestClient_CartMutations(t *testing.T) {
	var removed, cleared bool
	r := chi.NewRouter()
	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Post("/items", func(w http.ResponseWriter, req *http.Request) {
			var body cartItemRequest
			require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
			assert.Equal(t, cartItemRequest{ProductID: 10, Quantity: 3}, body)
			writeJSON(w, http.StatusCreated, map[string]any{"id": 5, "productId": 10, "quantity": 3})
		})
		r.Put("/items/{id}", func(w http.ResponseWriter, req *http.Request) {
			assert.Equal(t, "5", chi.URLParam(req, "id"))
			w.WriteHeader(http.StatusNoContent)
		})
		r.Delete("/items/{id}", func(w http.ResponseWriter, _ *http.Request) {
			removed = true
			w.WriteHeader(http.StatusNoContent)
		})
		r.Delete("/", func(w http.ResponseWriter, _ *http.Request) {
			cleared = true
			w.WriteHeader(http.StatusNoContent)
		})
	})
	client := newTestClient(t, r, "secret")
	ctx := context.Background()

	line, err := client.AddCartItem(ctx, 10, 3)
	require.NoError(t, err)
	assert.Equal(t, domain.CartLine{ID: 5, ProductID: 10, Quantity: 3}, line)

	updated, err := client.UpdateCartItem(ctx, 5, 4)
	require.NoError(t, err)
	assert.Equal(t, int32(4), updated.Quantity)

	require.NoError(t, client.RemoveCartItem(ctx, 5))
	require.NoError(t, client.ClearCart(ctx))
	assert.True(t, removed)
	assert.True(t, cleared)
}

func TestClient_ProductAndCatalog(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/v1/products/{id}", func(w http.ResponseWriter, req *http.Request) {
		assert.Empty(t, req.Header.Get("Authorization"), "public read must not carry a token")
		writeJSON(w, http.StatusOK, map[string]any{"id": 7, "name": "Mug", "price": 450, "available": true, "quantity": 3})
	})
	r.Get("/api/v1/news", func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "2", req.URL.Query().Get("page"))
		assert.Equal(t, "5", req.URL.Query().Get("size"))
		writeJSON(w, http.StatusOK, map[string]any{
			"content":       []map[string]any{{"id": 1, "title": "hello"}},
			"pageNumber":    2,
			"pageSize":      5,
			"totalElements": 11,
			"totalPages":    3,
			"last":          true,
		})
	})
	r.Get("/api/v1/news/{id}", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"id": 1, "title": "hello"})
	})
	r.Get("/api/v1/home/banners", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{{"id": 1, "title": "sale", "position": 1}})
	})
	r.Get("/api/v1/filters", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{{"name": "brand", "values": []string{"acme"}}})
	})
	client := newTestClient(t, r, "")
	ctx := context.Background()

	product, err := client.GetProduct(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, domain.Product{ID: 7, Name: "Mug", PriceMinor: 450, Available: true, Quantity: 3}, product)

	news, err := client.ListNews(ctx, domain.PageRequest{Number: 2, Size: 5})
	require.NoError(t, err)
	assert.Len(t, news.Items, 1)
	assert.Equal(t, int64(11), news.TotalElements)
	assert.True(t, news.LastPage)

	article, err := client.GetNews(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "hello", article.Title)

	banners, err := client.GetHomeBanners(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, banners[0].Position)

	filters, err := client.GetFilters(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"acme"}, filters[0].Values)
}

func TestClient_WishlistMissingContentIsEmptyPage(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/v1/wishlist", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"totalElements": 0})
	})
	r.Post("/api/v1/wishlist", func(w http.ResponseWriter, req *http.Request) {
		var body wishlistRequest
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		assert.Equal(t, int64(3), body.ProductID)
		w.WriteHeader(http.StatusCreated)
	})
	r.Delete("/api/v1/wishlist/{productID}", func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "3", chi.URLParam(req, "productID"))
		w.WriteHeader(http.StatusNoContent)
	})
	client := newTestClient(t, r, "secret")
	ctx := context.Background()

	page, err := client.GetWishlist(ctx, domain.PageRequest{})
	require.NoError(t, err)
	assert.NotNil(t, page.Items)
	assert.True(t, page.IsEmpty())
	assert.Equal(t, domain.DefaultPageSize, page.PageSize)
	assert.True(t, page.LastPage)

	require.NoError(t, client.AddWishlistItem(ctx, 3))
	require.NoError(t, client.RemoveWishlistItem(ctx, 3))
}

func TestClient_OrderPaymentProfile(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/v1/addresses", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"content": []map[string]any{{"id": 9, "recipient": "Ann", "default": true}},
		})
	})
	r.Post("/api/v1/orders", func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "attempt-1", req.Header.Get("Idempotency-Key"))
		var body createOrderRequest
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		assert.Equal(t, "external_gateway", body.PaymentMethod)
		assert.Equal(t, int64(500), body.ShippingFee)
		writeJSON(w, http.StatusCreated, map[string]any{
			"id":            42,
			"total":         1500,
			"paymentMethod": body.PaymentMethod,
			"items":         body.Items,
			"status":        "pending",
		})
	})
	r.Post("/api/v1/orders/{id}/cancel", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"id": 42, "status": "cancelled"})
	})
	r.Post("/api/v1/payments/external", func(w http.ResponseWriter, req *http.Request) {
		var body externalPaymentRequest
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		assert.Equal(t, int64(1500), body.Amount)
		writeJSON(w, http.StatusOK, map[string]any{"payUrl": "https://pay.example/tx1", "transactionId": "tx1"})
	})
	r.Get("/api/v1/profile", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"id": 3, "name": "Ann", "email": "ann@example.com"})
	})
	client := newTestClient(t, r, "secret")
	ctx := context.Background()

	addresses, err := client.GetAddresses(ctx, domain.PageRequest{})
	require.NoError(t, err)
	require.Len(t, addresses.Items, 1)
	assert.True(t, addresses.Items[0].Default)

	order, err := client.CreateOrder(ctx, domain.OrderDraft{
		ShippingAddressID: 9,
		PaymentMethod:     domain.PaymentExternalGateway,
		ShippingFeeMinor:  500,
		Items:             []domain.OrderItem{{ProductID: 10, Quantity: 2, PriceMinor: 500}},
		IdempotencyKey:    "attempt-1",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), order.ID)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.True(t, order.HasProduct(10))

	cancelled, err := client.CancelOrder(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, cancelled.Status)

	payment, err := client.CreateExternalPayment(ctx, 42, "Order #42", 1500)
	require.NoError(t, err)
	assert.Equal(t, domain.ExternalPayment{PayURL: "https://pay.example/tx1", TransactionID: "tx1", OriginalOrderID: 42}, payment)

	profile, err := client.GetProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", profile.Email)
}
