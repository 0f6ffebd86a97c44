package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newStubAPI поднимает минимальный REST API магазина с профилем и пустой корзиной.
func newStubAPI(t *testing.T) *httptest.Server {
	t.Helper()

	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/profile", func(w http.ResponseWriter, req *http.Request) {
			if req.Header.Get("Authorization") != "Bearer token-1" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{"id": 7, "name": "Ann", "email": "ann@example.com"})
		})
		r.Get("/cart", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"items":[]}`))
		})
	})

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server
}

func testConfig(apiURL string) Config {
	cfg := DefaultConfig()
	cfg.APIBaseURL = apiURL + "/api/v1"
	cfg.OpsAddr = "127.0.0.1:0"
	cfg.Debounce = 0
	return cfg
}

func newTestRuntime(t *testing.T, cfg Config) *Runtime {
	t.Helper()

	rt, err := NewRuntime(context.Background(), cfg,
		WithRegisterer(prometheus.NewRegistry()),
		WithLogger(testLogger()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })
	return rt
}

func TestRuntime_LoginLogout(t *testing.T) {
	server := newStubAPI(t)
	rt := newTestRuntime(t, testConfig(server.URL))
	ctx := context.Background()

	_, err := rt.Session()
	require.ErrorIs(t, err, ErrNoSession)

	sess, err := rt.Login(ctx, "token-1")
	require.NoError(t, err)
	require.NotNil(t, sess.Cart)
	require.NotNil(t, sess.Wishlist)
	require.NotNil(t, sess.Checkout)

	current, err := rt.Session()
	require.NoError(t, err)
	assert.Same(t, sess, current)

	profile, err := rt.Profile().Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ann", profile.Name)

	require.NoError(t, rt.Logout(ctx))
	_, err = rt.Session()
	require.ErrorIs(t, err, ErrNoSession)

	profile, err = rt.Profile().Fetch(ctx)
	require.NoError(t, err)
	assert.True(t, profile.IsAnonymous())
}

func TestRuntime_LoginReplacesSession(t *testing.T) {
	server := newStubAPI(t)
	rt := newTestRuntime(t, testConfig(server.URL))
	ctx := context.Background()

	first, err := rt.Login(ctx, "token-1")
	require.NoError(t, err)
	second, err := rt.Login(ctx, "token-1")
	require.NoError(t, err)
	assert.NotSame(t, first, second)
}

func TestRuntime_LoginRequiresToken(t *testing.T) {
	server := newStubAPI(t)
	rt := newTestRuntime(t, testConfig(server.URL))

	_, err := rt.Login(context.Background(), "")
	require.Error(t, err)
	_, err = rt.Session()
	require.ErrorIs(t, err, ErrNoSession)
}

func TestRuntime_RestoresPersistedSession(t *testing.T) {
	server := newStubAPI(t)
	mr := miniredis.RunT(t)

	cfg := testConfig(server.URL)
	cfg.StateDriver = StateDriverRedis
	cfg.RedisAddr = mr.Addr()

	first, err := NewRuntime(context.Background(), cfg, WithRegisterer(prometheus.NewRegistry()), WithLogger(testLogger()))
	require.NoError(t, err)
	_, err = first.Login(context.Background(), "token-1")
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second := newTestRuntime(t, cfg)
	sess, err := second.Session()
	require.NoError(t, err)
	require.NotNil(t, sess)
}

// cartStubAPI — REST API с непустой корзиной; запоминает удалённые позиции.
type cartStubAPI struct {
	*httptest.Server

	mu      sync.Mutex
	removed []int64
}

func newCartStubAPI(t *testing.T) *cartStubAPI {
	t.Helper()

	stub := &cartStubAPI{}
	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/cart", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"items":[{"id":1,"productId":10,"quantity":2},{"id":2,"productId":11,"quantity":1}]}`))
		})
		r.Delete("/cart/items/{id}", func(w http.ResponseWriter, req *http.Request) {
			id, err := strconv.ParseInt(chi.URLParam(req, "id"), 10, 64)
			if err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			stub.mu.Lock()
			stub.removed = append(stub.removed, id)
			stub.mu.Unlock()
			w.WriteHeader(http.StatusNoContent)
		})
		r.Get("/products/{id}", func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = fmt.Fprintf(w, `{"id":%s,"name":"item","price":100,"available":true,"quantity":5}`, chi.URLParam(req, "id"))
		})
		r.Get("/wishlist", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"content":[],"pageNumber":0,"pageSize":20,"totalElements":0,"totalPages":0,"last":true}`))
		})
	})

	stub.Server = httptest.NewServer(r)
	t.Cleanup(stub.Server.Close)
	return stub
}

func (s *cartStubAPI) Removed() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int64(nil), s.removed...)
}

func TestRuntime_LoginLoadsCart(t *testing.T) {
	stub := newCartStubAPI(t)
	rt := newTestRuntime(t, testConfig(stub.URL))

	sess, err := rt.Login(context.Background(), "token-1")
	require.NoError(t, err)

	snap := sess.Cart.Snapshot()
	require.Len(t, snap.Lines, 2)
	assert.Len(t, snap.Enriched, 2)
	assert.False(t, sess.Wishlist.Snapshot().Loading)
}

func TestRuntime_RestoredSessionLoadsCart(t *testing.T) {
	stub := newCartStubAPI(t)
	mr := miniredis.RunT(t)

	cfg := testConfig(stub.URL)
	cfg.StateDriver = StateDriverRedis
	cfg.RedisAddr = mr.Addr()

	first, err := NewRuntime(context.Background(), cfg, WithRegisterer(prometheus.NewRegistry()), WithLogger(testLogger()))
	require.NoError(t, err)
	_, err = first.Login(context.Background(), "token-1")
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second := newTestRuntime(t, cfg)
	sess, err := second.Session()
	require.NoError(t, err)
	assert.Len(t, sess.Cart.Snapshot().Lines, 2)
}
