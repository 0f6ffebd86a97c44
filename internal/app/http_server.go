package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/checkout"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/storefront/internal/health"
)

const (
	opsRequestTimeout = 15 * time.Second
	maxLoginBodyBytes = 1 << 16
)

type routeResponse struct {
	Route   string `json:"route"`
	OrderID int64  `json:"order_id,omitempty"`
	URL     string `json:"url,omitempty"`
	Message string `json:"message,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

type loginRequest struct {
	Token string `json:"token"`
}

// newOpsRouter собирает служебный HTTP API: метрики, health-пробы и возврат с платёжной страницы.
func newOpsRouter(rt *Runtime, healthHandler *healthcheck.Handler, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(opsRequestTimeout))

	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Method(http.MethodGet, "/healthz", healthHandler)
	r.Get("/livez", healthcheck.LivenessHandler)
	r.Get("/readyz", healthHandler.ReadinessHandler)

	r.Get("/checkout/return", rt.handleCheckoutReturn)
	r.Post("/session", rt.handleLogin)
	r.Delete("/session", rt.handleLogout)
	return r
}

func (r *Runtime) handleCheckoutReturn(w http.ResponseWriter, req *http.Request) {
	sess, err := r.Session()
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error(), Kind: string(domain.KindUnauthenticated)})
		return
	}

	outcome, err := sess.Checkout.Reconcile(req.Context(), req.URL.Query())
	if err != nil {
		r.logger.WithError(err).Warn("checkout return reconciliation failed")
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error(), Kind: string(domain.Classify(err))})
		return
	}
	writeJSON(w, http.StatusOK, newRouteResponse(outcome))
}

func (r *Runtime) handleLogin(w http.ResponseWriter, req *http.Request) {
	var body loginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxLoginBodyBytes)).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body", Kind: string(domain.KindValidation)})
		return
	}

	if _, err := r.Login(req.Context(), body.Token); err != nil {
		status := http.StatusInternalServerError
		if domain.IsValidation(err) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, errorResponse{Error: err.Error(), Kind: string(domain.Classify(err))})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (r *Runtime) handleLogout(w http.ResponseWriter, req *http.Request) {
	if err := r.Logout(req.Context()); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func newRouteResponse(outcome checkout.Outcome) routeResponse {
	kind := string(outcome.Route.Kind)
	if outcome.Route.Kind == checkout.RouteNone {
		kind = "none"
	}
	return routeResponse{
		Route:   kind,
		OrderID: outcome.Route.OrderID,
		URL:     outcome.Route.URL,
		Message: outcome.Message,
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// startOpsServer запускает служебный HTTP-сервер и останавливает его при отмене ctx.
func startOpsServer(ctx context.Context, addr string, handler http.Handler, logger *log.Entry) (*http.Server, <-chan error) {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)

	go func() {
		logger.Infof("ops endpoints: %s/metrics, /healthz, /livez, /readyz, /checkout/return", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv, errCh
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("ops server shutdown with error")
	}
}
