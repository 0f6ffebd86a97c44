package checkout

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

var (
	orderIDParams    = []string{"orderId", "order_id"}
	resultCodeParams = []string{"resultCode", "result_code", "errorCode"}
)

// ParseReturn извлекает параметры возврата с платёжной страницы.
// ok=false, если нет номера заказа или кода результата.
func ParseReturn(values url.Values) (domain.GatewayReturn, bool) {
	rawID := firstParam(values, orderIDParams)
	code := firstParam(values, resultCodeParams)
	if rawID == "" || code == "" {
		return domain.GatewayReturn{}, false
	}

	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id <= 0 {
		return domain.GatewayReturn{}, false
	}
	return domain.GatewayReturn{OrderID: id, ResultCode: code}, true
}

// ParseReturnURL разбирает полный URL возврата или только его query.
func ParseReturnURL(raw string) (domain.GatewayReturn, bool) {
	raw = strings.TrimSpace(raw)
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		raw = raw[i+1:]
	}
	if i := strings.IndexByte(raw, '#'); i >= 0 {
		raw = raw[:i]
	}
	values, err := url.ParseQuery(raw)
	if err != nil {
		return domain.GatewayReturn{}, false
	}
	return ParseReturn(values)
}

func firstParam(values url.Values, names []string) string {
	for _, name := range names {
		if v := strings.TrimSpace(values.Get(name)); v != "" {
			return v
		}
	}
	return ""
}

// Reconcile сверяет возврат с платёжной страницы с сохранённым маркером.
// Маркер удаляется при любом исходе, поэтому повторный вызов корзину не трогает.
func (o *Orchestrator) Reconcile(ctx context.Context, values url.Values) (Outcome, error) {
	ret, ok := ParseReturn(values)
	if !ok {
		o.metrics.RecordReconciliation("ignored")
		return Outcome{Route: Route{Kind: RouteNone}}, nil
	}
	return o.ReconcileReturn(ctx, ret)
}

// ReconcileReturn выполняет сверку по уже разобранным параметрам.
func (o *Orchestrator) ReconcileReturn(ctx context.Context, ret domain.GatewayReturn) (Outcome, error) {
	logger := o.logger.WithFields(log.Fields{
		"order_id":    ret.OrderID,
		"result_code": ret.ResultCode,
	})

	marker, found, err := o.loadMarker(ctx)
	if err != nil {
		logger.WithError(err).Warn("load pending payment failed, treating as absent")
	}
	if clearErr := o.pending.Clear(ctx); clearErr != nil {
		logger.WithError(clearErr).Warn("clear pending payment failed")
	}

	order := domain.Order{ID: ret.OrderID}
	outcome := Outcome{Route: Route{Kind: RouteCheckout}, Order: order}
	if ret.Succeeded() {
		outcome.Route = Route{Kind: RouteOrder, OrderID: ret.OrderID}
	}

	switch {
	case !found:
		o.metrics.RecordReconciliation("no_marker")
		logger.Debug("no pending payment, nothing to reconcile")
		return outcome, nil
	case marker.OriginalOrderID != ret.OrderID:
		o.metrics.RecordReconciliation("stale")
		logger.WithField("marker_order_id", marker.OriginalOrderID).Warn("stale pending payment discarded")
		return outcome, nil
	}

	if !ret.Succeeded() {
		o.metrics.RecordReconciliation("failed")
		o.emit(domain.CheckoutEventPaymentFailed, order, map[string]any{
			"result_code":    ret.ResultCode,
			"transaction_id": marker.TransactionID,
		})
		logger.Info("external payment not completed")
		return outcome, nil
	}

	products := make(map[int64]struct{}, len(marker.ProductIDs))
	for _, id := range marker.ProductIDs {
		products[id] = struct{}{}
	}
	o.removePurchased(ctx, ret.OrderID, o.cart.SelectedLines(), products)

	o.metrics.RecordReconciliation("succeeded")
	o.emit(domain.CheckoutEventPaymentSucceeded, order, map[string]any{
		"transaction_id": marker.TransactionID,
	})
	logger.Info("external payment confirmed")
	return outcome, nil
}

func (o *Orchestrator) loadMarker(ctx context.Context) (domain.PendingExternalPayment, bool, error) {
	marker, err := o.pending.Load(ctx)
	switch {
	case err == nil:
		return marker, true, nil
	case errors.Is(err, domain.ErrPendingPaymentNotFound):
		return domain.PendingExternalPayment{}, false, nil
	default:
		return domain.PendingExternalPayment{}, false, err
	}
}
