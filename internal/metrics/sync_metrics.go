package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SyncMetrics содержит метрики синхронизации клиентского состояния.
// Все методы безопасны для nil-получателя: компоненты без метрик просто их не пишут.
type SyncMetrics struct {
	// Вызовы коалесцера: scheduled / superseded / dispatched
	coalescerCalls *prometheus.CounterVec

	// Обращения к memo-кэшам: hit / miss / error
	cacheLookups *prometheus.CounterVec

	// Перезагрузки сторов: applied / stale / failed / anonymous
	storeRefreshes *prometheus.CounterVec
	storeMutations *prometheus.CounterVec

	// Исходы оформления заказа и сверки возврата с платёжной страницы
	checkoutOutcomes *prometheus.CounterVec
	reconciliations  *prometheus.CounterVec

	// Длительность запросов к REST API
	apiRequestDuration *prometheus.HistogramVec

	outboxEvents prometheus.Counter
}

// NewSyncMetrics создаёт метрики в DefaultRegisterer.
func NewSyncMetrics() *SyncMetrics {
	return NewSyncMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewSyncMetricsWithRegisterer создаёт метрики в заданном registerer (в тестах отдельный registry).
func NewSyncMetricsWithRegisterer(registerer prometheus.Registerer) *SyncMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &SyncMetrics{
		coalescerCalls: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "storefront_coalescer_calls_total",
			Help: "Total number of coalesced calls grouped by coalescer and event",
		}, []string{"coalescer", "event"}),
		cacheLookups: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "storefront_memo_cache_lookups_total",
			Help: "Total number of memo cache lookups grouped by cache and result",
		}, []string{"cache", "result"}),
		storeRefreshes: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "storefront_store_refreshes_total",
			Help: "Total number of store reloads grouped by store and result",
		}, []string{"store", "result"}),
		storeMutations: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "storefront_store_mutations_total",
			Help: "Total number of store mutations grouped by store, operation and result",
		}, []string{"store", "operation", "result"}),
		checkoutOutcomes: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "storefront_checkout_outcomes_total",
			Help: "Total number of checkout attempts grouped by payment method and result",
		}, []string{"method", "result"}),
		reconciliations: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "storefront_payment_reconciliations_total",
			Help: "Total number of gateway return reconciliations grouped by result",
		}, []string{"result"}),
		apiRequestDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "storefront_api_request_duration_seconds",
			Help:    "Duration of REST API requests in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		}, []string{"endpoint", "status"}),
		outboxEvents: registerCounter(registerer, prometheus.CounterOpts{
			Name: "storefront_outbox_events_total",
			Help: "Total number of checkout events enqueued into outbox",
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogramVec(registerer prometheus.Registerer, opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	collector := prometheus.NewHistogramVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.HistogramVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram vec %q: %v", opts.Name, err))
	}
	return collector
}

// RecordCoalescerEvent учитывает событие коалесцера.
func (m *SyncMetrics) RecordCoalescerEvent(coalescer, event string) {
	if m == nil {
		return
	}
	m.coalescerCalls.WithLabelValues(coalescer, event).Inc()
}

// RecordCacheLookup учитывает обращение к memo-кэшу.
func (m *SyncMetrics) RecordCacheLookup(cache, result string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(cache, result).Inc()
}

// RecordStoreRefresh учитывает результат перезагрузки стора.
func (m *SyncMetrics) RecordStoreRefresh(store, result string) {
	if m == nil {
		return
	}
	m.storeRefreshes.WithLabelValues(store, result).Inc()
}

// RecordStoreMutation учитывает результат мутации стора.
func (m *SyncMetrics) RecordStoreMutation(store, operation string, err error) {
	if m == nil {
		return
	}
	m.storeMutations.WithLabelValues(store, operation, resultLabel(err)).Inc()
}

// RecordCheckout учитывает исход оформления заказа.
func (m *SyncMetrics) RecordCheckout(method, result string) {
	if m == nil {
		return
	}
	m.checkoutOutcomes.WithLabelValues(method, result).Inc()
}

// RecordReconciliation учитывает исход сверки платежа.
func (m *SyncMetrics) RecordReconciliation(result string) {
	if m == nil {
		return
	}
	m.reconciliations.WithLabelValues(result).Inc()
}

// RecordAPIRequest записывает длительность запроса к API.
func (m *SyncMetrics) RecordAPIRequest(endpoint, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.apiRequestDuration.WithLabelValues(endpoint, status).Observe(duration.Seconds())
}

// RecordOutboxEvent увеличивает счётчик событий outbox.
func (m *SyncMetrics) RecordOutboxEvent() {
	if m == nil {
		return
	}
	m.outboxEvents.Inc()
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
