package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service collectors. A nil *Metrics records nothing, so
// components built without metrics need no special casing.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	checkouts       *prometheus.CounterVec
	ordersFlagged   prometheus.Counter
	reloadDecisions *prometheus.CounterVec
	aiFallbacks     *prometheus.CounterVec
	lockContention  *prometheus.CounterVec
	eventsProjected *prometheus.CounterVec
	notifications   *prometheus.CounterVec
}

// New registers every collector on a fresh registry, along with the Go and
// process collectors.
func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		checkouts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkouts_total",
			Help:      "Confirmed checkouts by payment method",
		}, []string{"method"}),
		ordersFlagged: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_flagged_for_review_total",
			Help:      "Orders placed while stock ran short",
		}),
		reloadDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reload_decisions_total",
			Help:      "Wallet reload requests approved or rejected",
		}, []string{"decision"}),
		aiFallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ai_fallbacks_total",
			Help:      "Assistant calls answered with the fallback text",
		}, []string{"operation"}),
		lockContention: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lock_contention_total",
			Help:      "Lock acquisitions refused because the lock was held",
		}, []string{"lock"}),
		eventsProjected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_projected_total",
			Help:      "Events applied to the read store",
		}, []string{"event_type", "result"}),
		notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notification emails by kind and result",
		}, []string{"kind", "result"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveHTTP(method, path string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.httpRequests.WithLabelValues(method, path, code).Inc()
	m.httpDuration.WithLabelValues(method, path, code).Observe(elapsed.Seconds())
}

func (m *Metrics) CheckoutCompleted(method string) {
	if m == nil {
		return
	}
	m.checkouts.WithLabelValues(method).Inc()
}

func (m *Metrics) OrderFlagged() {
	if m == nil {
		return
	}
	m.ordersFlagged.Inc()
}

func (m *Metrics) ReloadDecided(decision string) {
	if m == nil {
		return
	}
	m.reloadDecisions.WithLabelValues(decision).Inc()
}

func (m *Metrics) AIFallback(operation string) {
	if m == nil {
		return
	}
	m.aiFallbacks.WithLabelValues(operation).Inc()
}

func (m *Metrics) LockContended(lock string) {
	if m == nil {
		return
	}
	m.lockContention.WithLabelValues(lock).Inc()
}

func (m *Metrics) EventProjected(eventType string, err error) {
	if m == nil {
		return
	}
	m.eventsProjected.WithLabelValues(eventType, result(err)).Inc()
}

func (m *Metrics) NotificationSent(kind string, err error) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(kind, result(err)).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
