package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder приемник метрик сервиса
type Recorder interface {
	HTTPRequest(method, path, status string, duration time.Duration)
	RateLimitRejected(route string)
	Completion(operation, outcome string, duration time.Duration)
	WebhookEvent(eventType, result string)
}

// PrometheusRecorder реализация Recorder на Prometheus
type PrometheusRecorder struct {
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	rateLimitRejects  *prometheus.CounterVec
	completionSeconds *prometheus.HistogramVec
	webhookEvents     *prometheus.CounterVec
}

// NewPrometheusRecorder регистрирует метрики в реестре
func NewPrometheusRecorder(registry *prometheus.Registry) *PrometheusRecorder {
	factory := promauto.With(registry)

	return &PrometheusRecorder{
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "chefwise_http_requests_total",
			Help: "Total HTTP requests by method, path and status",
		}, []string{"method", "path", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "chefwise_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		rateLimitRejects: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "chefwise_rate_limit_rejections_total",
			Help: "Requests rejected by the rate limiter",
		}, []string{"route"}),
		completionSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "chefwise_completion_duration_seconds",
			Help:    "AI completion latency by operation and outcome",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 60},
		}, []string{"operation", "outcome"}),
		webhookEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "chefwise_webhook_events_total",
			Help: "Processed Stripe webhook events by type and result",
		}, []string{"type", "result"}),
	}
}

// HTTPRequest учитывает завершенный HTTP-запрос
func (r *PrometheusRecorder) HTTPRequest(method, path, status string, duration time.Duration) {
	r.httpRequests.WithLabelValues(method, path, status).Inc()
	r.httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RateLimitRejected учитывает отказ лимитера
func (r *PrometheusRecorder) RateLimitRejected(route string) {
	r.rateLimitRejects.WithLabelValues(route).Inc()
}

// Completion учитывает вызов модели
func (r *PrometheusRecorder) Completion(operation, outcome string, duration time.Duration) {
	r.completionSeconds.WithLabelValues(operation, outcome).Observe(duration.Seconds())
}

// WebhookEvent учитывает обработанный вебхук
func (r *PrometheusRecorder) WebhookEvent(eventType, result string) {
	r.webhookEvents.WithLabelValues(eventType, result).Inc()
}

// NopRecorder заглушка для тестов
type NopRecorder struct{}

func (NopRecorder) HTTPRequest(method, path, status string, duration time.Duration) {}
func (NopRecorder) RateLimitRejected(route string)                                  {}
func (NopRecorder) Completion(operation, outcome string, duration time.Duration)    {}
func (NopRecorder) WebhookEvent(eventType, result string)                           {}
