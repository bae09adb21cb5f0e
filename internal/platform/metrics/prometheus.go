package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/aqarhub/property-service/internal/platform/logger"
)

// MetricsManager holds custom Prometheus metrics.
type MetricsManager struct {
	Registry               *prometheus.Registry
	PropertiesCreatedTotal prometheus.Counter
	PropertyUpdatesTotal   prometheus.Counter
	PropertyDeletesTotal   prometheus.Counter
	MediaUploadsTotal      prometheus.Counter
	UploadReversalsTotal   prometheus.Counter
	APIErrorsTotal         *prometheus.CounterVec
	APILatency             *prometheus.HistogramVec
}

// NewMetricsManager initializes and registers custom Prometheus metrics.
func NewMetricsManager(serviceName string) *MetricsManager {
	registry := prometheus.NewRegistry()

	propertiesCreatedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "properties_created_total",
		Help:      "Total number of properties created.",
	})
	propertyUpdatesTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "property_updates_total",
		Help:      "Total number of property updates, media replacements included.",
	})
	propertyDeletesTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "property_deletes_total",
		Help:      "Total number of properties deleted.",
	})
	mediaUploadsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "media_uploads_total",
		Help:      "Total number of media objects uploaded to the remote store.",
	})
	uploadReversalsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "upload_reversals_total",
		Help:      "Total number of uploaded media objects deleted again because a later step failed.",
	})
	apiErrorsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "api_errors_total",
		Help:      "Total number of API errors by route and kind.",
	}, []string{"route", "error_kind"})
	apiLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: serviceName,
		Name:      "api_request_latency_seconds",
		Help:      "Latency of API requests by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})

	registry.MustRegister(
		propertiesCreatedTotal,
		propertyUpdatesTotal,
		propertyDeletesTotal,
		mediaUploadsTotal,
		uploadReversalsTotal,
		apiErrorsTotal,
		apiLatency,
	)

	return &MetricsManager{
		Registry:               registry,
		PropertiesCreatedTotal: propertiesCreatedTotal,
		PropertyUpdatesTotal:   propertyUpdatesTotal,
		PropertyDeletesTotal:   propertyDeletesTotal,
		MediaUploadsTotal:      mediaUploadsTotal,
		UploadReversalsTotal:   uploadReversalsTotal,
		APIErrorsTotal:         apiErrorsTotal,
		APILatency:             apiLatency,
	}
}

// IncCreated, IncUpdated, IncDeleted, AddUploads and AddReversals are nil-safe
// so usecases can run without a metrics manager in tests.
func (m *MetricsManager) IncCreated() {
	if m != nil {
		m.PropertiesCreatedTotal.Inc()
	}
}

func (m *MetricsManager) IncUpdated() {
	if m != nil {
		m.PropertyUpdatesTotal.Inc()
	}
}

func (m *MetricsManager) IncDeleted() {
	if m != nil {
		m.PropertyDeletesTotal.Inc()
	}
}

func (m *MetricsManager) AddUploads(n int) {
	if m != nil {
		m.MediaUploadsTotal.Add(float64(n))
	}
}

func (m *MetricsManager) AddReversals(n int) {
	if m != nil {
		m.UploadReversalsTotal.Add(float64(n))
	}
}

// StartMetricsServer exposes the registry on /metrics. Blocks until the
// server stops.
func StartMetricsServer(port string, log *logger.Logger, registry *prometheus.Registry) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	log.Info("Metrics server listening", zap.String("port", port))
	return http.ListenAndServe(":"+port, mux)
}
