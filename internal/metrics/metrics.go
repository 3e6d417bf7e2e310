package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	imagepkg "github.com/youruser/civiccert/internal/image"
)

type Config struct {
	ServiceName string
	Environment string
}

// RenderMetrics records certificate render outcomes. It satisfies
// imagepkg.Observer.
type RenderMetrics struct {
	renders   *prometheus.CounterVec
	fallbacks *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

var _ imagepkg.Observer = (*RenderMetrics)(nil)

func constLabels(cfg Config) prometheus.Labels {
	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "civiccert"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	return prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}
}

func NewRenderMetrics(registerer prometheus.Registerer, cfg Config) *RenderMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	labels := constLabels(cfg)

	renders := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "certificate_render_total",
			Help:        "Certificate render passes by outcome.",
			ConstLabels: labels,
		},
		[]string{"outcome"}, // rendered | failed
	)

	fallbacks := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "certificate_asset_fallback_total",
			Help:        "Placeholders drawn in place of assets that failed to load.",
			ConstLabels: labels,
		},
		[]string{"asset", "kind"},
	)

	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:        "certificate_render_duration_seconds",
			Help:        "Wall time of one render pass, including asset loading.",
			Buckets:     []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
			ConstLabels: labels,
		},
		[]string{"outcome"},
	)

	registerer.MustRegister(renders, fallbacks, duration)

	return &RenderMetrics{
		renders:   renders,
		fallbacks: fallbacks,
		duration:  duration,
	}
}

func (m *RenderMetrics) PassFinished(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.renders.WithLabelValues(outcome).Inc()
	m.duration.WithLabelValues(outcome).Observe(d.Seconds())
}

func (m *RenderMetrics) AssetFallback(asset string, kind imagepkg.FailureKind) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(asset, kind.String()).Inc()
}
