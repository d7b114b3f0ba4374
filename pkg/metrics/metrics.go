// Package metrics holds the Prometheus registry for a subhunt run. OpenTelemetry
// instruments recorded through MeterProvider are exported into the same
// registry, which can be dumped in the node_exporter textfile format.
package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// DefaultBuckets provides a common set of histogram buckets in seconds that can
// be reused across the application for latency metrics. crt.sh regularly takes
// tens of seconds, hence the long tail.
var DefaultBuckets = []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120} //nolint: gochecknoglobals

// Metrics bundles the registry, the OpenTelemetry meter provider bridged into
// it, and the run level collectors.
type Metrics struct {
	// Registry gathers every metric of the run.
	Registry *prometheus.Registry
	// MeterProvider creates OpenTelemetry meters exported into Registry.
	MeterProvider *sdkmetric.MeterProvider

	// SubdomainsFound is the number of distinct names a discovery returned.
	SubdomainsFound *prometheus.GaugeVec
	// Discoveries counts finished discoveries by outcome.
	Discoveries *prometheus.CounterVec
}

// New creates a fresh registry with the run level collectors registered and an
// OpenTelemetry meter provider exporting into it.
func New() (*Metrics, error) {
	reg := prometheus.NewRegistry()

	exp, err := otelprom.New(otelprom.WithRegisterer(reg))
	if err != nil {
		return nil, fmt.Errorf("could not create otel exporter: %w", err)
	}

	m := &Metrics{
		Registry:      reg,
		MeterProvider: sdkmetric.NewMeterProvider(sdkmetric.WithReader(exp)),
		SubdomainsFound: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "subhunt",
			Name:      "subdomains_found",
			Help:      "Number of distinct subdomains found by the last discovery.",
		}, []string{"domain", "mode"}),
		Discoveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "subhunt",
			Name:      "discoveries_total",
			Help:      "Number of finished discoveries by outcome.",
		}, []string{"outcome"}),
	}

	for _, c := range []prometheus.Collector{m.SubdomainsFound, m.Discoveries} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("could not register collector: %w", err)
		}
	}

	return m, nil
}

// WriteTextfile writes the current state of the registry to path in the
// Prometheus text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("could not write metrics textfile: %w", err)
	}

	return nil
}

// Shutdown stops the meter provider.
func (m *Metrics) Shutdown(ctx context.Context) error {
	if err := m.MeterProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("could not shutdown meter provider: %w", err)
	}

	return nil
}
