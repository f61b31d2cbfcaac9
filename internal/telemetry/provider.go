package telemetry

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

const serviceName = "conductord"

// SetupMeterProvider installs the global meter provider, bridged to the
// given prometheus registerer so promhttp serves every instrument on
// /metrics. A nil registerer uses the default registry. Must run before
// NewMetrics; instruments are bound to the provider active at creation.
//
// The returned shutdown flushes and stops the provider.
func SetupMeterProvider(registerer prometheus.Registerer, serviceVersion string) (func(context.Context) error, error) {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	exporter, err := otelprom.New(otelprom.WithRegisterer(registerer))
	if err != nil {
		return nil, fmt.Errorf("creating prometheus exporter: %w", err)
	}

	// Standalone resource; merging with resource.Default() risks schema
	// URL conflicts across semconv versions.
	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(serviceVersion),
	)

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(provider)
	return provider.Shutdown, nil
}
