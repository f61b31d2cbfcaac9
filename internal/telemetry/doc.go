// Package telemetry holds the OpenTelemetry metric instruments for the
// control plane. SetupMeterProvider bridges the global meter provider to a
// prometheus registry, so the HTTP layer's /metrics endpoint serves every
// instrument.
package telemetry
