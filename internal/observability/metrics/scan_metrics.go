package metrics

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ScanMetrics counts redemption scan outcomes and invoice rollups.
type ScanMetrics struct {
	scans           metric.Int64Counter
	providerLatency metric.Float64Histogram
	invoices        metric.Int64Counter
}

// NewScanMetrics creates the giftcard domain instruments.
func NewScanMetrics(cfg Config, provider metric.MeterProvider) (*ScanMetrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "giftway"
	}
	meter := provider.Meter(name + "/giftcard")

	scans, err := meter.Int64Counter("giftcard.scans")
	if err != nil {
		return nil, err
	}
	providerLatency, err := meter.Float64Histogram("giftcard.matrix.duration_ms")
	if err != nil {
		return nil, err
	}
	invoices, err := meter.Int64Counter("giftcard.invoices.generated")
	if err != nil {
		return nil, err
	}

	return &ScanMetrics{
		scans:           scans,
		providerLatency: providerLatency,
		invoices:        invoices,
	}, nil
}

// RecordScan counts one scan attempt by outcome reason.
func (m *ScanMetrics) RecordScan(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.scans.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", normalizeReason(reason))))
}

// RecordProviderCall records one matrix provider round trip.
func (m *ScanMetrics) RecordProviderCall(ctx context.Context, duration time.Duration, success bool) {
	if m == nil {
		return
	}
	m.providerLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(
		attribute.Bool("success", success),
	))
}

// RecordInvoiceGenerated counts one generated invoice.
func (m *ScanMetrics) RecordInvoiceGenerated(ctx context.Context, manual bool) {
	if m == nil {
		return
	}
	m.invoices.Add(ctx, 1, metric.WithAttributes(attribute.Bool("manual", manual)))
}

func normalizeReason(reason string) string {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return "unknown"
	}
	return reason
}
