package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes storefront domain instruments.
type Metrics struct {
	quotes            metric.Int64Counter
	couponRejections  metric.Int64Counter
	checkouts         metric.Int64Counter
	couponRedemptions metric.Int64Counter
	statusChanges     metric.Int64Counter
	orderTotal        metric.Float64Histogram
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				log.Info("shutting down meter provider")
				return provider.Shutdown(ctx)
			},
		})
	}

	log.Info("metrics initialized",
		zap.String("endpoint", cfg.ExporterEndpoint),
		zap.String("protocol", cfg.ExporterProtocol),
	)
	return provider, nil
}

// New creates the domain instruments on the given provider.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "storefront"
	}
	meter := provider.Meter(name)

	quotes, err := meter.Int64Counter("storefront_quotes_total")
	if err != nil {
		return nil, err
	}
	couponRejections, err := meter.Int64Counter("storefront_coupon_rejections_total")
	if err != nil {
		return nil, err
	}
	checkouts, err := meter.Int64Counter("storefront_checkouts_total")
	if err != nil {
		return nil, err
	}
	couponRedemptions, err := meter.Int64Counter("storefront_coupon_redemptions_total")
	if err != nil {
		return nil, err
	}
	statusChanges, err := meter.Int64Counter("storefront_order_status_changes_total")
	if err != nil {
		return nil, err
	}
	orderTotal, err := meter.Float64Histogram("storefront_order_total",
		metric.WithExplicitBucketBoundaries(5, 10, 25, 50, 100, 250, 500, 1000, 5000),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		quotes:            quotes,
		couponRejections:  couponRejections,
		checkouts:         checkouts,
		couponRedemptions: couponRedemptions,
		statusChanges:     statusChanges,
		orderTotal:        orderTotal,
	}, nil
}

// NewNop returns instruments backed by a no-op provider.
func NewNop() *Metrics {
	m, _ := New(Config{}, noop.NewMeterProvider())
	return m
}

func (m *Metrics) RecordQuote(ctx context.Context, storeID, outcome string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("store_id", strings.TrimSpace(storeID)),
		attribute.String("outcome", strings.TrimSpace(outcome)),
	)
	m.quotes.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordCouponRejection(ctx context.Context, storeID, reason string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("store_id", strings.TrimSpace(storeID)),
		attribute.String("reason", strings.TrimSpace(reason)),
	)
	m.couponRejections.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordCheckout(ctx context.Context, storeID, outcome string, total float64) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("store_id", strings.TrimSpace(storeID)),
		attribute.String("outcome", strings.TrimSpace(outcome)),
	)
	m.checkouts.Add(ctx, 1, metric.WithAttributes(attrs...))
	if outcome == "created" {
		m.orderTotal.Record(ctx, total, metric.WithAttributes(attrs...))
	}
}

func (m *Metrics) RecordCouponRedemption(ctx context.Context, storeID, outcome string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("store_id", strings.TrimSpace(storeID)),
		attribute.String("outcome", strings.TrimSpace(outcome)),
	)
	m.couponRedemptions.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordStatusChange(ctx context.Context, storeID, from, to string, onPath bool) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("store_id", strings.TrimSpace(storeID)),
		attribute.String("from_status", from),
		attribute.String("to_status", to),
		attribute.Bool("on_path", onPath),
	)
	m.statusChanges.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(protocol)) {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"store_id":    {},
	"endpoint":    {},
	"status_code": {},
	"outcome":     {},
	"reason":      {},
	"from_status": {},
	"to_status":   {},
	"on_path":     {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
