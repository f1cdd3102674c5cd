package observe

import (
	"context"
	"strconv"

	pgptErrors "github.com/harunnryd/pgpt/internal/errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/harunnryd/pgpt/internal/model"

// OTelObserver opens one span per provider request and records request
// count, latency and token usage.
type OTelObserver struct {
	tracer trace.Tracer

	requestTotal    metric.Int64Counter
	tokenTotal      metric.Int64Counter
	requestDuration metric.Float64Histogram
}

type OTelOption func(*otelSettings)

type otelSettings struct {
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
}

func WithTracerProvider(tp trace.TracerProvider) OTelOption {
	return func(s *otelSettings) { s.tracerProvider = tp }
}

func WithMeterProvider(mp metric.MeterProvider) OTelOption {
	return func(s *otelSettings) { s.meterProvider = mp }
}

// NewOTelObserver uses the global providers unless overridden.
func NewOTelObserver(opts ...OTelOption) (*OTelObserver, error) {
	s := otelSettings{
		tracerProvider: otel.GetTracerProvider(),
		meterProvider:  otel.GetMeterProvider(),
	}
	for _, opt := range opts {
		opt(&s)
	}

	meter := s.meterProvider.Meter(instrumentationName)
	o := &OTelObserver{tracer: s.tracerProvider.Tracer(instrumentationName)}

	var err error
	o.requestTotal, err = meter.Int64Counter("pgpt.request.total",
		metric.WithDescription("Total number of provider requests"),
		metric.WithUnit("{request}"))
	if err != nil {
		return nil, err
	}

	o.tokenTotal, err = meter.Int64Counter("pgpt.token.total",
		metric.WithDescription("Tokens reported by providers"),
		metric.WithUnit("{token}"))
	if err != nil {
		return nil, err
	}

	o.requestDuration, err = meter.Float64Histogram("pgpt.request.duration",
		metric.WithDescription("Request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120))
	if err != nil {
		return nil, err
	}

	return o, nil
}

func (o *OTelObserver) RequestStarted(ctx context.Context, info RequestInfo) context.Context {
	ctx, _ = o.tracer.Start(ctx, "pgpt.chat",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("pgpt.request_id", info.RequestID),
			attribute.String("pgpt.provider", info.Provider),
			attribute.String("pgpt.dialect", info.Dialect.String()),
			attribute.String("pgpt.model", info.Model),
			attribute.Int("pgpt.turns", info.Turns),
			attribute.Int("pgpt.tools", info.Tools),
			attribute.Bool("pgpt.stream", info.Stream),
		))
	return ctx
}

func (o *OTelObserver) RequestFinished(ctx context.Context, result ResultInfo) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	status := "ok"
	if result.Err != nil {
		status = pgptErrors.Category(result.Err)
		span.RecordError(result.Err)
		span.SetStatus(codes.Error, result.Err.Error())
	}
	span.SetAttributes(
		attribute.Int("http.response.status_code", result.Status),
		attribute.Int("pgpt.tool_calls", result.ToolCalls),
	)

	common := metric.WithAttributes(
		attribute.String("provider", result.Request.Provider),
		attribute.String("dialect", result.Request.Dialect.String()),
		attribute.String("model", result.Request.Model),
		attribute.String("status", status),
		attribute.String("http_status", strconv.Itoa(result.Status)),
	)
	o.requestTotal.Add(ctx, 1, common)
	o.requestDuration.Record(ctx, result.Duration.Seconds(), common)

	if total := result.Usage.PromptTokens + result.Usage.CompletionTokens; total > 0 {
		o.tokenTotal.Add(ctx, total, metric.WithAttributes(
			attribute.String("provider", result.Request.Provider),
			attribute.String("model", result.Request.Model),
		))
	}
}
