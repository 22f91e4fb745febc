package tracing

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// StartSessionSpan starts the root span for one simulated user's session.
func StartSessionSpan(ctx context.Context, tracer trace.Tracer, sessionID int, fixtureKey string) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, "chart session",
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	span.SetAttributes(
		attribute.Int("chartload.session", sessionID),
		attribute.String("chartload.fixture", fixtureKey),
	)
	return ctx, span
}

// StartStepSpan starts a client span for one service call (submit, status, fetch).
func StartStepSpan(ctx context.Context, tracer trace.Tracer, step string) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, "chart "+step,
		trace.WithSpanKind(trace.SpanKindClient),
	)
	span.SetAttributes(attribute.String("chartload.step", step))
	return ctx, span
}

// EndSpan finishes a span, recording error status if applicable.
func EndSpan(span trace.Span, err error, attrs ...attribute.KeyValue) {
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// InjectHTTPHeaders injects W3C trace context into HTTP headers.
func InjectHTTPHeaders(ctx context.Context, headers http.Header) {
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(headers))
}
