package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// StartTransferSpan starts a new span for a single transfer operation.
// Direction is "send" or "recv"; target is the remote address.
func StartTransferSpan(ctx context.Context, tracer trace.Tracer, protocol, direction, target string) (context.Context, trace.Span) {
	spanName := protocol + " " + direction
	ctx, span := tracer.Start(ctx, spanName,
		trace.WithSpanKind(trace.SpanKindClient),
	)
	span.SetAttributes(
		attribute.String("network.transport", protocol),
		attribute.String("transfer.direction", direction),
	)
	if target != "" {
		span.SetAttributes(attribute.String("net.peer.address", target))
	}
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
