package main

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/harrycheng1/iperf2-mirror/internal/config"
	"github.com/harrycheng1/iperf2-mirror/internal/runner"
	"github.com/harrycheng1/iperf2-mirror/internal/tracing"
)

// tracedStream wraps a stream with a span per transfer operation.
type tracedStream struct {
	inner     runner.Stream
	tracer    trace.Tracer
	protocol  string
	direction string
	target    string
}

func (t *tracedStream) Transfer(ctx context.Context) (int, error) {
	ctx, span := tracing.StartTransferSpan(ctx, t.tracer, t.protocol, t.direction, t.target)
	n, err := t.inner.Transfer(ctx)
	tracing.EndSpan(span, err, attribute.Int("transfer.bytes", n))
	return n, err
}

func withTransferSpans(factory runner.StreamFactory, provider *tracing.Provider, cfg *config.Config) runner.StreamFactory {
	direction := "send"
	if cfg.Mode == config.ModeServer {
		direction = "recv"
	}
	return func(worker int) (runner.Stream, error) {
		s, err := factory(worker)
		if err != nil {
			return nil, err
		}
		return &tracedStream{
			inner:     s,
			tracer:    provider.Tracer(),
			protocol:  string(cfg.Protocol),
			direction: direction,
			target:    cfg.Addr(),
		}, nil
	}
}
