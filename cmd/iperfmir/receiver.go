package main

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/harrycheng1/iperf2-mirror/internal/config"
	"github.com/harrycheng1/iperf2-mirror/internal/metrics"
	"github.com/harrycheng1/iperf2-mirror/internal/runner"
	"github.com/harrycheng1/iperf2-mirror/internal/sockio"
)

// receiverStream drains one buffer per Transfer call. A zero-byte
// end-of-stream trips the shared token so the whole run winds down once
// the peer is done.
type receiverStream struct {
	conn      sockio.Conn
	collector *metrics.Collector
	buf       []byte
	cancel    *sockio.Canceler
}

// recvError surfaces a fatal receive outcome.
type recvError struct {
	tag sockio.CompletionTag
}

func (e *recvError) Error() string {
	return "receive " + e.tag.String()
}

func (r *receiverStream) Transfer(ctx context.Context) (int, error) {
	start := time.Now()
	out := sockio.RecvFull(r.conn, r.buf, sockio.RecvExhaustive, r.cancel)

	var err error
	switch out.Tag {
	case sockio.PartialEOF:
		r.collector.RecordPartial()
		if out.N == 0 {
			// Orderly shutdown with nothing pending.
			r.cancel.Trip()
		}
	case sockio.Fatal:
		err = &recvError{tag: out.Tag}
	}

	r.collector.RecordTransfer(metrics.DirRecv, out.N, time.Since(start), err)
	return out.N, err
}

// newServerFactory builds receiver streams for the configured protocol.
// TCP accepts one connection per worker; UDP workers share the bound
// socket, each draining datagrams into its own buffer.
func newServerFactory(cfg *config.Config, collector *metrics.Collector, cancel *sockio.Canceler, conns *connTracker) (runner.StreamFactory, net.Listener, error) {
	if cfg.Protocol == config.ProtocolUDP {
		addr, err := net.ResolveUDPAddr("udp", cfg.Addr())
		if err != nil {
			return nil, nil, fmt.Errorf("resolve %s: %w", cfg.Addr(), err)
		}
		pc, err := net.ListenUDP("udp", addr)
		if err != nil {
			return nil, nil, fmt.Errorf("listen %s: %w", cfg.Addr(), err)
		}
		conns.add(pc)

		sc, err := sockio.FromNetConn(pc)
		if err != nil {
			return nil, nil, err
		}
		conns.add(sc)
		if err := sc.SetTimeouts(cfg.Timeout, 0); err != nil {
			return nil, nil, err
		}

		factory := func(worker int) (runner.Stream, error) {
			return &receiverStream{
				conn:      sc,
				collector: collector,
				buf:       make([]byte, cfg.BufferLen),
				cancel:    cancel,
			}, nil
		}
		return factory, nil, nil
	}

	ln, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return nil, nil, fmt.Errorf("listen %s: %w", cfg.Addr(), err)
	}

	factory := func(worker int) (runner.Stream, error) {
		conn, err := ln.Accept()
		if err != nil {
			return nil, fmt.Errorf("accept: %w", err)
		}
		conns.add(conn)

		sc, err := sockio.FromNetConn(conn)
		if err != nil {
			return nil, err
		}
		conns.add(sc)
		if err := sc.SetTimeouts(cfg.Timeout, 0); err != nil {
			return nil, err
		}

		return &receiverStream{
			conn:      sc,
			collector: collector,
			buf:       make([]byte, cfg.BufferLen),
			cancel:    cancel,
		}, nil
	}
	return factory, ln, nil
}
