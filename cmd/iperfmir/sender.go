package main

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/harrycheng1/iperf2-mirror/internal/config"
	"github.com/harrycheng1/iperf2-mirror/internal/markov"
	"github.com/harrycheng1/iperf2-mirror/internal/metrics"
	"github.com/harrycheng1/iperf2-mirror/internal/pool"
	"github.com/harrycheng1/iperf2-mirror/internal/runner"
	"github.com/harrycheng1/iperf2-mirror/internal/sockio"
	"github.com/harrycheng1/iperf2-mirror/internal/txtime"
)

// sendConn is the connection surface a sender needs: reliability-layer
// writes plus ancillary-data sends for scheduled transmission.
type sendConn interface {
	sockio.Conn
	txtime.Sender
}

// senderStream writes one payload per Transfer call. Payload sizes come
// from the traffic model when one is configured, otherwise the fixed
// buffer length.
type senderStream struct {
	conn      sendConn
	collector *metrics.Collector
	graph     *markov.Graph
	bufs      *pool.BufferPool
	bufLen    int
	tos       int
	txDelay   time.Duration
	cancel    *sockio.Canceler
}

// sendError surfaces a write outcome that did not complete.
type sendError struct {
	tag sockio.CompletionTag
}

func (e *sendError) Error() string {
	return "send " + e.tag.String()
}

func (s *senderStream) Transfer(ctx context.Context) (int, error) {
	size := s.bufLen
	if s.graph != nil {
		size = s.graph.Next()
	}

	buf, reused := s.bufs.Get(size)
	if !reused {
		pool.Fill(buf)
	}
	defer s.bufs.Put(buf)

	start := time.Now()
	var n int
	var err error
	if s.txDelay > 0 || s.tos != config.TOSUnset {
		n, err = txtime.SendScheduled(s.conn, buf, s.txDelay, s.tos)
	} else {
		out := sockio.WriteFull(s.conn, buf, nil, s.cancel)
		n = out.N
		if out.Tag == sockio.Fatal {
			err = &sendError{tag: out.Tag}
			s.cancel.Trip()
		}
	}
	s.collector.RecordTransfer(metrics.DirSend, n, time.Since(start), err)
	return n, err
}

// newClientFactory dials one connection per worker and builds a sender
// stream over it. Each worker's traffic model gets its own generator,
// seeded from the configured seed plus the worker index so parallel
// streams draw independent sequences.
func newClientFactory(cfg *config.Config, collector *metrics.Collector, cancel *sockio.Canceler, conns *connTracker) runner.StreamFactory {
	return func(worker int) (runner.Stream, error) {
		conn, err := net.DialTimeout(cfg.Network(), cfg.Addr(), cfg.Timeout)
		if err != nil {
			return nil, fmt.Errorf("dial %s: %w", cfg.Addr(), err)
		}
		conns.add(conn)

		sc, err := sockio.FromNetConn(conn)
		if err != nil {
			return nil, err
		}
		conns.add(sc)
		if err := sc.SetTimeouts(cfg.Timeout, cfg.Timeout); err != nil {
			return nil, err
		}

		var graph *markov.Graph
		if cfg.Markov != "" {
			graph, err = markov.Parse(cfg.Markov)
			if err != nil {
				return nil, err
			}
			if cfg.MarkovSeed != 0 {
				graph.SetSeed(cfg.MarkovSeed + int64(worker))
			}
		}

		return &senderStream{
			conn:      sc,
			collector: collector,
			graph:     graph,
			bufs:      pool.NewBufferPool(4),
			bufLen:    cfg.BufferLen,
			tos:       cfg.TOS,
			txDelay:   cfg.TxDelay,
			cancel:    cancel,
		}, nil
	}
}
