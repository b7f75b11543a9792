package main

import (
	"context"
	"io"
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"github.com/harrycheng1/iperf2-mirror/internal/metrics"
	"github.com/harrycheng1/iperf2-mirror/internal/sockio"
)

type fakeRecvConn struct {
	data    []byte
	off     int
	recvErr error
}

func (f *fakeRecvConn) Read(p []byte) (int, error) { return 0, nil }

func (f *fakeRecvConn) Recv(p []byte, mode sockio.RecvMode) (int, error) {
	if f.recvErr != nil {
		return 0, f.recvErr
	}
	if f.off >= len(f.data) {
		return 0, nil
	}
	n := copy(p, f.data[f.off:])
	f.off += n
	return n, nil
}

func (f *fakeRecvConn) Write(p []byte) (int, error) { return len(p), nil }

func newTestReceiver(conn sockio.Conn, bufLen int, cancel *sockio.Canceler) (*receiverStream, *metrics.Collector) {
	collector := metrics.NewCollector()
	return &receiverStream{
		conn:      conn,
		collector: collector,
		buf:       make([]byte, bufLen),
		cancel:    cancel,
	}, collector
}

func TestReceiverStreamComplete(t *testing.T) {
	conn := &fakeRecvConn{data: make([]byte, 256)}
	r, collector := newTestReceiver(conn, 256, sockio.NewCanceler())

	n, err := r.Transfer(context.Background())
	if err != nil {
		t.Fatalf("Transfer() error = %v", err)
	}
	if n != 256 {
		t.Errorf("Transfer() bytes = %d, want 256", n)
	}

	stats := collector.Stats(time.Second)
	if stats.BytesRecv != 256 {
		t.Errorf("BytesRecv = %d, want 256", stats.BytesRecv)
	}
	if stats.Partials != 0 {
		t.Errorf("Partials = %d, want 0", stats.Partials)
	}
}

func TestReceiverStreamEOFMidBuffer(t *testing.T) {
	cancel := sockio.NewCanceler()
	conn := &fakeRecvConn{data: make([]byte, 100)}
	r, collector := newTestReceiver(conn, 256, cancel)

	n, err := r.Transfer(context.Background())
	if err != nil {
		t.Fatalf("Transfer() error = %v", err)
	}
	if n != 100 {
		t.Errorf("Transfer() bytes = %d, want 100", n)
	}
	if cancel.Tripped() {
		t.Error("mid-buffer EOF with data should not trip the token")
	}

	stats := collector.Stats(time.Second)
	if stats.Partials != 1 {
		t.Errorf("Partials = %d, want 1", stats.Partials)
	}
	if stats.BytesRecv != 100 {
		t.Errorf("BytesRecv = %d, want 100; partial bytes still count", stats.BytesRecv)
	}
}

func TestReceiverStreamEmptyEOFTripsToken(t *testing.T) {
	cancel := sockio.NewCanceler()
	conn := &fakeRecvConn{}
	r, _ := newTestReceiver(conn, 256, cancel)

	n, err := r.Transfer(context.Background())
	if err != nil {
		t.Fatalf("Transfer() error = %v", err)
	}
	if n != 0 {
		t.Errorf("Transfer() bytes = %d, want 0", n)
	}
	if !cancel.Tripped() {
		t.Error("expected empty end-of-stream to trip the shared token")
	}
}

func TestReceiverStreamFatal(t *testing.T) {
	sockio.SetDiagnostics(io.Discard)
	defer sockio.SetDiagnostics(nil)

	cancel := sockio.NewCanceler()
	conn := &fakeRecvConn{recvErr: unix.ECONNRESET}
	r, collector := newTestReceiver(conn, 256, cancel)

	_, err := r.Transfer(context.Background())
	if err == nil {
		t.Fatal("expected error from fatal receive")
	}
	if !cancel.Tripped() {
		t.Error("expected fatal receive to trip the shared token")
	}

	stats := collector.Stats(time.Second)
	if stats.Failures != 1 {
		t.Errorf("Failures = %d, want 1", stats.Failures)
	}
}
