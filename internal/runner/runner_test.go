package runner_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/harrycheng1/iperf2-mirror/internal/runner"
	"github.com/harrycheng1/iperf2-mirror/internal/sockio"
)

// fakeStream simulates one transfer operation with fixed latency and size.
type fakeStream struct {
	latency   time.Duration
	size      int
	calls     *int64
	failAfter int64 // if >0, fails after this many successful calls
}

func (f *fakeStream) Transfer(ctx context.Context) (int, error) {
	if f.calls != nil {
		atomic.AddInt64(f.calls, 1)
	}
	if f.latency > 0 {
		select {
		case <-time.After(f.latency):
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	if f.failAfter > 0 && atomic.LoadInt64(f.calls) > f.failAfter {
		return 0, context.DeadlineExceeded // arbitrary error
	}
	return f.size, nil
}

func singleStream(s runner.Stream) runner.StreamFactory {
	return func(int) (runner.Stream, error) { return s, nil }
}

// TestRunnerRespectsByteBudget ensures the byte budget stops execution.
func TestRunnerRespectsByteBudget(t *testing.T) {
	var calls int64
	r := runner.New(runner.Options{
		Parallel:   4,
		TotalBytes: 25_000,
		Streams:    singleStream(&fakeStream{latency: time.Millisecond, size: 1000, calls: &calls}),
	})
	res := r.Run(context.Background())
	if res.Bytes < 25_000 {
		t.Fatalf("expected at least 25000 bytes, got %d", res.Bytes)
	}
	// Completed-work accounting can overshoot by at most one buffer per stream.
	if res.Bytes > 25_000+4*1000 {
		t.Fatalf("budget overshoot too large: %d", res.Bytes)
	}
	if res.Ops != calls {
		t.Fatalf("ops mismatch: %d vs %d calls", res.Ops, calls)
	}
}

// TestRunnerHonorsDuration ensures duration cap stops even without a budget.
func TestRunnerHonorsDuration(t *testing.T) {
	var calls int64
	r := runner.New(runner.Options{
		Parallel: 10,
		Duration: 50 * time.Millisecond,
		Streams:  singleStream(&fakeStream{latency: 5 * time.Millisecond, size: 100, calls: &calls}),
	})
	start := time.Now()
	res := r.Run(context.Background())
	elapsed := time.Since(start)
	if elapsed < 50*time.Millisecond || elapsed > 250*time.Millisecond {
		// allow some scheduling fudge but not extremely off
		t.Fatalf("duration enforcement off: %s", elapsed)
	}
	if res.Duration <= 0 {
		t.Fatalf("result duration not recorded")
	}
	if res.Ops <= 0 {
		t.Fatalf("expected some operations executed")
	}
}

// TestRateLimiterCapsThroughput ensures the limiter restricts ops/sec.
func TestRateLimiterCapsThroughput(t *testing.T) {
	var calls int64
	rateLimit := 100 // operations per second theoretical maximum
	duration := 100 * time.Millisecond
	r := runner.New(runner.Options{
		Parallel:       20,
		Duration:       duration,
		RatePerSecond:  rateLimit,
		Streams:        singleStream(&fakeStream{size: 10, calls: &calls}),
		LimiterFactory: func(rps int) *rate.Limiter { return rate.NewLimiter(rate.Limit(rps), 1) },
	})
	res := r.Run(context.Background())
	// expected upper bound ~ rateLimit * (duration seconds)
	maxExpected := int64(float64(rateLimit) * (float64(duration) / float64(time.Second)) * 1.20) // 20% slack
	if res.Ops > maxExpected {
		t.Fatalf("rate limiter exceeded: ops=%d max=%d", res.Ops, maxExpected)
	}
	if calls != res.Ops {
		t.Fatalf("calls mismatch: %d vs %d", calls, res.Ops)
	}
}

// TestSharedTokenStopsAllStreams ensures tripping the stop token halts the run.
func TestSharedTokenStopsAllStreams(t *testing.T) {
	cancel := sockio.NewCanceler()
	var calls int64
	r := runner.New(runner.Options{
		Parallel: 4,
		Cancel:   cancel,
		Streams: singleStream(&fakeStream{
			latency: time.Millisecond,
			size:    100,
			calls:   &calls,
		}),
	})

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel.Trip()
	}()

	done := make(chan runner.Result, 1)
	go func() { done <- r.Run(context.Background()) }()

	select {
	case res := <-done:
		if res.Ops == 0 {
			t.Fatalf("expected some operations before the trip")
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("runner did not stop after the shared token tripped")
	}
}

// TestFactoryErrorTripsToken ensures a failed stream setup aborts the run.
func TestFactoryErrorTripsToken(t *testing.T) {
	cancel := sockio.NewCanceler()
	r := runner.New(runner.Options{
		Parallel: 2,
		Cancel:   cancel,
		Streams: func(worker int) (runner.Stream, error) {
			return nil, errors.New("dial failed")
		},
	})
	res := r.Run(context.Background())
	if res.Errors != 2 {
		t.Fatalf("expected 2 setup errors, got %d", res.Errors)
	}
	if !cancel.Tripped() {
		t.Fatalf("expected factory failure to trip the token")
	}
}

type recordingLogger struct {
	count int64
}

func (r *recordingLogger) LogFailure(err error) { atomic.AddInt64(&r.count, 1) }

func TestWithLoggingReportsFailures(t *testing.T) {
	var calls int64
	logger := &recordingLogger{}
	s := runner.WithLogging(&fakeStream{size: 10, calls: &calls, failAfter: 1}, logger)

	if _, err := s.Transfer(context.Background()); err != nil {
		t.Fatalf("first transfer should succeed, got %v", err)
	}
	if _, err := s.Transfer(context.Background()); err == nil {
		t.Fatalf("second transfer should fail")
	}
	if atomic.LoadInt64(&logger.count) != 1 {
		t.Fatalf("expected 1 logged failure, got %d", logger.count)
	}
}
