package runner

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/harrycheng1/iperf2-mirror/internal/sockio"
)

// Result captures execution summary.
type Result struct {
	Ops      int64
	Bytes    int64
	Errors   int64
	Duration time.Duration
}

// Runner coordinates parallel streams with pacing, a byte budget, and a
// shared stop token.
type Runner struct {
	opt     Options
	arrival arrivalController
}

func New(opt Options) *Runner {
	opt.normalize()
	arrival := newArrivalController(opt)
	return &Runner{opt: opt, arrival: arrival}
}

func (r *Runner) Run(ctx context.Context) Result {
	start := time.Now()
	var ops int64
	var bytes int64
	var errs int64

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if r.opt.Duration > 0 {
		deadlineCtx, deadlineCancel := context.WithTimeout(ctx, r.opt.Duration)
		ctx = deadlineCtx
		defer deadlineCancel()
	}

	permits := make(chan struct{}, r.opt.Parallel)

	// Scheduler: serializes pacing to avoid burst overshoot across workers.
	// The byte budget is checked against completed work, so in-flight
	// operations may overshoot by at most one buffer per stream.
	go func() {
		defer close(permits)
		for {
			if ctx.Err() != nil {
				return
			}
			if r.opt.Cancel.Tripped() {
				return
			}
			if r.opt.TotalBytes > 0 && atomic.LoadInt64(&bytes) >= r.opt.TotalBytes {
				return
			}
			if r.arrival != nil {
				if err := r.arrival.Wait(ctx); err != nil {
					return
				}
			}
			select {
			case permits <- struct{}{}:
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	wg.Add(r.opt.Parallel)
	for i := 0; i < r.opt.Parallel; i++ {
		go func(worker int) {
			defer wg.Done()

			var stream Stream
			if r.opt.Streams != nil {
				s, err := r.opt.Streams(worker)
				if err != nil {
					atomic.AddInt64(&errs, 1)
					r.opt.Cancel.Trip()
					return
				}
				stream = s
			}

			for range permits {
				if stream != nil {
					n, err := stream.Transfer(ctx)
					atomic.AddInt64(&ops, 1)
					atomic.AddInt64(&bytes, int64(n))
					if err != nil {
						atomic.AddInt64(&errs, 1)
					}
				}
				if ctx.Err() != nil || r.opt.Cancel.Tripped() {
					return
				}
			}
		}(i)
	}
	wg.Wait()

	return Result{
		Ops:      atomic.LoadInt64(&ops),
		Bytes:    atomic.LoadInt64(&bytes),
		Errors:   atomic.LoadInt64(&errs),
		Duration: time.Since(start),
	}
}

// Canceler exposes the shared stop token so collaborating I/O loops can be
// wired to the same cancellation point.
func (r *Runner) Canceler() *sockio.Canceler {
	return r.opt.Cancel
}
