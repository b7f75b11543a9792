package runner

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/harrycheng1/iperf2-mirror/internal/sockio"
)

// Stream abstracts one transfer operation on a worker's connection.
// Implementations return the bytes actually moved and an error for failed
// operations. A sender typically writes one traffic-model-sampled payload
// per call; a receiver drains one buffer.
type Stream interface {
	Transfer(ctx context.Context) (bytes int, err error)
}

// StreamFactory builds the stream a worker will drive. Each worker owns
// exactly one stream for the lifetime of the run.
type StreamFactory func(worker int) (Stream, error)

// Options configure the Runner.
type Options struct {
	Parallel       int             // number of concurrent streams
	TotalBytes     int64           // total bytes to move across all streams (0 means unlimited until duration/end)
	Duration       time.Duration   // overall time limit (0 means no duration cap)
	RatePerSecond  int             // operations per second pacing across streams (0 means unpaced)
	ArrivalModel   ArrivalModel    // pacing model; defaults to uniform
	RandomSeed     int64           // seed for the poisson sampler
	Streams        StreamFactory   // stream builder (required)
	Cancel         *sockio.Canceler // shared stop token; created when nil

	PoissonSampler func() float64              // optional injection for tests
	LimiterFactory func(rps int) *rate.Limiter // optional injection for tests
}

// ArrivalModel selects how operation starts are spaced in time.
type ArrivalModel string

const (
	ArrivalModelUniform ArrivalModel = "uniform"
	ArrivalModelPoisson ArrivalModel = "poisson"
)

func (o *Options) normalize() {
	if o.Parallel <= 0 {
		o.Parallel = 1
	}
	if o.TotalBytes < 0 {
		o.TotalBytes = 0
	}
	if o.RatePerSecond < 0 {
		o.RatePerSecond = 0
	}
	if o.ArrivalModel == "" {
		o.ArrivalModel = ArrivalModelUniform
	}
	if o.RandomSeed == 0 {
		o.RandomSeed = time.Now().UnixNano()
	}
	if o.Cancel == nil {
		o.Cancel = sockio.NewCanceler()
	}
	if o.LimiterFactory == nil {
		o.LimiterFactory = func(rps int) *rate.Limiter {
			if rps <= 0 {
				return rate.NewLimiter(rate.Inf, 0)
			}
			// Burst equal to rps to smooth pacing under concurrency.
			return rate.NewLimiter(rate.Limit(rps), rps)
		}
	}
}
