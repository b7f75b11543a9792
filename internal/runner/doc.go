// Package runner provides the core transfer execution engine for iperfmir.
//
// The runner package orchestrates parallel stream workers with support for:
//   - Configurable stream counts
//   - Operation pacing (uniform or Poisson arrivals)
//   - Duration-based and byte-budget termination
//   - A shared stop token wired through every stream's I/O loops
//
// # Basic Usage
//
// Create a runner with options and a stream factory:
//
//	opts := runner.Options{
//		Parallel:   4,
//		TotalBytes: 100 << 20,
//		Duration:   time.Minute,
//		Streams:    myFactory,
//	}
//	r := runner.New(opts)
//	result := r.Run(ctx)
//
// # Stream Interface
//
// The [Stream] interface defines what a worker drives:
//
//	type Stream interface {
//		Transfer(ctx context.Context) (bytes int, err error)
//	}
//
// A sender writes one traffic-model-sampled payload per call; a receiver
// drains one buffer.
//
// # Pacing & Arrival Models
//
// The runner supports different arrival models for operation pacing:
//   - [ArrivalModelUniform]: operations at fixed intervals
//   - [ArrivalModelPoisson]: exponential inter-operation gaps for bursty traffic
//
// # Middleware
//
// Enhance streams with middleware:
//   - [WithLogging]: log transfer failures
package runner
