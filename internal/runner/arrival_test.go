package runner

import (
	"context"
	"testing"
	"time"
)

func TestPoissonArrivalNextDelayUsesSampler(t *testing.T) {
	ctrl := &poissonArrival{sample: func() float64 { return 1 }}
	ctrl.SetRate(200)
	delay := ctrl.nextDelay()
	expected := time.Second / 200
	if delay != expected {
		t.Fatalf("expected delay %s, got %s", expected, delay)
	}
}

func TestPoissonArrivalWaitCancelledContext(t *testing.T) {
	ctrl := &poissonArrival{sample: func() float64 { return 1 }}
	ctrl.SetRate(0.000001)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := ctrl.Wait(ctx); err == nil {
		t.Fatalf("expected context error when cancelled")
	}
}

func TestUniformArrivalZeroRateIsUnpaced(t *testing.T) {
	opts := Options{}
	opts.normalize()
	ctrl := newArrivalController(opts)
	u, ok := ctrl.(*uniformArrival)
	if !ok {
		t.Fatalf("expected uniform controller by default, got %T", ctrl)
	}
	// Unpaced waits must return immediately.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	for i := 0; i < 1000; i++ {
		if err := u.Wait(ctx); err != nil {
			t.Fatalf("unpaced wait blocked: %v", err)
		}
	}
}

func TestPoissonControllerSelectedByModel(t *testing.T) {
	opts := Options{ArrivalModel: ArrivalModelPoisson, RatePerSecond: 10}
	opts.normalize()
	if _, ok := newArrivalController(opts).(*poissonArrival); !ok {
		t.Fatalf("expected poisson controller")
	}
}
