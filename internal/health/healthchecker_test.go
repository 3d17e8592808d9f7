package health

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type fakeChecker struct {
	name    string
	healthy atomic.Int32
}

func (f *fakeChecker) Name() string                               { return f.name }
func (f *fakeChecker) IsHealthy() bool                            { return f.healthy.Load() == 1 }
func (f *fakeChecker) Start(ctx context.Context, _ time.Duration) { /* no-op */ }

func TestServiceHealthChecker_Transitions(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st := &fakeChecker{name: "store"}
	ex := &fakeChecker{name: "extractor"}
	st.healthy.Store(1)
	ex.healthy.Store(1)

	svc := NewServiceHealthChecker(zerolog.Nop(), st, ex)
	go svc.Start(ctx, 10*time.Millisecond)

	// Healthy once both dependencies report in.
	waitTrue(t, func() bool { return svc.IsHealthy() })

	// One failing dependency takes the whole service down.
	ex.healthy.Store(0)
	waitTrue(t, func() bool { return !svc.IsHealthy() })

	// And it comes back when the dependency recovers.
	ex.healthy.Store(1)
	waitTrue(t, func() bool { return svc.IsHealthy() })
}

func TestServiceHealthChecker_StartsUnhealthy(t *testing.T) {
	svc := NewServiceHealthChecker(zerolog.Nop(), &fakeChecker{name: "store"})
	if svc.IsHealthy() {
		t.Fatalf("service must report unhealthy before the first probe completes")
	}
}

func waitTrue(t *testing.T, pred func() bool) {
	t.Helper()
	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		if pred() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met before timeout")
}
