package health

import "context"

// HealthPinger is an optional fast path a dependency can expose instead of
// being probed through its public API; the store drivers implement it with a
// database ping. HealthPing returns nil while the component is healthy.
type HealthPinger interface {
	HealthPing(ctx context.Context) error
}
