// Package retention removes stored uploads once they outlive the configured
// retention period.
package retention

import (
	"context"
	"time"
)

// Index remembers when each upload was stored.
type Index interface {
	Track(ctx context.Context, name string, storedAt time.Time) error
	Expired(ctx context.Context, cutoff time.Time) ([]string, error)
	Forget(ctx context.Context, names ...string) error
}
