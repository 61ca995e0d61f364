package retention

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Remover deletes a stored upload by name.
type Remover interface {
	Remove(name string) error
}

// Sweeper periodically deletes uploads older than maxAge.
type Sweeper struct {
	index    Index
	store    Remover
	maxAge   time.Duration
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewSweeper builds a sweeper. It does nothing until Run or Sweep is called.
func NewSweeper(index Index, store Remover, maxAge, interval time.Duration, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		index:    index,
		store:    store,
		maxAge:   maxAge,
		interval: interval,
		logger:   logger.Named("retention_sweeper"),
		now:      time.Now,
	}
}

// Sweep removes every expired upload once and returns how many were deleted.
// Files that fail to delete stay indexed and are retried next time.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.maxAge)
	names, err := s.index.Expired(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	removed := make([]string, 0, len(names))
	for _, name := range names {
		if err := s.store.Remove(name); err != nil {
			s.logger.Warn("failed to remove expired upload", zap.String("name", name), zap.Error(err))
			continue
		}
		removed = append(removed, name)
	}

	if err := s.index.Forget(ctx, removed...); err != nil {
		return len(removed), err
	}
	return len(removed), nil
}

// Run sweeps every interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("retention sweeper started",
		zap.Duration("max_age", s.maxAge),
		zap.Duration("interval", s.interval),
	)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("retention sweeper stopped")
			return
		case <-ticker.C:
			n, err := s.Sweep(ctx)
			if err != nil {
				s.logger.Error("retention sweep failed", zap.Error(err))
				continue
			}
			if n > 0 {
				s.logger.Info("expired uploads removed", zap.Int("count", n))
			}
		}
	}
}
