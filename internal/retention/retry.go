package retention

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/example/leafcheck/internal/logging"
)

type retryPolicy struct {
	attempts       int
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

func defaultRetryPolicy() retryPolicy {
	return retryPolicy{
		attempts:       3,
		initialBackoff: 50 * time.Millisecond,
		maxBackoff:     time.Second,
	}
}

// do runs fn, retrying transient failures with exponential backoff.
func (p retryPolicy) do(ctx context.Context, logger *zap.Logger, operation, uploadID string, fn func() error) error {
	if p.attempts <= 1 {
		return logging.NewOperationError(operation, uploadID, fn())
	}

	backoff := p.initialBackoff
	opLogger := logging.WithOperation(logger, operation, uploadID)
	var err error
	for attempt := 0; attempt < p.attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return logging.NewOperationError(operation, uploadID, ctx.Err())
			case <-time.After(backoff):
			}
			if next := backoff * 2; next <= p.maxBackoff {
				backoff = next
			}
		}

		err = fn()
		if err == nil {
			if attempt > 0 {
				opLogger.Info("redis operation succeeded after retry", zap.Int("attempt", attempt+1))
			}
			return nil
		}

		if !isTransientError(err) || attempt == p.attempts-1 {
			opLogger.Error("redis operation failed", zap.Error(err), zap.Int("attempt", attempt+1))
			return logging.NewOperationError(operation, uploadID, err)
		}

		opLogger.Warn("transient redis error", zap.Error(err), zap.Int("attempt", attempt+1))
	}
	return logging.NewOperationError(operation, uploadID, err)
}

// isTransientError reports whether a failed redis call is worth repeating.
// redis.Nil is an answer, not a failure, and a closed client or cancelled
// context never recovers by waiting.
func isTransientError(err error) bool {
	switch {
	case err == nil,
		errors.Is(err, redis.Nil),
		errors.Is(err, redis.ErrClosed),
		errors.Is(err, context.Canceled):
		return false
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ECONNREFUSED):
		return true
	}

	msg := err.Error()
	if strings.Contains(msg, "connection pool timeout") {
		return true
	}
	for _, prefix := range transientReplies {
		if strings.HasPrefix(msg, prefix) {
			return true
		}
	}

	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// Server replies that clear up once the node finishes loading or failing over.
var transientReplies = []string{"LOADING ", "TRYAGAIN ", "CLUSTERDOWN ", "MASTERDOWN ", "READONLY "}
