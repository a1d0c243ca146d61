package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/isdelr/edgefit-be/internal/models"
)

// DefaultTimeout bounds every store call when no timeout is configured.
const DefaultTimeout = 5 * time.Second

type boundedStore struct {
	timeout time.Duration
}

func newBoundedStore(timeout time.Duration) boundedStore {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return boundedStore{timeout: timeout}
}

func (s boundedStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// unavailable wraps a driver or timeout failure as models.ErrStoreUnavailable.
func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w", op, errors.Join(models.ErrStoreUnavailable, err))
}
