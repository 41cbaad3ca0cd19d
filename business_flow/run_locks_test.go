package businessflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunLockManagerSerializesPerHotel(t *testing.T) {
	locks := NewRunLockManager(nil, nil)
	ctx := context.Background()

	require.NoError(t, locks.Acquire(ctx, "hotel-1"))

	err := locks.Acquire(ctx, "hotel-1")
	require.Error(t, err)
	assert.True(t, IsConcurrentRun(err))

	// A different hotel is not blocked.
	require.NoError(t, locks.Acquire(ctx, "hotel-2"))
	locks.Release("hotel-2")

	locks.Release("hotel-1")
	require.NoError(t, locks.Acquire(ctx, "hotel-1"))
	locks.Release("hotel-1")
}

func TestRunLockManagerReleaseIsIdempotent(t *testing.T) {
	locks := NewRunLockManager(nil, nil)

	locks.Release("hotel-1")

	require.NoError(t, locks.Acquire(context.Background(), "hotel-1"))
	locks.Release("hotel-1")
	locks.Release("hotel-1")
}
