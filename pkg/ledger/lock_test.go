package ledger

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/growatorchard/leadsync/internal/testutil"
)

func TestInstanceLock(t *testing.T) {
	ctx := context.Background()

	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)

	cfg := &Config{Address: "unused", Prefix: "test"}
	require.NoError(t, cfg.Validate())

	t.Run("acquire and release", func(t *testing.T) {
		_, client := testutil.NewMiniredisClient(t)

		lock := NewInstanceLock(log, cfg, client)
		require.NoError(t, lock.Acquire(ctx))
		require.NoError(t, lock.Release(ctx))
	})

	t.Run("second instance is rejected", func(t *testing.T) {
		_, client := testutil.NewMiniredisClient(t)

		first := NewInstanceLock(log, cfg, client)
		require.NoError(t, first.Acquire(ctx))

		second := NewInstanceLock(log, cfg, client)
		err := second.Acquire(ctx)
		require.ErrorIs(t, err, ErrLockHeld)

		require.NoError(t, first.Release(ctx))
	})

	t.Run("lock can be re-acquired after release", func(t *testing.T) {
		_, client := testutil.NewMiniredisClient(t)

		first := NewInstanceLock(log, cfg, client)
		require.NoError(t, first.Acquire(ctx))
		require.NoError(t, first.Release(ctx))

		second := NewInstanceLock(log, cfg, client)
		require.NoError(t, second.Acquire(ctx))
		require.NoError(t, second.Release(ctx))
	})

	t.Run("expired lease frees the lock", func(t *testing.T) {
		mr, client := testutil.NewMiniredisClient(t)

		first := NewInstanceLock(log, cfg, client)
		require.NoError(t, first.Acquire(ctx))

		// Simulate a crashed owner whose lease ran out.
		mr.FastForward(leaseTTL * 2)

		second := NewInstanceLock(log, cfg, client)
		require.NoError(t, second.Acquire(ctx))
		require.NoError(t, second.Release(ctx))
	})
}
