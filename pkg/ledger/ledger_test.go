package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/growatorchard/leadsync/internal/testutil"
)

func newTestLedger(t *testing.T) Ledger {
	t.Helper()

	_, client := testutil.NewMiniredisClient(t)

	cfg := &Config{Address: "unused", Prefix: "test"}
	require.NoError(t, cfg.Validate())

	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)

	return &redisLedger{
		log:   log,
		cfg:   cfg,
		redis: client,
	}
}

func TestLedger(t *testing.T) {
	ctx := context.Background()

	t.Run("Has returns false for unknown message", func(t *testing.T) {
		l := newTestLedger(t)

		has, err := l.Has(ctx, "msg-unknown")
		require.NoError(t, err)
		assert.False(t, has)
	})

	t.Run("RecordCommitted then Has returns true", func(t *testing.T) {
		l := newTestLedger(t)
		now := time.Date(2025, 9, 30, 11, 20, 0, 0, time.UTC)

		require.NoError(t, l.RecordCommitted(ctx, "msg-1", now))

		has, err := l.Has(ctx, "msg-1")
		require.NoError(t, err)
		assert.True(t, has)
	})

	t.Run("RecordCommitted is idempotent per message", func(t *testing.T) {
		l := newTestLedger(t)
		now := time.Date(2025, 9, 30, 11, 20, 0, 0, time.UTC)

		require.NoError(t, l.RecordCommitted(ctx, "msg-1", now))
		require.NoError(t, l.RecordCommitted(ctx, "msg-1", now.Add(time.Hour)))

		ids, err := l.CommittedIDs(ctx)
		require.NoError(t, err)
		assert.Len(t, ids, 1)
	})

	t.Run("CommittedOn reflects commit dates", func(t *testing.T) {
		l := newTestLedger(t)
		day := time.Date(2025, 9, 30, 11, 20, 0, 0, time.UTC)

		committed, err := l.CommittedOn(ctx, day)
		require.NoError(t, err)
		assert.False(t, committed, "no commits yet")

		require.NoError(t, l.RecordCommitted(ctx, "msg-1", day))

		committed, err = l.CommittedOn(ctx, day)
		require.NoError(t, err)
		assert.True(t, committed)

		// A different calendar day is unaffected.
		committed, err = l.CommittedOn(ctx, day.AddDate(0, 0, 1))
		require.NoError(t, err)
		assert.False(t, committed)
	})

	t.Run("CommittedIDs returns all entries", func(t *testing.T) {
		l := newTestLedger(t)
		now := time.Date(2025, 9, 30, 11, 20, 0, 0, time.UTC)

		for _, id := range []string{"msg-a", "msg-b", "msg-c"} {
			require.NoError(t, l.RecordCommitted(ctx, id, now))
		}

		ids, err := l.CommittedIDs(ctx)
		require.NoError(t, err)
		assert.Len(t, ids, 3)
		assert.Contains(t, ids, "msg-a")
		assert.Contains(t, ids, "msg-b")
		assert.Contains(t, ids, "msg-c")
	})
}

func TestConfigValidate(t *testing.T) {
	t.Run("address required", func(t *testing.T) {
		cfg := &Config{}
		require.ErrorIs(t, cfg.Validate(), ErrAddressRequired)
	})

	t.Run("prefix defaults", func(t *testing.T) {
		cfg := &Config{Address: "localhost:6379"}
		require.NoError(t, cfg.Validate())
		assert.Equal(t, "leadsync", cfg.Prefix)
		assert.Equal(t, "leadsync:ledger:message:x", cfg.PrefixKey("ledger:message:x"))
	})
}
