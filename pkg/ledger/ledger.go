package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/growatorchard/leadsync/pkg/observability"
)

const (
	messageKeyPrefix = "ledger:message:" // Full key: {prefix}:ledger:message:{messageID}
	dayKeyPrefix     = "ledger:day:"     // Full key: {prefix}:ledger:day:{YYYY-MM-DD}, a set of message IDs

	dayKeyFormat = "2006-01-02"
)

// Ledger is the sole source of truth for "already processed". An entry is
// written only after the downstream commit confirmed success, so presence
// implies the message's rows are durably committed.
type Ledger interface {
	// Has reports whether a message has already been committed.
	Has(ctx context.Context, messageID string) (bool, error)

	// RecordCommitted writes the ledger entry for a message. Callers must
	// only invoke this after the downstream append/upload succeeded.
	RecordCommitted(ctx context.Context, messageID string, at time.Time) error

	// CommittedOn reports whether any message was committed on the given
	// calendar day. Used to rebuild "satisfied today" after a restart.
	CommittedOn(ctx context.Context, day time.Time) (bool, error)

	// CommittedIDs returns all committed message IDs. Diagnostic use only.
	CommittedIDs(ctx context.Context) ([]string, error)

	// Close releases resources held by the ledger.
	Close() error
}

type redisLedger struct {
	log   logrus.FieldLogger
	cfg   *Config
	redis *redis.Client
}

// New creates a Redis-backed ledger.
func New(log logrus.FieldLogger, cfg *Config, client *redis.Client) Ledger {
	return &redisLedger{
		log:   log.WithField("component", "ledger"),
		cfg:   cfg,
		redis: client,
	}
}

func (l *redisLedger) Has(ctx context.Context, messageID string) (bool, error) {
	key := l.cfg.PrefixKey(messageKeyPrefix + messageID)

	_, err := l.redis.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}

		l.log.WithError(err).WithField("message_id", messageID).Error("Failed to read ledger entry")

		return false, fmt.Errorf("failed to check ledger for message %s: %w", messageID, err)
	}

	return true, nil
}

func (l *redisLedger) RecordCommitted(ctx context.Context, messageID string, at time.Time) error {
	messageKey := l.cfg.PrefixKey(messageKeyPrefix + messageID)
	dayKey := l.cfg.PrefixKey(dayKeyPrefix + at.Format(dayKeyFormat))

	// Entry and day index are written in one transaction so a crash cannot
	// leave the day marked satisfied without its entry, or vice versa.
	_, err := l.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, messageKey, at.Format(time.RFC3339), 0)
		pipe.SAdd(ctx, dayKey, messageID)

		return nil
	})
	if err != nil {
		l.log.WithError(err).
			WithFields(logrus.Fields{
				"message_id":   messageID,
				"committed_at": at,
			}).
			Error("Failed to write ledger entry")

		return fmt.Errorf("failed to record commit for message %s: %w", messageID, err)
	}

	observability.RecordLedgerEntry()

	l.log.WithFields(logrus.Fields{
		"message_id":   messageID,
		"committed_at": at,
	}).Info("Recorded committed message")

	return nil
}

func (l *redisLedger) CommittedOn(ctx context.Context, day time.Time) (bool, error) {
	dayKey := l.cfg.PrefixKey(dayKeyPrefix + day.Format(dayKeyFormat))

	count, err := l.redis.SCard(ctx, dayKey).Result()
	if err != nil {
		l.log.WithError(err).WithField("day", day.Format(dayKeyFormat)).Error("Failed to read day index")

		return false, fmt.Errorf("failed to check commits for %s: %w", day.Format(dayKeyFormat), err)
	}

	return count > 0, nil
}

func (l *redisLedger) CommittedIDs(ctx context.Context) ([]string, error) {
	pattern := l.cfg.PrefixKey(messageKeyPrefix) + "*"
	prefixLen := len(l.cfg.PrefixKey(messageKeyPrefix))

	// SCAN instead of KEYS so a large ledger never blocks Redis.
	const scanBatchSize = 100

	var ids []string

	iter := l.redis.Scan(ctx, 0, pattern, scanBatchSize).Iterator()
	for iter.Next(ctx) {
		ids = append(ids, iter.Val()[prefixLen:])
	}

	if err := iter.Err(); err != nil {
		l.log.WithError(err).Error("Failed to scan ledger entries")

		return nil, fmt.Errorf("failed to scan ledger entries: %w", err)
	}

	return ids, nil
}

func (l *redisLedger) Close() error {
	if l.redis != nil {
		return l.redis.Close()
	}

	return nil
}

// Verify interface compliance at compile time
var _ Ledger = (*redisLedger)(nil)
