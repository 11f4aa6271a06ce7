package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	lockKey       = "ledger:lock"
	leaseTTL      = 30 * time.Second
	renewInterval = 10 * time.Second
)

var (
	// ErrLockHeld is returned when another process already owns the ledger.
	// Two instances sharing one ledger would break the at-most-once
	// guarantee, so acquisition fails instead of waiting.
	ErrLockHeld = errors.New("ledger is locked by another instance")
)

// InstanceLock enforces single-instance ownership of the ledger via a
// Redis lease renewed in the background for the process lifetime.
type InstanceLock struct {
	log        logrus.FieldLogger
	redis      *redis.Client
	key        string
	instanceID string

	done chan struct{}
	wg   sync.WaitGroup
}

// NewInstanceLock creates an instance lock bound to the configured prefix.
func NewInstanceLock(log logrus.FieldLogger, cfg *Config, client *redis.Client) *InstanceLock {
	return &InstanceLock{
		log:        log.WithField("component", "instance_lock"),
		redis:      client,
		key:        cfg.PrefixKey(lockKey),
		instanceID: uuid.New().String(),
		done:       make(chan struct{}),
	}
}

// Acquire takes the lock or fails with ErrLockHeld. On success a background
// goroutine renews the lease until Release is called.
func (l *InstanceLock) Acquire(ctx context.Context) error {
	acquired, err := l.redis.SetNX(ctx, l.key, l.instanceID, leaseTTL).Result()
	if err != nil {
		return fmt.Errorf("failed to acquire instance lock: %w", err)
	}

	if !acquired {
		owner, err := l.redis.Get(ctx, l.key).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("failed to read instance lock owner: %w", err)
		}

		return fmt.Errorf("%w (owner %s)", ErrLockHeld, owner)
	}

	l.log.WithField("instance_id", l.instanceID).Info("Acquired ledger instance lock")

	l.wg.Add(1)
	go l.renewLoop()

	return nil
}

// Release stops lease renewal and deletes the lock if still owned.
func (l *InstanceLock) Release(ctx context.Context) error {
	close(l.done)
	l.wg.Wait()

	owner, err := l.redis.Get(ctx, l.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}

		return fmt.Errorf("failed to read instance lock owner: %w", err)
	}

	if owner != l.instanceID {
		l.log.WithField("owner", owner).Warn("Instance lock no longer owned, skipping release")

		return nil
	}

	if err := l.redis.Del(ctx, l.key).Err(); err != nil {
		return fmt.Errorf("failed to release instance lock: %w", err)
	}

	l.log.WithField("instance_id", l.instanceID).Info("Released ledger instance lock")

	return nil
}

func (l *InstanceLock) renewLoop() {
	defer l.wg.Done()

	ticker := time.NewTicker(renewInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.done:
			return

		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), renewInterval)

			if err := l.redis.Expire(ctx, l.key, leaseTTL).Err(); err != nil {
				l.log.WithError(err).Warn("Failed to renew instance lock lease")
			}

			cancel()
		}
	}
}
