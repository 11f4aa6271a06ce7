package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const dayKeyFormat = "2006-01-02"

// DayState tracks a target day's progress through its check slots.
type DayState int

const (
	// DayPending means no slot has fired yet today
	DayPending DayState = iota
	// DayFirstAttempted means at least one slot fired without a commit
	DayFirstAttempted
	// DaySatisfied means a commit succeeded today; no further slot fires
	DaySatisfied
)

func (s DayState) String() string {
	switch s {
	case DayPending:
		return "pending"
	case DayFirstAttempted:
		return "first_attempted"
	case DaySatisfied:
		return "satisfied"
	default:
		return "unknown"
	}
}

// CommitLog is the slice of the ledger the clock needs: whether anything was
// committed on a given calendar day. Satisfaction is always derived from
// this durable record, never from in-memory flags alone, so a restart
// mid-day cannot cause a duplicate run.
type CommitLog interface {
	CommittedOn(ctx context.Context, day time.Time) (bool, error)
}

// Clock decides whether the pipeline is due, based on the bi-weekly anchor,
// the check window, and the per-day state machine.
type Clock struct {
	log     logrus.FieldLogger
	anchor  time.Time // UTC midnight of the reference date
	window  Window
	commits CommitLog

	mu         sync.Mutex
	day        string // date key the state below belongs to
	state      DayState
	slotsFired int
}

// NewClock creates a clock from a validated configuration.
func NewClock(log logrus.FieldLogger, cfg *Config, commits CommitLog) (*Clock, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	anchor, err := cfg.Anchor()
	if err != nil {
		return nil, err
	}

	window, err := cfg.Window()
	if err != nil {
		return nil, err
	}

	return &Clock{
		log:     log.WithField("component", "clock"),
		anchor:  anchor,
		window:  window,
		commits: commits,
	}, nil
}

// IsTargetDay reports whether d falls on the bi-weekly recurrence: same
// weekday as the anchor and an even number of weeks after it. Dates before
// the anchor are never target days.
func (c *Clock) IsTargetDay(d time.Time) bool {
	day := dateUTC(d)

	if day.Before(c.anchor) {
		return false
	}

	if day.Weekday() != c.anchor.Weekday() {
		return false
	}

	days := int(day.Sub(c.anchor).Hours() / 24)

	return (days/7)%2 == 0
}

// NextTargetDate returns the first target day strictly after the given date.
func (c *Clock) NextTargetDate(after time.Time) time.Time {
	day := dateUTC(after)

	if day.Before(c.anchor) {
		return c.anchor
	}

	days := int(day.Sub(c.anchor).Hours() / 24)
	next := (days/14 + 1) * 14

	return c.anchor.AddDate(0, 0, next)
}

// DueNow reports whether a check slot should fire at the given instant.
// It fires once per crossed slot on a target day, stops for the day once the
// ledger shows a commit, and resets its slot accounting at midnight. Errors
// reading the ledger propagate: the clock never silently assumes "due".
func (c *Clock) DueNow(ctx context.Context, now time.Time) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.rollover(now)

	if !c.IsTargetDay(now) {
		return false, nil
	}

	if c.state == DaySatisfied {
		return false, nil
	}

	committed, err := c.commits.CommittedOn(ctx, now)
	if err != nil {
		return false, fmt.Errorf("failed to derive day state from ledger: %w", err)
	}

	if committed {
		c.state = DaySatisfied
		c.log.WithField("day", c.day).Info("Day already satisfied by a prior commit")

		return false, nil
	}

	crossed := c.window.Crossed(now)
	if crossed <= c.slotsFired {
		return false, nil
	}

	c.slotsFired = crossed
	if c.state == DayPending {
		c.state = DayFirstAttempted
	}

	c.log.WithFields(logrus.Fields{
		"day":           c.day,
		"slots_crossed": crossed,
		"state":         c.state.String(),
	}).Info("Check slot due")

	return true, nil
}

// MarkSatisfied records that a run committed at least one message, so no
// further slot fires today. The durable source of truth is still the
// ledger; this only spares a redundant lookup.
func (c *Clock) MarkSatisfied(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.rollover(now)
	c.state = DaySatisfied
}

// NextFire returns the next slot instant strictly after now, looking ahead
// at most `within`. Satisfaction state is ignored; this is schedule
// arithmetic for diagnostics.
func (c *Clock) NextFire(now time.Time, within time.Duration) (time.Time, bool) {
	horizon := now.Add(within)

	for day := dateUTC(now); !day.After(dateUTC(horizon)); day = day.AddDate(0, 0, 1) {
		if !c.IsTargetDay(day) {
			continue
		}

		for _, slot := range c.window.Slots() {
			instant := time.Date(day.Year(), day.Month(), day.Day(), slot.Hour, slot.Minute, 0, 0, now.Location())

			if instant.After(now) && !instant.After(horizon) {
				return instant, true
			}
		}
	}

	return time.Time{}, false
}

// Status describes the schedule at an instant, for diagnostics. It does not
// advance the per-day state machine.
type Status struct {
	Now          time.Time
	TargetDay    bool
	State        DayState
	SlotsCrossed int
	Satisfied    bool
	NextTarget   time.Time
}

// Status reports the current schedule state without mutating it.
func (c *Clock) Status(ctx context.Context, now time.Time) (Status, error) {
	committed, err := c.commits.CommittedOn(ctx, now)
	if err != nil {
		return Status{}, fmt.Errorf("failed to read ledger for status: %w", err)
	}

	c.mu.Lock()
	state := c.state
	if c.day != now.Format(dayKeyFormat) {
		state = DayPending
	}
	c.mu.Unlock()

	if committed {
		state = DaySatisfied
	}

	return Status{
		Now:          now,
		TargetDay:    c.IsTargetDay(now),
		State:        state,
		SlotsCrossed: c.window.Crossed(now),
		Satisfied:    committed,
		NextTarget:   c.NextTargetDate(now),
	}, nil
}

// rollover resets slot accounting when the tracked date changes. Callers
// hold the mutex.
func (c *Clock) rollover(now time.Time) {
	key := now.Format(dayKeyFormat)
	if c.day == key {
		return
	}

	c.day = key
	c.state = DayPending
	c.slotsFired = 0
}

// dateUTC normalizes an instant to its calendar date at UTC midnight, so
// day arithmetic is exact 24-hour multiples regardless of zone or DST.
func dateUTC(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
