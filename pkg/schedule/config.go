// Package schedule computes bi-weekly target days and decides when the
// pipeline is due to run.
package schedule

import (
	"errors"
	"fmt"
	"time"
)

const (
	referenceDateFormat = "2006-01-02"
	slotFormat          = "15:04"
)

var (
	// ErrReferenceDateRequired is returned when no reference date is configured
	ErrReferenceDateRequired = errors.New("schedule reference date is required")
	// ErrInvalidReferenceDate is returned when the reference date cannot be parsed
	ErrInvalidReferenceDate = errors.New("invalid schedule reference date")
	// ErrTooManyCheckTimes is returned when more than two check slots are configured
	ErrTooManyCheckTimes = errors.New("at most two check times are supported")
	// ErrInvalidCheckTime is returned when a check time cannot be parsed
	ErrInvalidCheckTime = errors.New("invalid check time")
	// ErrUnorderedCheckTimes is returned when check times are not strictly increasing
	ErrUnorderedCheckTimes = errors.New("check times must be strictly increasing")
)

// Config holds the recurrence configuration. Validation failures are fatal
// at startup: a broken schedule must never degrade to "always due" or
// "never due".
type Config struct {
	// ReferenceDate anchors the two-week cycle (YYYY-MM-DD); its weekday
	// is the recurrence weekday
	ReferenceDate string `yaml:"referenceDate"`
	// CheckTimes are the first and fallback attempt times (HH:MM). A single
	// entry collapses the window to one attempt.
	CheckTimes []string `yaml:"checkTimes"`
	// CheckInterval is the cadence of the driving loop's schedule evaluation
	CheckInterval string `yaml:"checkInterval" default:"@every 30s"`
}

// Validate checks if the schedule configuration is valid.
func (c *Config) Validate() error {
	if c.ReferenceDate == "" {
		return ErrReferenceDateRequired
	}

	if _, err := time.Parse(referenceDateFormat, c.ReferenceDate); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidReferenceDate, c.ReferenceDate)
	}

	if len(c.CheckTimes) == 0 {
		c.CheckTimes = []string{"11:20", "12:00"}
	}

	if len(c.CheckTimes) > 2 {
		return fmt.Errorf("%w: got %d", ErrTooManyCheckTimes, len(c.CheckTimes))
	}

	previous := -1

	for _, raw := range c.CheckTimes {
		slot, err := ParseSlot(raw)
		if err != nil {
			return err
		}

		if slot.minuteOfDay() <= previous {
			return fmt.Errorf("%w: %v", ErrUnorderedCheckTimes, c.CheckTimes)
		}

		previous = slot.minuteOfDay()
	}

	return nil
}

// Anchor returns the reference date as a UTC midnight. Call Validate first.
func (c *Config) Anchor() (time.Time, error) {
	anchor, err := time.Parse(referenceDateFormat, c.ReferenceDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidReferenceDate, c.ReferenceDate)
	}

	return anchor, nil
}

// Window returns the configured check slots. Call Validate first.
func (c *Config) Window() (Window, error) {
	slots := make([]Slot, 0, len(c.CheckTimes))

	for _, raw := range c.CheckTimes {
		slot, err := ParseSlot(raw)
		if err != nil {
			return Window{}, err
		}

		slots = append(slots, slot)
	}

	return NewWindow(slots...), nil
}

// Slot is one scheduled time-of-day on a target date.
type Slot struct {
	Hour   int
	Minute int
}

// ParseSlot parses an HH:MM time of day.
func ParseSlot(raw string) (Slot, error) {
	t, err := time.Parse(slotFormat, raw)
	if err != nil {
		return Slot{}, fmt.Errorf("%w: %q", ErrInvalidCheckTime, raw)
	}

	return Slot{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (s Slot) String() string {
	return fmt.Sprintf("%02d:%02d", s.Hour, s.Minute)
}

func (s Slot) minuteOfDay() int {
	return s.Hour*60 + s.Minute
}

// Window is the ordered set of check slots for a target date.
type Window struct {
	slots []Slot
}

// NewWindow creates a window from ordered slots.
func NewWindow(slots ...Slot) Window {
	return Window{slots: slots}
}

// Slots returns the window's slots in order.
func (w Window) Slots() []Slot {
	return w.slots
}

// Crossed counts how many slots the given wall-clock time has passed.
func (w Window) Crossed(now time.Time) int {
	minute := now.Hour()*60 + now.Minute()

	crossed := 0

	for _, slot := range w.slots {
		if minute >= slot.minuteOfDay() {
			crossed++
		}
	}

	return crossed
}
