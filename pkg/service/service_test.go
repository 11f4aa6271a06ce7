package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/growatorchard/leadsync/pkg/pipeline"
	"github.com/growatorchard/leadsync/pkg/schedule"
)

type stubCommitLog struct {
	committed bool
	err       error
}

func (s *stubCommitLog) CommittedOn(_ context.Context, _ time.Time) (bool, error) {
	return s.committed, s.err
}

type fakeRunner struct {
	calls  int
	result pipeline.Result
	err    error
}

func (f *fakeRunner) RunOnce(_ context.Context) (pipeline.Result, error) {
	f.calls++

	return f.result, f.err
}

func newTestClock(t *testing.T, commits schedule.CommitLog) *schedule.Clock {
	t.Helper()

	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)

	clock, err := schedule.NewClock(log, &schedule.Config{
		ReferenceDate: "2025-09-30",
		CheckTimes:    []string{"11:20", "12:00"},
	}, commits)
	require.NoError(t, err)

	return clock
}

func TestEvaluate(t *testing.T) {
	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)

	t.Run("fires once per slot and stops after a commit", func(t *testing.T) {
		runner := &fakeRunner{result: pipeline.Result{Matched: 1, Committed: 1, Rows: 3}}
		svc := NewService(log, newTestClock(t, &stubCommitLog{}), runner, time.Second).(*service)

		now := time.Date(2025, 9, 30, 11, 25, 0, 0, time.UTC)
		svc.now = func() time.Time { return now }

		svc.evaluate(context.Background())
		assert.Equal(t, 1, runner.calls)

		// The day is satisfied; later ticks, including the fallback slot,
		// run nothing.
		svc.evaluate(context.Background())

		now = time.Date(2025, 9, 30, 12, 5, 0, 0, time.UTC)
		svc.evaluate(context.Background())

		assert.Equal(t, 1, runner.calls)
	})

	t.Run("empty run keeps the fallback slot armed", func(t *testing.T) {
		runner := &fakeRunner{result: pipeline.Result{Matched: 0}}
		svc := NewService(log, newTestClock(t, &stubCommitLog{}), runner, time.Second).(*service)

		now := time.Date(2025, 9, 30, 11, 25, 0, 0, time.UTC)
		svc.now = func() time.Time { return now }

		svc.evaluate(context.Background())
		assert.Equal(t, 1, runner.calls)

		// Still inside the first slot: nothing new to fire.
		svc.evaluate(context.Background())
		assert.Equal(t, 1, runner.calls)

		// The fallback slot fires a second attempt.
		now = time.Date(2025, 9, 30, 12, 1, 0, 0, time.UTC)
		svc.evaluate(context.Background())
		assert.Equal(t, 2, runner.calls)
	})

	t.Run("runner error leaves the slot attempt spent", func(t *testing.T) {
		runner := &fakeRunner{err: errors.New("mailbox down")}
		svc := NewService(log, newTestClock(t, &stubCommitLog{}), runner, time.Second).(*service)

		now := time.Date(2025, 9, 30, 11, 25, 0, 0, time.UTC)
		svc.now = func() time.Time { return now }

		svc.evaluate(context.Background())
		svc.evaluate(context.Background())
		assert.Equal(t, 1, runner.calls, "a failed attempt is not retried until the next slot")

		now = time.Date(2025, 9, 30, 12, 1, 0, 0, time.UTC)
		svc.evaluate(context.Background())
		assert.Equal(t, 2, runner.calls)
	})

	t.Run("non-target day runs nothing", func(t *testing.T) {
		runner := &fakeRunner{result: pipeline.Result{Committed: 1}}
		svc := NewService(log, newTestClock(t, &stubCommitLog{}), runner, time.Second).(*service)

		// An off-week Tuesday.
		svc.now = func() time.Time { return time.Date(2025, 10, 7, 11, 25, 0, 0, time.UTC) }

		svc.evaluate(context.Background())
		assert.Equal(t, 0, runner.calls)
	})

	t.Run("ledger failure suppresses the run", func(t *testing.T) {
		runner := &fakeRunner{result: pipeline.Result{Committed: 1}}
		commits := &stubCommitLog{err: errors.New("redis unavailable")}
		svc := NewService(log, newTestClock(t, commits), runner, time.Second).(*service)

		svc.now = func() time.Time { return time.Date(2025, 9, 30, 11, 25, 0, 0, time.UTC) }

		svc.evaluate(context.Background())
		assert.Equal(t, 0, runner.calls, "without the ledger the clock never assumes due")
	})
}

func TestServiceLifecycle(t *testing.T) {
	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)

	runner := &fakeRunner{}
	svc := NewService(log, newTestClock(t, &stubCommitLog{}), runner, 10*time.Millisecond)

	require.NoError(t, svc.Start(context.Background()))
	require.NoError(t, svc.Stop())
}

func TestParseTickInterval(t *testing.T) {
	tests := []struct {
		name     string
		spec     string
		expected time.Duration
		wantErr  bool
	}{
		{name: "every seconds", spec: "@every 30s", expected: 30 * time.Second},
		{name: "every minutes", spec: "@every 5m", expected: 5 * time.Minute},
		{name: "hourly cron", spec: "0 * * * *", expected: time.Hour},
		{name: "garbage", spec: "whenever", wantErr: true},
		{name: "empty", spec: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTickInterval(tt.spec)
			if tt.wantErr {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}
