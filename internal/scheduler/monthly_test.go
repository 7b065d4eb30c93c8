package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/club-league/internal/logging"
)

func TestNextRun(t *testing.T) {
	seoul, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "mid month",
			now:  time.Date(2026, time.October, 16, 10, 0, 0, 0, seoul),
			want: time.Date(2026, time.October, 31, 23, 59, 0, 0, seoul),
		},
		{
			name: "february in a leap year",
			now:  time.Date(2028, time.February, 3, 0, 0, 0, 0, seoul),
			want: time.Date(2028, time.February, 29, 23, 59, 0, 0, seoul),
		},
		{
			name: "february in a common year",
			now:  time.Date(2027, time.February, 3, 0, 0, 0, 0, seoul),
			want: time.Date(2027, time.February, 28, 23, 59, 0, 0, seoul),
		},
		{
			name: "exactly at the firing time moves to next month",
			now:  time.Date(2026, time.April, 30, 23, 59, 0, 0, seoul),
			want: time.Date(2026, time.May, 31, 23, 59, 0, 0, seoul),
		},
		{
			name: "december rolls the year",
			now:  time.Date(2026, time.December, 31, 23, 59, 30, 0, seoul),
			want: time.Date(2027, time.January, 31, 23, 59, 0, 0, seoul),
		},
		{
			name: "utc instant is read in the club timezone",
			// 2026-06-30 15:30 UTC is already 2026-07-01 00:30 in Seoul.
			now:  time.Date(2026, time.June, 30, 15, 30, 0, 0, time.UTC),
			want: time.Date(2026, time.July, 31, 23, 59, 0, 0, seoul),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextRun(tt.now, seoul)
			assert.True(t, got.Equal(tt.want), "got %s, want %s", got, tt.want)
			assert.Equal(t, seoul, got.Location())
		})
	}
}

func TestMonthly_StopBeforeFiring(t *testing.T) {
	called := false
	m := NewMonthly(func(context.Context) error {
		called = true
		return nil
	}, time.UTC, logging.Discard())

	done := make(chan struct{})
	go func() {
		m.Start(context.Background())
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	m.Stop()
	m.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start did not return after Stop")
	}
	assert.False(t, called)
}

func TestMonthly_ContextCancel(t *testing.T) {
	m := NewMonthly(func(context.Context) error { return nil }, time.UTC, logging.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Start(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start did not return after cancel")
	}
}

func TestMonthly_RunsJobWhenDue(t *testing.T) {
	fired := make(chan struct{}, 1)
	m := NewMonthly(func(context.Context) error {
		select {
		case fired <- struct{}{}:
		default:
		}
		return nil
	}, time.UTC, logging.Discard())

	due := NextRun(time.Now(), time.UTC)
	m.now = func() time.Time { return due.Add(-5 * time.Millisecond) }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Start(ctx)

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not fire")
	}
	m.Stop()
}
