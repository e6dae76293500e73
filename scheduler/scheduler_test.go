package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/use-agent/dailyclaim/automation"
	"github.com/use-agent/dailyclaim/config"
	"github.com/use-agent/dailyclaim/report"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestNew_RejectsBadSchedule(t *testing.T) {
	var lock automation.RunLock

	_, err := New(config.ScheduleConfig{Cron: "not a cron"}, &lock, nil, nil)
	assert.ErrorContains(t, err, "cron")

	_, err = New(config.ScheduleConfig{Cron: "7 8 * * *", Timezone: "Mars/Olympus"}, &lock, nil, nil)
	assert.ErrorContains(t, err, "timezone")
}

func TestScheduler_RunOnStart(t *testing.T) {
	var lock automation.RunLock
	var runs atomic.Int32
	done := make(chan *report.Summary, 1)

	s, err := New(
		config.ScheduleConfig{Cron: "7 8 * * *", Timezone: "Asia/Shanghai", RunOnStart: true},
		&lock,
		func(context.Context) *report.Summary {
			runs.Add(1)
			return report.NewSummary("anyrouter")
		},
		func(sum *report.Summary) { done <- sum },
	)
	require.NoError(t, err)

	s.Start(context.Background())
	select {
	case sum := <-done:
		assert.Equal(t, "anyrouter", sum.Site)
	case <-time.After(5 * time.Second):
		t.Fatal("run on start never fired")
	}
	require.NoError(t, s.Shutdown())

	assert.EqualValues(t, 1, runs.Load())
	assert.NotNil(t, lock.Last())
}

func TestScheduler_SkipsWhileAnotherRunIsActive(t *testing.T) {
	var lock automation.RunLock
	release := make(chan struct{})
	finished := make(chan struct{})
	require.NoError(t, lock.Start(context.Background(), func(context.Context) *report.Summary {
		<-release
		return report.NewSummary("manual")
	}, func(*report.Summary) { close(finished) }))

	var scheduled atomic.Int32
	s, err := New(config.ScheduleConfig{Cron: "7 8 * * *"}, &lock, func(context.Context) *report.Summary {
		scheduled.Add(1)
		return report.NewSummary("scheduled")
	}, nil)
	require.NoError(t, err)

	s.trigger()
	assert.Zero(t, scheduled.Load())

	close(release)
	<-finished
	assert.Eventually(t, func() bool { return !lock.Running() }, time.Second, 5*time.Millisecond)

	s.trigger()
	assert.EqualValues(t, 1, scheduled.Load())
	require.NoError(t, s.Shutdown())
}

func TestScheduler_NextRun(t *testing.T) {
	var lock automation.RunLock
	s, err := New(config.ScheduleConfig{Cron: "7 8 * * *", Timezone: "UTC"}, &lock, nil, nil)
	require.NoError(t, err)

	s.Start(context.Background())
	defer func() { require.NoError(t, s.Shutdown()) }()

	require.Eventually(t, func() bool { return s.NextRun() != nil }, time.Second, 10*time.Millisecond)
	next := s.NextRun().UTC()
	assert.Equal(t, 8, next.Hour())
	assert.Equal(t, 7, next.Minute())
	assert.True(t, next.After(time.Now()))
}
