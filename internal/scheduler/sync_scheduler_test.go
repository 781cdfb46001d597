package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/versemate/offlinestore/internal/outbox"
)

type fakeSyncer struct {
	calls   atomic.Int32
	release chan struct{}
}

func (f *fakeSyncer) AutoSyncIfDue(ctx context.Context) bool {
	f.calls.Add(1)
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
		}
	}
	return true
}

type fakeDrainer struct {
	calls atomic.Int32
}

func (f *fakeDrainer) ProcessSyncQueue(ctx context.Context) (outbox.Result, error) {
	f.calls.Add(1)
	return outbox.Result{}, nil
}

func TestValidateCronSchedule(t *testing.T) {
	tests := []struct {
		schedule string
		valid    bool
	}{
		{"0 * * * *", true},
		{"*/5 * * * *", true},
		{"0 0 * * *", true},
		{"invalid", false},
		{"* * * *", false},
		{"60 * * * *", false},
	}

	for _, tt := range tests {
		t.Run(tt.schedule, func(t *testing.T) {
			err := ValidateCronSchedule(tt.schedule)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestCronDescription(t *testing.T) {
	assert.Equal(t, "Every hour at :00", CronDescription("0 * * * *"))
	assert.Equal(t, "Every 5 minutes", CronDescription("*/5 * * * *"))
	assert.Equal(t, "Custom schedule: 5 4 * * *", CronDescription("5 4 * * *"))
}

func TestNextRunTime(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 7, 0, 0, time.UTC)

	next, err := NextRunTime("*/5 * * * *", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 1, 12, 10, 0, 0, time.UTC), *next)

	_, err = NextRunTime("invalid", now)
	assert.Error(t, err)
}

func TestSyncScheduler_StartStop(t *testing.T) {
	s := NewSyncScheduler(&fakeSyncer{}, &fakeDrainer{}, Config{
		CheckSchedule:  "0 * * * *",
		OutboxSchedule: "*/5 * * * *",
	})

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())
	next := s.NextSyncCheck()
	require.NotNil(t, next)
	assert.Zero(t, next.Minute())

	s.Stop()
	assert.False(t, s.IsRunning())
	assert.Nil(t, s.NextSyncCheck())
}

func TestSyncScheduler_InvalidSchedule(t *testing.T) {
	s := NewSyncScheduler(&fakeSyncer{}, nil, Config{CheckSchedule: "every hour"})
	assert.Error(t, s.Start(context.Background()))
	assert.False(t, s.IsRunning())
}

func TestSyncScheduler_NoJobs(t *testing.T) {
	s := NewSyncScheduler(nil, nil, Config{CheckSchedule: "0 * * * *"})
	require.NoError(t, s.Start(context.Background()))
	assert.False(t, s.IsRunning())
}

func TestSyncScheduler_StopsWithContext(t *testing.T) {
	s := NewSyncScheduler(&fakeSyncer{}, nil, Config{CheckSchedule: "0 * * * *"})
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))

	cancel()
	assert.Eventually(t, func() bool { return !s.IsRunning() }, 2*time.Second, 10*time.Millisecond)
}

func TestSyncScheduler_SkipsOverlappingSync(t *testing.T) {
	syncer := &fakeSyncer{release: make(chan struct{})}
	s := NewSyncScheduler(syncer, nil, Config{})

	s.RunSyncNow()
	require.Eventually(t, s.IsSyncing, 2*time.Second, 5*time.Millisecond)

	s.runSync()
	assert.Equal(t, int32(1), syncer.calls.Load())

	close(syncer.release)
	assert.Eventually(t, func() bool { return !s.IsSyncing() }, 2*time.Second, 5*time.Millisecond)
}

func TestSyncScheduler_RunDrainNow(t *testing.T) {
	drainer := &fakeDrainer{}
	s := NewSyncScheduler(nil, drainer, Config{})

	s.RunDrainNow()
	assert.Eventually(t, func() bool { return drainer.calls.Load() == 1 }, 2*time.Second, 5*time.Millisecond)
}
