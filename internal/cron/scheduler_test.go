package cron

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSingleflightCollapsesOverlappingFires fires an automation whose job
// sleeps longer than the schedule interval; singleflight must ensure at
// most one execution is in flight at a time.
func TestSingleflightCollapsesOverlappingFires(t *testing.T) {
	s := New(zerolog.Nop())
	var concurrent int32
	var maxConcurrent int32
	var fires int32

	err := s.Schedule(Automation{
		ID:       "job1",
		Schedule: "* * * * * *", // every second, seconds-precision enabled
		Enabled:  func() bool { return true },
		Fire: func(ctx context.Context) error {
			n := atomic.AddInt32(&concurrent, 1)
			for {
				old := atomic.LoadInt32(&maxConcurrent)
				if n <= old || atomic.CompareAndSwapInt32(&maxConcurrent, old, n) {
					break
				}
			}
			atomic.AddInt32(&fires, 1)
			time.Sleep(1500 * time.Millisecond)
			atomic.AddInt32(&concurrent, -1)
			return nil
		},
	})
	require.NoError(t, err)

	s.Start()
	time.Sleep(3200 * time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = s.Shutdown(ctx)

	assert.LessOrEqual(t, atomic.LoadInt32(&maxConcurrent), int32(1))
}

func TestScheduleRejectsDuplicateID(t *testing.T) {
	s := New(zerolog.Nop())
	a := Automation{ID: "job1", Schedule: "* * * * * *", Fire: func(context.Context) error { return nil }}
	require.NoError(t, s.Schedule(a))
	assert.Error(t, s.Schedule(a))
}

func TestDisabledAutomationDoesNotFire(t *testing.T) {
	s := New(zerolog.Nop())
	var fired int32
	err := s.Schedule(Automation{
		ID:       "job1",
		Schedule: "* * * * * *",
		Enabled:  func() bool { return false },
		Fire: func(context.Context) error {
			atomic.AddInt32(&fired, 1)
			return nil
		},
	})
	require.NoError(t, err)
	s.Start()
	time.Sleep(2200 * time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = s.Shutdown(ctx)

	assert.Equal(t, int32(0), atomic.LoadInt32(&fired))
}
