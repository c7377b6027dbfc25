package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerRunsOnInterval(t *testing.T) {
	var count int32
	task := TaskFunc(func(ctx context.Context) error {
		atomic.AddInt32(&count, 1)
		return errors.New("실패해도 계속")
	})

	s := NewScheduler(20*time.Millisecond, task, WithName("test"))
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	err := s.Start(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&count), int32(3))
}

func TestSchedulerImmediateRunAndStop(t *testing.T) {
	ran := make(chan struct{}, 1)
	task := TaskFunc(func(ctx context.Context) error {
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil
	})

	s := NewScheduler(time.Hour, task, WithImmediateRun())
	done := make(chan error, 1)
	go func() { done <- s.Start(context.Background()) }()

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("즉시 실행되지 않았습니다")
	}

	s.Stop()
	s.Stop()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("스케줄러가 멈추지 않았습니다")
	}
}
