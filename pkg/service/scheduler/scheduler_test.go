package scheduler_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/service/scheduler"
)

func TestScheduleFires(t *testing.T) {
	s := scheduler.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	defer s.Stop()

	fired := make(chan struct{})
	s.Schedule("k1", time.Now().Add(20*time.Millisecond), func(ctx context.Context) {
		close(fired)
	})

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("task did not fire")
	}
}

func TestCancelSuppressesFire(t *testing.T) {
	s := scheduler.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	defer s.Stop()

	var fired atomic.Int32
	s.Schedule("k1", time.Now().Add(50*time.Millisecond), func(ctx context.Context) {
		fired.Add(1)
	})
	gt.B(t, s.Cancel("k1")).True()
	gt.B(t, s.Cancel("k1")).False()

	time.Sleep(200 * time.Millisecond)
	gt.Value(t, fired.Load()).Equal(0)
}

func TestRescheduleReplacesPending(t *testing.T) {
	s := scheduler.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	defer s.Stop()

	results := make(chan string, 2)
	s.Schedule("k1", time.Now().Add(50*time.Millisecond), func(ctx context.Context) {
		results <- "first"
	})
	s.Schedule("k1", time.Now().Add(100*time.Millisecond), func(ctx context.Context) {
		results <- "second"
	})

	select {
	case got := <-results:
		gt.Value(t, got).Equal("second")
	case <-time.After(2 * time.Second):
		t.Fatal("task did not fire")
	}

	select {
	case got := <-results:
		t.Fatalf("replaced task fired: %s", got)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestOrderedByDeadline(t *testing.T) {
	s := scheduler.New(scheduler.WithWorkers(1))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	defer s.Stop()

	results := make(chan string, 3)
	s.Schedule("c", time.Now().Add(90*time.Millisecond), func(ctx context.Context) { results <- "c" })
	s.Schedule("a", time.Now().Add(30*time.Millisecond), func(ctx context.Context) { results <- "a" })
	s.Schedule("b", time.Now().Add(60*time.Millisecond), func(ctx context.Context) { results <- "b" })

	var got []string
	for i := 0; i < 3; i++ {
		select {
		case v := <-results:
			got = append(got, v)
		case <-time.After(2 * time.Second):
			t.Fatal("task did not fire")
		}
	}
	gt.Array(t, got).Equal([]string{"a", "b", "c"})
}

func TestTaskMayReschedule(t *testing.T) {
	s := scheduler.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	defer s.Stop()

	done := make(chan struct{})
	s.Schedule("chain", time.Now().Add(10*time.Millisecond), func(ctx context.Context) {
		s.Schedule("chain", time.Now().Add(10*time.Millisecond), func(ctx context.Context) {
			close(done)
		})
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("rescheduled task did not fire")
	}
}

func TestStopWaitsForInflight(t *testing.T) {
	s := scheduler.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	var finished atomic.Bool
	s.Schedule("slow", time.Now().Add(10*time.Millisecond), func(ctx context.Context) {
		time.Sleep(100 * time.Millisecond)
		finished.Store(true)
	})

	time.Sleep(50 * time.Millisecond)
	s.Stop()
	gt.B(t, finished.Load()).True()
}
