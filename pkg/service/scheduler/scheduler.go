package scheduler

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/interfaces"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/utils/logging"
)

// Task is a deadline callback. It runs on a pool goroutine, never on the
// scheduler loop, so it may block on I/O.
type Task func(ctx context.Context)

type entry struct {
	key      string
	at       time.Time
	task     Task
	canceled bool
	index    int
}

type entryHeap []*entry

func (h entryHeap) Len() int            { return len(h) }
func (h entryHeap) Less(i, j int) bool  { return h[i].at.Before(h[j].at) }
func (h entryHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *entryHeap) Push(x interface{}) { e := x.(*entry); e.index = len(*h); *h = append(*h, e) }
func (h *entryHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// Scheduler fires keyed tasks at their deadlines. One goroutine watches the
// earliest deadline; due tasks are handed to a bounded worker pool.
// Re-scheduling a key replaces its pending task, Cancel drops it. Canceled
// entries stay in the heap and are skipped when they surface (lazy
// cancellation), so Cancel is O(1).
type Scheduler struct {
	mu      sync.Mutex
	queue   entryHeap
	entries map[string]*entry
	wake    chan struct{}
	clock   interfaces.Clock

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
	workers  int
}

type Option func(*Scheduler)

// WithClock replaces the time source used for deadline comparison
func WithClock(clock interfaces.Clock) Option {
	return func(s *Scheduler) {
		s.clock = clock
	}
}

// WithWorkers bounds the number of concurrently running tasks
func WithWorkers(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.workers = n
		}
	}
}

func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		entries: make(map[string]*entry),
		wake:    make(chan struct{}, 1),
		clock:   RealClock{},
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		workers: 8,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Schedule registers task to run at the given time. A pending task under the
// same key is replaced.
func (s *Scheduler) Schedule(key string, at time.Time, task Task) {
	s.mu.Lock()
	if prev, ok := s.entries[key]; ok {
		prev.canceled = true
	}
	e := &entry{key: key, at: at, task: task}
	s.entries[key] = e
	heap.Push(&s.queue, e)
	s.mu.Unlock()

	s.poke()
}

// Cancel drops the pending task for the key, if any. Returns whether a task
// was pending.
func (s *Scheduler) Cancel(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return false
	}
	e.canceled = true
	delete(s.entries, key)
	return true
}

func (s *Scheduler) poke() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Start runs the deadline loop until ctx is done or Stop is called
func (s *Scheduler) Start(ctx context.Context) {
	go s.run(ctx)
}

// Stop halts the loop and waits for in-flight tasks to finish
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
	<-s.done
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)

	logger := logging.From(ctx)
	grp, grpCtx := errgroup.WithContext(context.WithoutCancel(ctx))
	grp.SetLimit(s.workers)
	defer func() {
		if err := grp.Wait(); err != nil {
			logger.Warn("scheduler worker failed", "error", err)
		}
	}()

	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		wait := s.dispatchDue(grpCtx, grp)

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(wait)

		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-s.wake:
		case <-timer.C:
		}
	}
}

// dispatchDue pops every due entry and hands it to the pool, then returns
// how long to sleep until the next deadline. Tasks are collected under the
// lock but dispatched outside it: grp.Go blocks when the pool is full, and a
// running task may itself call Schedule.
func (s *Scheduler) dispatchDue(ctx context.Context, grp *errgroup.Group) time.Duration {
	const idleWait = time.Minute

	s.mu.Lock()
	now := s.clock.Now()
	wait := idleWait
	var due []Task
	for s.queue.Len() > 0 {
		next := s.queue[0]
		if next.canceled {
			heap.Pop(&s.queue)
			continue
		}
		if next.at.After(now) {
			wait = next.at.Sub(now)
			break
		}

		heap.Pop(&s.queue)
		if s.entries[next.key] == next {
			delete(s.entries, next.key)
		}
		due = append(due, next.task)
	}
	s.mu.Unlock()

	for _, task := range due {
		task := task
		grp.Go(func() error {
			task(ctx)
			return nil
		})
	}

	return wait
}
