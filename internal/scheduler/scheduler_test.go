package scheduler

import (
	"context"
	"errors"
	"io"
	"log"
	"sync/atomic"
	"testing"
	"time"
)

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestScheduler_FiresImmediately(t *testing.T) {
	fired := make(chan struct{}, 1)

	s := New(Options{
		Logger: quietLogger(),
		Jobs: []Job{{
			Name:     "immediate",
			Interval: time.Hour,
			Run: func(ctx context.Context) error {
				select {
				case fired <- struct{}{}:
				default:
				}
				return nil
			},
		}},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not fire immediately on start")
	}

	cancel()
	s.Wait()
}

func TestScheduler_RearmsAfterFailure(t *testing.T) {
	var runs atomic.Int32

	s := New(Options{
		Logger: quietLogger(),
		Jobs: []Job{{
			Name:     "flaky",
			Interval: 10 * time.Millisecond,
			Run: func(ctx context.Context) error {
				runs.Add(1)
				return errors.New("remote unavailable")
			},
		}},
	})

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)

	deadline := time.After(2 * time.Second)
	for runs.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("job was not re-armed after failures, runs=%d", runs.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	s.Wait()
}

func TestScheduler_JobsIndependent(t *testing.T) {
	var fastRuns atomic.Int32
	slowStarted := make(chan struct{})
	release := make(chan struct{})

	s := New(Options{
		Logger: quietLogger(),
		Jobs: []Job{
			{
				Name:     "slow",
				Interval: time.Hour,
				Run: func(ctx context.Context) error {
					close(slowStarted)
					select {
					case <-release:
					case <-ctx.Done():
					}
					return nil
				},
			},
			{
				Name:     "fast",
				Interval: 10 * time.Millisecond,
				Run: func(ctx context.Context) error {
					fastRuns.Add(1)
					return nil
				},
			},
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)

	<-slowStarted

	deadline := time.After(2 * time.Second)
	for fastRuns.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("fast job blocked by slow job, runs=%d", fastRuns.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}

	close(release)
	cancel()
	s.Wait()
}

func TestScheduler_StopQuiesces(t *testing.T) {
	var runs atomic.Int32

	s := New(Options{
		Logger: quietLogger(),
		Jobs: []Job{{
			Name:     "counting",
			Interval: 5 * time.Millisecond,
			Run: func(ctx context.Context) error {
				runs.Add(1)
				return nil
			},
		}},
	})

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)

	time.Sleep(30 * time.Millisecond)
	cancel()
	s.Wait()

	after := runs.Load()
	time.Sleep(30 * time.Millisecond)
	if got := runs.Load(); got != after {
		t.Errorf("job kept running after stop: %d -> %d", after, got)
	}
}

func TestScheduler_NoOverlappingIterations(t *testing.T) {
	var inFlight atomic.Int32
	var maxInFlight atomic.Int32

	s := New(Options{
		Logger: quietLogger(),
		Jobs: []Job{{
			Name:     "serial",
			Interval: time.Millisecond,
			Run: func(ctx context.Context) error {
				n := inFlight.Add(1)
				if n > maxInFlight.Load() {
					maxInFlight.Store(n)
				}
				time.Sleep(10 * time.Millisecond)
				inFlight.Add(-1)
				return nil
			},
		}},
	})

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)

	time.Sleep(100 * time.Millisecond)
	cancel()
	s.Wait()

	if maxInFlight.Load() > 1 {
		t.Errorf("iterations of the same job overlapped, max in flight = %d", maxInFlight.Load())
	}
}
