package pool

import (
	"context"
	"testing"
	"time"
)

func TestCallAvailableWorker_TimesOutWithoutStaleQueueEntry(t *testing.T) {
	p := newTestPool(t, 1)

	release := make(chan struct{})
	busy := TaskFunc(func(ctx context.Context) (any, error) {
		<-release
		return nil, nil
	})
	if err := p.CastToAvailableWorker(busy); err != nil {
		t.Fatalf("CastToAvailableWorker: %v", err)
	}
	time.Sleep(20 * time.Millisecond) // ensure the sole worker is now busy

	_, err := p.CallAvailableWorker(echoTask("x"), 0)
	close(release)

	if err != ErrTimeout {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}

	time.Sleep(20 * time.Millisecond)
	if n := p.sup.queueManagerHandle().pendingTaskCount(); n != 0 {
		t.Fatalf("expected no stale queue entry, pending=%d", n)
	}
}

func TestCallAvailableWorker_DeadlineDiscardsLateReply(t *testing.T) {
	p := newTestPool(t, 1)

	slow := TaskFunc(func(ctx context.Context) (any, error) {
		time.Sleep(150 * time.Millisecond)
		return "late", nil
	})
	// occupy the only worker first so the call queues
	release := make(chan struct{})
	_ = p.CastToAvailableWorker(TaskFunc(func(ctx context.Context) (any, error) {
		<-release
		return nil, nil
	}))
	time.Sleep(20 * time.Millisecond)

	start := time.Now()
	_, err := p.CallAvailableWorker(slow, 50*time.Millisecond)
	elapsed := time.Since(start)
	close(release)

	if err != ErrTimeout {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if elapsed > 200*time.Millisecond {
		t.Fatalf("call took too long to time out: %v", elapsed)
	}
}

func TestCallAvailableWorker_DispatchesImmediatelyWhenIdle(t *testing.T) {
	p := newTestPool(t, 2)

	v, err := p.CallAvailableWorker(echoTask(7), time.Second)
	if err != nil {
		t.Fatalf("CallAvailableWorker: %v", err)
	}
	if v != 7 {
		t.Fatalf("expected 7, got %v", v)
	}
}

func TestSendRequestAvailableWorker_AsyncHandleResolves(t *testing.T) {
	p := newTestPool(t, 1)

	h, err := p.SendRequestAvailableWorker(echoTask("async"), time.Second)
	if err != nil {
		t.Fatalf("SendRequestAvailableWorker: %v", err)
	}
	v, err := h.Wait()
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if v != "async" {
		t.Fatalf("expected async, got %v", v)
	}
}

func TestQueueManager_FIFOBySingleWorker(t *testing.T) {
	p := newTestPool(t, 1)

	order := make(chan int, 3)
	release := make(chan struct{})
	_ = p.CastToAvailableWorker(TaskFunc(func(ctx context.Context) (any, error) {
		<-release
		return nil, nil
	}))
	time.Sleep(10 * time.Millisecond)

	for i := 1; i <= 3; i++ {
		v := i
		_ = p.CastToAvailableWorker(TaskFunc(func(ctx context.Context) (any, error) {
			order <- v
			return nil, nil
		}))
	}
	close(release)

	for i := 1; i <= 3; i++ {
		select {
		case got := <-order:
			if got != i {
				t.Fatalf("expected submission order %d, got %d", i, got)
			}
		case <-time.After(time.Second):
			t.Fatal("tasks never drained")
		}
	}
}
