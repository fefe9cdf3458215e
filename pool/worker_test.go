package pool

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestWorkerUnit_RecoversPanicAsTaskFailure(t *testing.T) {
	p := newTestPool(t, 1)

	panicking := TaskFunc(func(ctx context.Context) (any, error) {
		panic("boom")
	})

	_, err := p.CallAvailableWorker(panicking, time.Second)
	if err == nil {
		t.Fatal("expected an error from a panicking task")
	}

	var tf *TaskFailureError
	if !errors.As(err, &tf) {
		t.Fatalf("expected *TaskFailureError, got %T: %v", err, err)
	}
}

func TestWorkerUnit_SurvivesPanicAndServesNextTask(t *testing.T) {
	p := newTestPool(t, 1)

	_, _ = p.CallAvailableWorker(TaskFunc(func(ctx context.Context) (any, error) {
		panic("boom")
	}), time.Second)

	v, err := p.CallAvailableWorker(echoTask("still alive"), time.Second)
	if err != nil {
		t.Fatalf("expected worker to survive panic, got %v", err)
	}
	if v != "still alive" {
		t.Fatalf("expected 'still alive', got %v", v)
	}
}

func TestWorkerUnit_IsAvailableReflectsMarkerAndMailbox(t *testing.T) {
	p := newTestPool(t, 1)
	ws := p.sup.workers()
	w := ws.WorkerAt(0)

	if !w.isAvailable() {
		t.Fatal("expected freshly started worker to be available")
	}

	release := make(chan struct{})
	w.box.Enqueue(submission{kind: kindCast, task: TaskFunc(func(ctx context.Context) (any, error) {
		<-release
		return nil, nil
	})})
	time.Sleep(20 * time.Millisecond)

	if w.isAvailable() {
		t.Fatal("expected busy worker to report unavailable")
	}
	close(release)
}
