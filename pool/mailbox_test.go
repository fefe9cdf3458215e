package pool

import (
	"testing"
	"time"
)

func TestMailbox_EnqueueDequeueFIFO(t *testing.T) {
	mb := newMailbox()

	for i := 0; i < 3; i++ {
		if !mb.Enqueue(submission{submitTime: int64(i)}) {
			t.Fatalf("enqueue %d failed", i)
		}
	}

	for i := 0; i < 3; i++ {
		s, ok := mb.TryDequeue()
		if !ok {
			t.Fatalf("dequeue %d: expected ok", i)
		}
		if s.submitTime != int64(i) {
			t.Fatalf("dequeue %d: expected FIFO order, got submitTime=%d", i, s.submitTime)
		}
	}

	if _, ok := mb.TryDequeue(); ok {
		t.Fatal("expected empty mailbox")
	}
}

func TestMailbox_DequeueBlocksUntilEnqueue(t *testing.T) {
	mb := newMailbox()
	quit := make(chan struct{})

	done := make(chan submission, 1)
	go func() {
		s, ok := mb.Dequeue(quit)
		if !ok {
			return
		}
		done <- s
	}()

	time.Sleep(20 * time.Millisecond)
	mb.Enqueue(submission{submitTime: 42})

	select {
	case s := <-done:
		if s.submitTime != 42 {
			t.Fatalf("unexpected submission: %+v", s)
		}
	case <-time.After(time.Second):
		t.Fatal("Dequeue never returned")
	}
}

func TestMailbox_CloseUnblocksDequeue(t *testing.T) {
	mb := newMailbox()
	quit := make(chan struct{})

	result := make(chan bool, 1)
	go func() {
		_, ok := mb.Dequeue(quit)
		result <- ok
	}()

	time.Sleep(20 * time.Millisecond)
	mb.Close()

	select {
	case ok := <-result:
		if ok {
			t.Fatal("expected Dequeue to report closed mailbox")
		}
	case <-time.After(time.Second):
		t.Fatal("Dequeue never returned after Close")
	}
}

func TestMailbox_EnqueueAfterCloseFails(t *testing.T) {
	mb := newMailbox()
	mb.Close()
	if mb.Enqueue(submission{}) {
		t.Fatal("expected Enqueue to fail on closed mailbox")
	}
}

func TestMailbox_Len(t *testing.T) {
	mb := newMailbox()
	if mb.Len() != 0 {
		t.Fatalf("expected 0, got %d", mb.Len())
	}
	mb.Enqueue(submission{})
	mb.Enqueue(submission{})
	if mb.Len() != 2 {
		t.Fatalf("expected 2, got %d", mb.Len())
	}
}
