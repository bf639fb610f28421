package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeRunner scripts per-attempt outcomes and records calls.
type fakeRunner struct {
	mu    sync.Mutex
	calls []string
	errs  []error
	done  chan string
	block bool
}

func newFakeRunner(errs ...error) *fakeRunner {
	return &fakeRunner{errs: errs, done: make(chan string, 16)}
}

func (f *fakeRunner) RunCase(ctx context.Context, caseID string) error {
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}

	f.mu.Lock()
	i := len(f.calls)
	f.calls = append(f.calls, caseID)
	f.mu.Unlock()

	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	if err == nil {
		f.done <- caseID
	}
	return err
}

func (f *fakeRunner) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func waitFor(t *testing.T, ch chan string, want string) {
	t.Helper()
	select {
	case got := <-ch:
		if got != want {
			t.Fatalf("completed case %q, want %q", got, want)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for case %q", want)
	}
}

func TestPoolRunsJob(t *testing.T) {
	runner := newFakeRunner()
	pool, err := NewPool(2, runner)
	if err != nil {
		t.Fatalf("NewPool error: %v", err)
	}
	defer pool.Stop()
	pool.Start()

	if err := pool.Enqueue("case-001"); err != nil {
		t.Fatalf("Enqueue error: %v", err)
	}
	waitFor(t, runner.done, "case-001")
}

func TestPoolRetriesFailedJob(t *testing.T) {
	runner := newFakeRunner(errors.New("transient completion failure"))
	pool, err := NewPool(1, runner, WithMaxAttempts(3))
	if err != nil {
		t.Fatalf("NewPool error: %v", err)
	}
	defer pool.Stop()
	pool.Start()

	if err := pool.Enqueue("case-002"); err != nil {
		t.Fatalf("Enqueue error: %v", err)
	}
	waitFor(t, runner.done, "case-002")

	if got := runner.callCount(); got != 2 {
		t.Errorf("runner called %d times, want 2", got)
	}
}

func TestPoolCancelRunningJob(t *testing.T) {
	runner := newFakeRunner()
	runner.block = true
	pool, err := NewPool(1, runner)
	if err != nil {
		t.Fatalf("NewPool error: %v", err)
	}
	defer pool.Stop()
	pool.Start()

	if err := pool.Enqueue("case-003"); err != nil {
		t.Fatalf("Enqueue error: %v", err)
	}

	// Wait until the job is running, then cancel it.
	deadline := time.After(5 * time.Second)
	for pool.Status().Running == 0 {
		select {
		case <-deadline:
			t.Fatal("job never started")
		case <-time.After(10 * time.Millisecond):
		}
	}
	if !pool.Cancel("case-003") {
		t.Fatal("Cancel found no running job")
	}

	deadline = time.After(5 * time.Second)
	for {
		pool.mu.Lock()
		_, active := pool.active["case-003"]
		pool.mu.Unlock()
		if !active {
			break
		}
		select {
		case <-deadline:
			t.Fatal("cancelled job never finished")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestPoolCancelUnknownCase(t *testing.T) {
	pool, err := NewPool(1, newFakeRunner())
	if err != nil {
		t.Fatalf("NewPool error: %v", err)
	}
	defer pool.Stop()

	if pool.Cancel("never-enqueued") {
		t.Error("Cancel reported success for an unknown case")
	}
}

func TestPoolEnqueueAfterStop(t *testing.T) {
	pool, err := NewPool(1, newFakeRunner())
	if err != nil {
		t.Fatalf("NewPool error: %v", err)
	}
	pool.Start()
	pool.Stop()

	if err := pool.Enqueue("case-004"); !errors.Is(err, ErrStopped) {
		t.Errorf("Enqueue error = %v, want ErrStopped", err)
	}
}

func TestJobQueueOrder(t *testing.T) {
	q := newJobQueue(4)
	for _, id := range []string{"a", "b", "c"} {
		if err := q.Enqueue(&Job{CaseID: id}); err != nil {
			t.Fatalf("Enqueue %s error: %v", id, err)
		}
	}

	for _, want := range []string{"a", "b", "c"} {
		job, ok := q.Dequeue()
		if !ok || job.CaseID != want {
			t.Fatalf("Dequeue = %v/%v, want %s", job, ok, want)
		}
	}
}

func TestJobQueueFull(t *testing.T) {
	q := newJobQueue(1)
	if err := q.Enqueue(&Job{CaseID: "a"}); err != nil {
		t.Fatalf("Enqueue error: %v", err)
	}
	if err := q.Enqueue(&Job{CaseID: "b"}); !errors.Is(err, ErrQueueFull) {
		t.Errorf("Enqueue error = %v, want ErrQueueFull", err)
	}
}

func TestJobQueueClosedDequeue(t *testing.T) {
	q := newJobQueue(4)
	done := make(chan bool, 1)
	go func() {
		_, ok := q.Dequeue()
		done <- ok
	}()

	q.Close()
	select {
	case ok := <-done:
		if ok {
			t.Error("Dequeue returned a job from a closed empty queue")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Dequeue never returned after Close")
	}
}
