package jobs

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/callinsights/diarize/cmd/server/internal/synth"
)

// TestStoreLifecycle verifies normal progression to completed state.
func TestStoreLifecycle(t *testing.T) {
	s := NewMemoryStore()

	if err := s.Create("job-1", "abc123"); err != nil {
		t.Fatalf("create: %v", err)
	}

	job, err := s.Get("job-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if job.Status != StatusQueued {
		t.Fatalf("status = %s, want queued", job.Status)
	}
	if job.Progress != 0.0 {
		t.Fatalf("progress = %v, want 0", job.Progress)
	}
	if job.CreatedAt.IsZero() {
		t.Fatal("created_at should be set")
	}

	if err := s.Begin("job-1"); err != nil {
		t.Fatalf("begin: %v", err)
	}

	for _, p := range []float64{0.2, 0.4, 0.6, 0.8} {
		if err := s.Advance("job-1", p); err != nil {
			t.Fatalf("advance to %v: %v", p, err)
		}
	}

	s.Complete("job-1", &synth.Result{TotalSpeakers: 2})

	job, err = s.Get("job-1")
	if err != nil {
		t.Fatalf("get after complete: %v", err)
	}
	if job.Status != StatusCompleted {
		t.Fatalf("status = %s, want completed", job.Status)
	}
	if job.Progress != 1.0 {
		t.Fatalf("progress = %v, want 1.0", job.Progress)
	}
	if job.Result == nil || job.Result.TotalSpeakers != 2 {
		t.Fatalf("result not stored: %+v", job.Result)
	}
}

func TestStoreDuplicateCreate(t *testing.T) {
	s := NewMemoryStore()
	if err := s.Create("job-1", ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.Create("job-1", ""); !errors.Is(err, ErrDuplicateJob) {
		t.Fatalf("second create error = %v, want ErrDuplicateJob", err)
	}
}

func TestStoreNotFound(t *testing.T) {
	s := NewMemoryStore()

	if _, err := s.Get("missing"); !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("get error = %v, want ErrJobNotFound", err)
	}
	if err := s.Delete("missing"); !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("delete error = %v, want ErrJobNotFound", err)
	}
	if err := s.Begin("missing"); !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("begin error = %v, want ErrJobNotFound", err)
	}
}

// TestStoreDeleteThenGetNotFound covers the delete-then-query property.
func TestStoreDeleteThenGetNotFound(t *testing.T) {
	s := NewMemoryStore()
	if err := s.Create("job-1", ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.Delete("job-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get("job-1"); !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("get after delete = %v, want ErrJobNotFound", err)
	}
}

func TestStoreAdvanceRules(t *testing.T) {
	s := NewMemoryStore()
	if err := s.Create("job-1", ""); err != nil {
		t.Fatalf("create: %v", err)
	}

	// Advancing a queued job is a programming error.
	if err := s.Advance("job-1", 0.2); err == nil {
		t.Fatal("advance on queued job should fail")
	}

	if err := s.Begin("job-1"); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := s.Advance("job-1", 0.4); err != nil {
		t.Fatalf("advance: %v", err)
	}

	// Progress must be monotonically non-decreasing.
	if err := s.Advance("job-1", 0.2); err == nil {
		t.Fatal("decreasing progress should fail")
	}
	if err := s.Advance("job-1", 0.4); err != nil {
		t.Fatalf("equal progress should be allowed: %v", err)
	}
}

func TestStoreFailIdempotent(t *testing.T) {
	s := NewMemoryStore()
	if err := s.Create("job-1", ""); err != nil {
		t.Fatalf("create: %v", err)
	}

	// Failing a queued job is allowed (e.g. upload save failure).
	s.Fail("job-1", "disk full")
	s.Fail("job-1", "second failure should be ignored")

	job, err := s.Get("job-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if job.Status != StatusFailed {
		t.Fatalf("status = %s, want failed", job.Status)
	}
	if job.Error != "disk full" {
		t.Fatalf("error = %q, want first failure message", job.Error)
	}
}

func TestStoreFailDoesNotOverrideCompleted(t *testing.T) {
	s := NewMemoryStore()
	if err := s.Create("job-1", ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.Begin("job-1"); err != nil {
		t.Fatalf("begin: %v", err)
	}
	s.Complete("job-1", &synth.Result{})
	s.Fail("job-1", "too late")

	job, _ := s.Get("job-1")
	if job.Status != StatusCompleted {
		t.Fatalf("status = %s, want completed", job.Status)
	}
	if job.Error != "" {
		t.Fatalf("error = %q, want empty", job.Error)
	}
}

// TestStoreLateWritesAfterDelete verifies that a pipeline finishing after
// the client deleted the job drops its writes without error.
func TestStoreLateWritesAfterDelete(t *testing.T) {
	s := NewMemoryStore()
	if err := s.Create("job-1", ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.Begin("job-1"); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := s.Delete("job-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	// Must not panic or resurrect the record.
	s.Complete("job-1", &synth.Result{})
	s.Fail("job-1", "boom")

	if _, err := s.Get("job-1"); !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("get = %v, want ErrJobNotFound", err)
	}
}

func TestStoreActiveCount(t *testing.T) {
	s := NewMemoryStore()

	for i := 0; i < 3; i++ {
		if err := s.Create(fmt.Sprintf("job-%d", i), ""); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	if err := s.Begin("job-0"); err != nil {
		t.Fatalf("begin: %v", err)
	}
	s.Complete("job-0", &synth.Result{})
	s.Fail("job-1", "boom")

	if got := s.ActiveCount(); got != 1 {
		t.Fatalf("active count = %d, want 1", got)
	}
}

// TestStoreConcurrentJobs hammers independent jobs from parallel
// goroutines; run with -race to catch registry corruption.
func TestStoreConcurrentJobs(t *testing.T) {
	s := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("job-%d", n)
			if err := s.Create(id, ""); err != nil {
				t.Errorf("create %s: %v", id, err)
				return
			}
			if err := s.Begin(id); err != nil {
				t.Errorf("begin %s: %v", id, err)
				return
			}
			for _, p := range []float64{0.2, 0.4, 0.6, 0.8} {
				if err := s.Advance(id, p); err != nil {
					t.Errorf("advance %s: %v", id, err)
					return
				}
				if _, err := s.Get(id); err != nil {
					t.Errorf("get %s: %v", id, err)
					return
				}
			}
			if n%2 == 0 {
				s.Complete(id, &synth.Result{})
			} else {
				s.Fail(id, "induced failure")
			}
		}(i)
	}
	wg.Wait()

	if got := s.ActiveCount(); got != 0 {
		t.Fatalf("active count = %d, want 0", got)
	}

	for i := 0; i < 32; i++ {
		job, err := s.Get(fmt.Sprintf("job-%d", i))
		if err != nil {
			t.Fatalf("get job-%d: %v", i, err)
		}
		if i%2 == 0 && job.Status != StatusCompleted {
			t.Fatalf("job-%d status = %s, want completed", i, job.Status)
		}
		if i%2 == 1 && job.Status != StatusFailed {
			t.Fatalf("job-%d status = %s, want failed", i, job.Status)
		}
	}
}
