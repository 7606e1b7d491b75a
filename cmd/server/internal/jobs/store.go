package jobs

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/callinsights/diarize/cmd/server/internal/synth"
)

// ErrJobNotFound is returned when a job id is absent from the registry.
var ErrJobNotFound = errors.New("job not found")

// ErrDuplicateJob is returned when creating a job id that already exists.
var ErrDuplicateJob = errors.New("job id already exists")

// Store is the registry the submission path, the background pipeline, and
// the query paths share. Implementations must keep operations on a given
// job linearizable without serializing unrelated jobs behind one lock.
//
// Complete and Fail tolerate a missing job: a client may delete a record
// while its pipeline is still running, and the late result write is then
// dropped silently.
type Store interface {
	// Create registers a new job with status queued and zero progress.
	Create(id string, checksum string) error

	// Begin moves a queued job to processing.
	Begin(id string) error

	// Advance raises the progress of a processing job. Lowering progress or
	// advancing a non-processing job is a programming error and is rejected.
	Advance(id string, fraction float64) error

	// Complete stores the result and moves the job to completed with
	// progress 1.0. A missing job is a no-op.
	Complete(id string, result *synth.Result)

	// Fail moves a queued or processing job to failed with the given
	// message. Idempotent; a missing or already-failed job is a no-op.
	Fail(id string, message string)

	// Get returns a snapshot of the job.
	Get(id string) (Job, error)

	// Delete removes the job in any state. Deleting a running job does not
	// interrupt its pipeline.
	Delete(id string) error

	// ActiveCount reports how many jobs are queued or processing.
	ActiveCount() int
}

// record pairs a job with its own mutex so state transitions on one job
// never contend with transitions on another. The registry lock is only
// held for map lookups, inserts, and deletes.
type record struct {
	mu  sync.Mutex
	job Job
}

// MemoryStore is the in-memory Store used in production. Durability is a
// deliberate non-goal; the Store interface is the seam for swapping in a
// persistent registry.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*record
}

// NewMemoryStore returns an empty registry.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*record)}
}

func (s *MemoryStore) Create(id string, checksum string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateJob, id)
	}
	s.records[id] = &record{job: Job{
		ID:        id,
		Status:    StatusQueued,
		Progress:  0.0,
		Checksum:  checksum,
		CreatedAt: time.Now(),
	}}
	return nil
}

func (s *MemoryStore) lookup(id string) (*record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	return rec, ok
}

func (s *MemoryStore) Begin(id string) error {
	rec, ok := s.lookup(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if rec.job.Status != StatusQueued {
		return fmt.Errorf("cannot begin job %s in state %s", id, rec.job.Status)
	}
	rec.job.Status = StatusProcessing
	return nil
}

func (s *MemoryStore) Advance(id string, fraction float64) error {
	rec, ok := s.lookup(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if rec.job.Status != StatusProcessing {
		return fmt.Errorf("cannot advance job %s in state %s", id, rec.job.Status)
	}
	if fraction < rec.job.Progress {
		return fmt.Errorf("progress must not decrease: %.2f -> %.2f", rec.job.Progress, fraction)
	}
	rec.job.Progress = fraction
	return nil
}

func (s *MemoryStore) Complete(id string, result *synth.Result) {
	rec, ok := s.lookup(id)
	if !ok {
		// Job was deleted while the pipeline ran; drop the result.
		return
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if rec.job.Status != StatusProcessing {
		return
	}
	rec.job.Status = StatusCompleted
	rec.job.Progress = 1.0
	rec.job.Result = result
}

func (s *MemoryStore) Fail(id string, message string) {
	rec, ok := s.lookup(id)
	if !ok {
		return
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if rec.job.Status.IsTerminal() {
		return
	}
	rec.job.Status = StatusFailed
	rec.job.Error = message
}

func (s *MemoryStore) Get(id string) (Job, error) {
	rec, ok := s.lookup(id)
	if !ok {
		return Job{}, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.job, nil
}

func (s *MemoryStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	delete(s.records, id)
	return nil
}

func (s *MemoryStore) ActiveCount() int {
	s.mu.RLock()
	recs := make([]*record, 0, len(s.records))
	for _, rec := range s.records {
		recs = append(recs, rec)
	}
	s.mu.RUnlock()

	active := 0
	for _, rec := range recs {
		rec.mu.Lock()
		if !rec.job.Status.IsTerminal() {
			active++
		}
		rec.mu.Unlock()
	}
	return active
}
