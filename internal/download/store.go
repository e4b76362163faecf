package download

import (
	"sync"

	"github.com/google/uuid"
)

// Store is the in-memory mapping of job ID to job record. It is shared
// between the submission path, the worker and the status/retrieval readers,
// so every access goes through the store's lock. Readers receive snapshot
// copies; the only writers are Put (submission) and Update (worker).
type Store struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]*Job
}

func NewStore() *Store {
	return &Store{jobs: make(map[uuid.UUID]*Job)}
}

func (store *Store) Put(job *Job) {
	store.mu.Lock()
	defer store.mu.Unlock()

	store.jobs[job.ID] = job
}

// Get returns a snapshot copy of the job with the given ID.
func (store *Store) Get(id uuid.UUID) (Job, bool) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	job, ok := store.jobs[id]
	if !ok {
		return Job{}, false
	}

	return *job, true
}

// Update applies mutate to the stored job under the store lock, establishing
// the happens-before edge between the worker's writes and subsequent readers.
func (store *Store) Update(id uuid.UUID, mutate func(*Job)) bool {
	store.mu.Lock()
	defer store.mu.Unlock()

	job, ok := store.jobs[id]
	if !ok {
		return false
	}

	mutate(job)
	return true
}

func (store *Store) Delete(id uuid.UUID) {
	store.mu.Lock()
	defer store.mu.Unlock()

	delete(store.jobs, id)
}

// ClaimCompleted atomically removes and returns the job with the given ID,
// but only when it has reached Completed. This is the exactly-once retrieval
// primitive: of any number of concurrent claims for one completed job,
// exactly one receives the job and the rest observe absence. Claims against
// pending, processing or failed jobs leave the record untouched.
func (store *Store) ClaimCompleted(id uuid.UUID) (Job, bool) {
	store.mu.Lock()
	defer store.mu.Unlock()

	job, ok := store.jobs[id]
	if !ok || job.Status != Completed {
		return Job{}, false
	}

	delete(store.jobs, id)
	return *job, true
}

func (store *Store) Len() int {
	store.mu.RLock()
	defer store.mu.RUnlock()

	return len(store.jobs)
}
