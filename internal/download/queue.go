package download

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Queue is the ordered, unbounded FIFO of job IDs awaiting processing.
// Enqueue never blocks; Dequeue blocks its (single) consumer until an ID is
// available or the context is cancelled.
type Queue struct {
	mu   sync.Mutex
	ids  []uuid.UUID
	wake chan struct{}
}

func NewQueue() *Queue {
	return &Queue{wake: make(chan struct{}, 1)}
}

func (queue *Queue) Enqueue(id uuid.UUID) {
	queue.mu.Lock()
	queue.ids = append(queue.ids, id)
	queue.mu.Unlock()

	// Non-blocking: a single pending wakeup is enough, the consumer drains
	// the backlog before sleeping again.
	select {
	case queue.wake <- struct{}{}:
	default:
	}
}

// Dequeue removes and returns the oldest queued ID, blocking until one is
// available. Returns false only when the context is cancelled.
func (queue *Queue) Dequeue(ctx context.Context) (uuid.UUID, bool) {
	for {
		queue.mu.Lock()
		if len(queue.ids) > 0 {
			id := queue.ids[0]
			queue.ids = queue.ids[1:]
			queue.mu.Unlock()

			return id, true
		}
		queue.mu.Unlock()

		select {
		case <-ctx.Done():
			return uuid.Nil, false
		case <-queue.wake:
		}
	}
}

// Depth reports how many IDs are currently waiting.
func (queue *Queue) Depth() int {
	queue.mu.Lock()
	defer queue.mu.Unlock()

	return len(queue.ids)
}
