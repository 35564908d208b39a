package topicgen

import "sync"

// serialQueue runs closures one at a time. A run's novelty filter and
// progress counters are only touched from inside do.
type serialQueue struct {
	mu sync.Mutex
}

func (q *serialQueue) do(fn func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	fn()
}
