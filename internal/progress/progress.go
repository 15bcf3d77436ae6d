// Package progress tracks how many jobs of a download batch have been
// processed.
package progress

import "sync"

type Snapshot struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

// Percent is the completed share in whole percent, 0 for an empty batch.
func (s Snapshot) Percent() int {
	if s.Total <= 0 {
		return 0
	}
	return s.Completed * 100 / s.Total
}

func (s Snapshot) Done() bool {
	return s.Total > 0 && s.Completed >= s.Total
}

// Aggregator is safe for concurrent use. Completed never exceeds Total.
type Aggregator struct {
	mu        sync.Mutex
	total     int
	completed int
}

// SetTotal starts a new batch of n jobs and resets the completed count.
func (a *Aggregator) SetTotal(n int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if n < 0 {
		n = 0
	}
	a.total = n
	a.completed = 0
}

func (a *Aggregator) Increment() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.completed < a.total {
		a.completed++
	}
	return Snapshot{Completed: a.completed, Total: a.total}
}

func (a *Aggregator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Snapshot{Completed: a.completed, Total: a.total}
}
