package downloader

import (
	"errors"

	"github.com/gcottom/playlist-dl/internal/model"
)

var ErrQueueFull = errors.New("download queue is full")

// JobQueue is a bounded multi-producer multi-consumer queue. Neither Put nor
// TryGet ever blocks.
type JobQueue struct {
	jobs chan model.ResolvedJob
}

func NewJobQueue(capacity int) *JobQueue {
	if capacity < 1 {
		capacity = 1
	}
	return &JobQueue{jobs: make(chan model.ResolvedJob, capacity)}
}

func (q *JobQueue) Put(job model.ResolvedJob) error {
	select {
	case q.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// TryGet dequeues a job, or reports false when the queue is empty.
func (q *JobQueue) TryGet() (model.ResolvedJob, bool) {
	select {
	case job := <-q.jobs:
		return job, true
	default:
		return model.ResolvedJob{}, false
	}
}

func (q *JobQueue) Len() int {
	return len(q.jobs)
}
