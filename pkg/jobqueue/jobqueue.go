// Package jobqueue hands work from arbitrary goroutines to the audio render
// path. The renderer drains the queue exactly once per callback, so queued
// jobs never run concurrently with rendering and never reenter it.
package jobqueue

import "sync"

// Queue is a mutex-protected list of pending jobs. The zero value is ready
// to use.
type Queue struct {
	mu   sync.Mutex
	jobs []func()
}

// Push appends a job. Safe to call from any goroutine.
func (q *Queue) Push(job func()) {
	q.mu.Lock()
	q.jobs = append(q.jobs, job)
	q.mu.Unlock()
}

// Len returns the number of pending jobs.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

// ExecuteAll runs every pending job in push order. The lock is held only
// while the pending slice is taken, never while jobs run, so a job may Push
// follow-up work without deadlocking; such work waits for the next drain.
func (q *Queue) ExecuteAll() {
	q.mu.Lock()
	jobs := q.jobs
	q.jobs = nil
	q.mu.Unlock()

	for _, job := range jobs {
		job()
	}
}
