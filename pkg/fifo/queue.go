// Package fifo is the point queue shared by geodesic reconstruction and
// watershed flooding. Points are linear raster indexes.
package fifo

import "github.com/eapache/queue"

// Queue is a duplicate-tolerant first-in first-out queue of pixel indexes.
// A Queue is meant to live for a single engine call.
type Queue struct {
	q *queue.Queue
}

// New returns an empty queue.
func New() *Queue {
	return &Queue{q: queue.New()}
}

// Push appends i to the back of the queue.
func (q *Queue) Push(i int) {
	q.q.Add(i)
}

// Pop removes and returns the index at the front of the queue. It panics
// when the queue is empty.
func (q *Queue) Pop() int {
	return q.q.Remove().(int)
}

// Len returns the number of queued indexes.
func (q *Queue) Len() int {
	return q.q.Length()
}

// Empty reports whether the queue holds no indexes.
func (q *Queue) Empty() bool {
	return q.q.Length() == 0
}
