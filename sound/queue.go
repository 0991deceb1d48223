package sound

import "sync"

// Queue is an unbounded FIFO of commands. Any number of goroutines may Put;
// a single consumer calls Take.
type Queue struct {
	mu     sync.Mutex
	ready  *sync.Cond
	items  []Command
	closed bool
}

// NewQueue creates an empty queue
func NewQueue() *Queue {
	q := &Queue{}
	q.ready = sync.NewCond(&q.mu)
	return q
}

// Put appends a command at the tail. It reports false if the queue was
// closed and the command was discarded.
func (q *Queue) Put(cmd Command) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.items = append(q.items, cmd)
	q.ready.Signal()
	return true
}

// Take removes the head command, blocking until one is available. It
// returns false once the queue is closed.
func (q *Queue) Take() (Command, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 && !q.closed {
		q.ready.Wait()
	}
	if q.closed {
		return nil, false
	}

	cmd := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return cmd, true
}

// Close discards all pending commands and rejects further Puts. It returns
// the number of discarded commands.
func (q *Queue) Close() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return 0
	}

	q.closed = true
	dropped := len(q.items)
	q.items = nil
	q.ready.Broadcast()
	return dropped
}

// Len returns the number of pending commands
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
