// Implements the ReadyQueue, which holds processes waiting for the server.
// Processes are enqueued on admission and on preemption.

package sim

import (
	"fmt"
	"strings"
)

// ReadyQueue is the policy-ordered holding area for processes waiting for the server.
// It is FIFO by default; SRTF and HRRN reorder it through Reorder.
type ReadyQueue struct {
	queue []*Process
}

// Enqueue adds a process to the back of the ready queue.
func (rq *ReadyQueue) Enqueue(p *Process) {
	if p == nil {
		panic("Enqueue: process must not be nil")
	}
	p.State = StateReady
	rq.queue = append(rq.queue, p)
}

func (rq *ReadyQueue) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, val := range rq.queue {
		sb.WriteString(fmt.Sprint(val))
		if i < len(rq.queue)-1 {
			sb.WriteString(" ")
		}
	}
	sb.WriteString("]")
	return sb.String()
}

// Len returns the number of waiting processes.
func (rq *ReadyQueue) Len() int {
	return len(rq.queue)
}

// Peek returns the process at the front of the queue without removing it.
// Returns nil if the queue is empty.
func (rq *ReadyQueue) Peek() *Process {
	if len(rq.queue) == 0 {
		return nil
	}
	return rq.queue[0]
}

// Items returns the queue contents for iteration.
// The returned slice is the queue's internal storage; callers MUST NOT
// append to or reslice it. For reordering, use Reorder() instead.
func (rq *ReadyQueue) Items() []*Process {
	return rq.queue
}

// Reorder applies fn to the queue contents, allowing in-place reordering.
// fn MUST NOT change the slice length (no append/delete).
func (rq *ReadyQueue) Reorder(fn func([]*Process)) {
	if fn == nil {
		panic("Reorder: fn must not be nil")
	}
	n := len(rq.queue)
	fn(rq.queue)
	if len(rq.queue) != n {
		panic(fmt.Sprintf("Reorder: fn changed queue length from %d to %d", n, len(rq.queue)))
	}
}

// Dequeue removes the process at the front of the queue.
// Returns nil if the queue is empty.
func (rq *ReadyQueue) Dequeue() *Process {
	if len(rq.queue) == 0 {
		return nil
	}
	head := rq.queue[0]
	rq.queue[0] = nil
	rq.queue = rq.queue[1:]
	return head
}
