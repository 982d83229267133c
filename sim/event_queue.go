package sim

import (
	"container/heap"
	"fmt"
)

// EventQueue implements a priority queue with deterministic ordering.
// Ordering: timestamp → kind priority → scheduling sequence number.
// See canonical Golang example here: https://pkg.go.dev/container/heap#example-package-IntHeap
type EventQueue struct {
	events  []Event
	nextSeq uint64
}

// NewEventQueue creates an empty event queue.
func NewEventQueue() *EventQueue {
	q := &EventQueue{events: make([]Event, 0)}
	heap.Init(q)
	return q
}

// Len implements heap.Interface
func (q *EventQueue) Len() int { return len(q.events) }

// Less implements heap.Interface with deterministic ordering
func (q *EventQueue) Less(i, j int) bool {
	ei, ej := q.events[i], q.events[j]

	if ei.Timestamp() != ej.Timestamp() {
		return ei.Timestamp() < ej.Timestamp()
	}

	priI := EventKindPriority[ei.Kind()]
	priJ := EventKindPriority[ej.Kind()]
	if priI != priJ {
		return priI < priJ
	}

	return ei.Seq() < ej.Seq()
}

// Swap implements heap.Interface
func (q *EventQueue) Swap(i, j int) { q.events[i], q.events[j] = q.events[j], q.events[i] }

// Push implements heap.Interface
func (q *EventQueue) Push(x any) {
	q.events = append(q.events, x.(Event))
}

// Pop implements heap.Interface
func (q *EventQueue) Pop() any {
	old := q.events
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	q.events = old[0 : n-1]
	return item
}

// Schedule stamps the event with the next sequence number and adds it to the queue.
func (q *EventQueue) Schedule(e Event) {
	if e == nil {
		panic("Schedule: event must not be nil")
	}
	q.nextSeq++
	e.setSeq(q.nextSeq)
	heap.Push(q, e)
}

// PopNext removes and returns the earliest event, or nil when empty.
func (q *EventQueue) PopNext() Event {
	if q.Len() == 0 {
		return nil
	}
	return heap.Pop(q).(Event)
}

// Peek returns the earliest event without removing it.
func (q *EventQueue) Peek() Event {
	if q.Len() == 0 {
		return nil
	}
	return q.events[0]
}

// CancelDeparture invalidates the pending Departure of the given process.
// Returns false when no such event is pending.
func (q *EventQueue) CancelDeparture(processID int64) bool {
	for i, e := range q.events {
		if d, ok := e.(*DepartureEvent); ok && d.ProcessID == processID {
			heap.Remove(q, i)
			return true
		}
	}
	return false
}

// PendingDepartures counts queued Departure events targeting processID.
func (q *EventQueue) PendingDepartures(processID int64) int {
	n := 0
	for _, e := range q.events {
		if d, ok := e.(*DepartureEvent); ok && d.ProcessID == processID {
			n++
		}
	}
	return n
}

// HasPendingExcept reports whether any queued event has a kind other than skip.
func (q *EventQueue) HasPendingExcept(skip EventKind) bool {
	for _, e := range q.events {
		if e.Kind() != skip {
			return true
		}
	}
	return false
}

func (q *EventQueue) String() string {
	return fmt.Sprintf("EventQueue{len=%d}", q.Len())
}
