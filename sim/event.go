package sim

import "github.com/sirupsen/logrus"

// EventKind tags the four event types the driver understands.
type EventKind int

const (
	EventArrival EventKind = iota
	EventDeparture
	EventTimeSlice
	EventStatus
)

func (k EventKind) String() string {
	switch k {
	case EventArrival:
		return "Arrival"
	case EventDeparture:
		return "Departure"
	case EventTimeSlice:
		return "TimeSliceExpiry"
	case EventStatus:
		return "StatusSample"
	default:
		return "Unknown"
	}
}

// EventKindPriority orders events that share a timestamp (lower runs first).
// Completions free the server before new work is admitted at the same instant,
// and status samples observe the state after every other change at that instant.
var EventKindPriority = map[EventKind]int{
	EventDeparture: 0,
	EventTimeSlice: 1,
	EventArrival:   2,
	EventStatus:    3,
}

// Event defines the interface for all simulation events.
// Each event has a Timestamp (simulated time) and an Execute method
// that advances simulation state when invoked.
type Event interface {
	Timestamp() float64
	Kind() EventKind
	// Seq is the scheduling sequence number stamped by EventQueue.Schedule.
	Seq() uint64
	setSeq(uint64)
	Execute(*Simulator)
}

type eventBase struct {
	time float64
	seq  uint64
}

func (e *eventBase) Timestamp() float64 { return e.time }
func (e *eventBase) Seq() uint64        { return e.seq }
func (e *eventBase) setSeq(s uint64)    { e.seq = s }

// ArrivalEvent marks a process becoming known to the scheduler.
// Generated arrivals chain the next arrival and draw their service demand when
// consumed; injected arrivals carry a fixed demand and do not chain.
type ArrivalEvent struct {
	eventBase
	ProcessID   int64
	ServiceTime float64 // used only when Injected
	Injected    bool
}

func (e *ArrivalEvent) Kind() EventKind { return EventArrival }

// Execute keeps exactly one future generated arrival pending, then admits the process.
func (e *ArrivalEvent) Execute(sim *Simulator) {
	logrus.Debugf("<< Arrival: P%d at %.6f", e.ProcessID, e.time)
	var service float64
	if e.Injected {
		service = e.ServiceTime
	} else {
		sim.scheduleNextArrival()
		service = sim.gen.NextServiceTime()
	}
	sim.admit(NewProcess(e.ProcessID, e.time, service))
}

// DepartureEvent marks the completion of a process's service.
type DepartureEvent struct {
	eventBase
	ProcessID int64
}

func (e *DepartureEvent) Kind() EventKind { return EventDeparture }

func (e *DepartureEvent) Execute(sim *Simulator) {
	logrus.Debugf("<< Departure: P%d at %.6f", e.ProcessID, e.time)
	sim.depart(e.ProcessID)
}

// TimeSliceEvent fires when the running RR process has used a full quantum.
type TimeSliceEvent struct {
	eventBase
}

func (e *TimeSliceEvent) Kind() EventKind { return EventTimeSlice }

func (e *TimeSliceEvent) Execute(sim *Simulator) {
	logrus.Tracef("<< TimeSliceExpiry at %.6f", e.time)
	sim.expireSlice()
}

// StatusEvent is a periodic observation used purely for metrics.
type StatusEvent struct {
	eventBase
}

func (e *StatusEvent) Kind() EventKind { return EventStatus }

func (e *StatusEvent) Execute(sim *Simulator) {
	logrus.Tracef("<< StatusSample at %.6f (ready=%d)", e.time, sim.ReadyQ.Len())
	sim.scheduleNextStatus()
	sim.Metrics.SampleQueue(sim.ReadyQ.Len())
}
