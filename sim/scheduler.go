package sim

import (
	"fmt"
	"sort"
)

// SchedulingPolicy decides which process runs next and whether the running
// process must be displaced. Exactly one policy is selected per Simulator.
//
// Hooks are called by the driver after it has updated the clock:
//   - OnArrival: a newly admitted process; the policy runs it or queues it.
//   - OnDeparture: the server has just gone idle after a completion.
//   - OnTimeSliceExpiry: the running process used a full quantum (RR only).
type SchedulingPolicy interface {
	Kind() PolicyKind
	OnArrival(sim *Simulator, p *Process)
	OnDeparture(sim *Simulator)
	OnTimeSliceExpiry(sim *Simulator)
}

// FCFSPolicy serves processes in admission order, each to completion.
type FCFSPolicy struct{}

func (f *FCFSPolicy) Kind() PolicyKind { return PolicyFCFS }

func (f *FCFSPolicy) OnArrival(sim *Simulator, p *Process) {
	if !sim.Busy() {
		sim.runToCompletion(p)
		return
	}
	sim.ReadyQ.Enqueue(p)
}

func (f *FCFSPolicy) OnDeparture(sim *Simulator) {
	if next := sim.ReadyQ.Dequeue(); next != nil {
		sim.runToCompletion(next)
	}
}

func (f *FCFSPolicy) OnTimeSliceExpiry(_ *Simulator) {
	panic("FCFS: time slice expiry without a quantum")
}

// SRTFPolicy is preemptive shortest-remaining-time-first.
// The preemption check happens only on arrival; at departure the queue head
// already holds the global minimum.
type SRTFPolicy struct{}

func (s *SRTFPolicy) Kind() PolicyKind { return PolicySRTF }

func (s *SRTFPolicy) OnArrival(sim *Simulator, p *Process) {
	if !sim.Busy() {
		sim.runToCompletion(p)
		return
	}
	cur := sim.Current
	elapsed := sim.Clock - cur.LastDispatch
	if p.RemainingTime < cur.RemainingTime-elapsed {
		sim.preempt(elapsed)
		s.enqueueSorted(sim, cur)
		sim.runToCompletion(p)
		return
	}
	s.enqueueSorted(sim, p)
}

func (s *SRTFPolicy) OnDeparture(sim *Simulator) {
	if next := sim.ReadyQ.Dequeue(); next != nil {
		sim.runToCompletion(next)
	}
}

func (s *SRTFPolicy) OnTimeSliceExpiry(_ *Simulator) {
	panic("SRTF: time slice expiry without a quantum")
}

// enqueueSorted keeps the ready queue ascending by remaining time.
// Ties keep enqueue order.
func (s *SRTFPolicy) enqueueSorted(sim *Simulator, p *Process) {
	sim.ReadyQ.Enqueue(p)
	sim.ReadyQ.Reorder(func(procs []*Process) {
		sort.SliceStable(procs, func(i, j int) bool {
			return procs[i].RemainingTime < procs[j].RemainingTime
		})
	})
}

// HRRNPolicy is non-preemptive highest-response-ratio-next.
// Ratios are a snapshot taken at each insertion's sort pass, evaluated at
// the insertion clock; they are not refreshed while processes wait.
type HRRNPolicy struct{}

func (h *HRRNPolicy) Kind() PolicyKind { return PolicyHRRN }

func (h *HRRNPolicy) OnArrival(sim *Simulator, p *Process) {
	if !sim.Busy() {
		sim.runToCompletion(p)
		return
	}
	sim.ReadyQ.Enqueue(p)
	clock := sim.Clock
	sim.ReadyQ.Reorder(func(procs []*Process) {
		sort.SliceStable(procs, func(i, j int) bool {
			return procs[i].ResponseRatio(clock) > procs[j].ResponseRatio(clock)
		})
	})
}

func (h *HRRNPolicy) OnDeparture(sim *Simulator) {
	if next := sim.ReadyQ.Dequeue(); next != nil {
		sim.runToCompletion(next)
	}
}

func (h *HRRNPolicy) OnTimeSliceExpiry(_ *Simulator) {
	panic("HRRN: time slice expiry without a quantum")
}

// RRPolicy is round-robin with a fixed quantum. The ready queue is strictly FIFO.
type RRPolicy struct {
	Quantum float64
}

func (r *RRPolicy) Kind() PolicyKind { return PolicyRR }

func (r *RRPolicy) OnArrival(sim *Simulator, p *Process) {
	if !sim.Busy() {
		sim.runTimeSlice(p, r.Quantum)
		return
	}
	sim.ReadyQ.Enqueue(p)
}

func (r *RRPolicy) OnDeparture(sim *Simulator) {
	if next := sim.ReadyQ.Dequeue(); next != nil {
		sim.runTimeSlice(next, r.Quantum)
	}
}

// OnTimeSliceExpiry charges the quantum, rotates the running process to the
// back of the queue and slices the new head.
func (r *RRPolicy) OnTimeSliceExpiry(sim *Simulator) {
	cur := sim.Current
	if cur == nil {
		panic("RR: time slice expiry with an idle server")
	}
	sim.sliceOut(r.Quantum)
	sim.ReadyQ.Enqueue(cur)
	sim.runTimeSlice(sim.ReadyQ.Dequeue(), r.Quantum)
}

// NewPolicy creates the SchedulingPolicy for kind.
// Panics on unrecognized kinds; SimConfig.Validate rejects them first.
func NewPolicy(kind PolicyKind, quantum float64) SchedulingPolicy {
	switch kind {
	case PolicyFCFS:
		return &FCFSPolicy{}
	case PolicySRTF:
		return &SRTFPolicy{}
	case PolicyHRRN:
		return &HRRNPolicy{}
	case PolicyRR:
		return &RRPolicy{Quantum: quantum}
	default:
		panic(fmt.Sprintf("unhandled policy kind %d", int(kind)))
	}
}
