// sim/simulator.go
package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/schedsim/schedsim/sim/trace"
)

// Simulator is the core object that holds simulation time, system state, and the event loop.
// A Simulator exclusively owns its queues and processes; independent Simulators
// share nothing and may run on different goroutines.
type Simulator struct {
	Config SimConfig
	Clock  float64
	// EventQueue has all pending Arrival, Departure, TimeSliceExpiry and StatusSample events
	EventQueue *EventQueue
	// ReadyQ holds admitted processes waiting for the server, in policy order
	ReadyQ *ReadyQueue
	// Current occupies the server; nil when idle
	Current   *Process
	Completed []*Process
	Metrics   *Metrics
	Policy    SchedulingPolicy
	// Trace records service bursts when Config.TraceBursts is set; nil otherwise
	Trace *trace.SimulationTrace
	// Stalled is set when MaxIdleSamples consecutive samples found no work
	Stalled bool

	gen          *DemandGenerator
	lastID       int64
	statusActive bool
	idleSamples  int
}

// NewSimulator validates cfg and builds an idle simulator at clock 0.
// Call SeedWorkload and/or InjectArrival before Run.
func NewSimulator(cfg SimConfig) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	s := &Simulator{
		Config:     cfg,
		Clock:      0,
		EventQueue: NewEventQueue(),
		ReadyQ:     &ReadyQueue{},
		Completed:  make([]*Process, 0),
		Metrics:    NewMetrics(),
		Policy:     NewPolicy(cfg.Policy, cfg.Quantum),
		gen:        NewDemandGenerator(NewSimulationKey(cfg.Seed), cfg.ArrivalRate, cfg.MeanServiceTime),
	}
	if cfg.TraceBursts {
		s.Trace = trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevelBursts})
	}
	return s, nil
}

// Busy reports whether a process occupies the server.
func (sim *Simulator) Busy() bool {
	return sim.Current != nil
}

// Schedule pushes an event into the simulator's EventQueue.
func (sim *Simulator) Schedule(ev Event) {
	sim.EventQueue.Schedule(ev)
}

// SeedWorkload starts the generated Poisson arrival chain and the status sampler.
func (sim *Simulator) SeedWorkload() {
	sim.scheduleNextArrival()
	sim.startSampling()
}

// InjectArrival schedules an arrival with a fixed service demand. Injected
// arrivals do not chain further arrivals. Returns the assigned process ID.
func (sim *Simulator) InjectArrival(at, serviceTime float64) (int64, error) {
	if at < sim.Clock {
		return 0, fmt.Errorf("injected arrival at %v precedes clock %v", at, sim.Clock)
	}
	if err := requireFinitePositive("injected service time", serviceTime); err != nil {
		return 0, err
	}
	sim.lastID++
	sim.Schedule(&ArrivalEvent{
		eventBase:   eventBase{time: at},
		ProcessID:   sim.lastID,
		ServiceTime: serviceTime,
		Injected:    true,
	})
	sim.startSampling()
	return sim.lastID, nil
}

// Step pops and executes the next event. It returns false, without touching
// the clock, when the run is over: queue drained, completion cap reached, run
// stalled, or the next event lies beyond the horizon.
func (sim *Simulator) Step() bool {
	if sim.done() || sim.Stalled {
		return false
	}
	next := sim.EventQueue.Peek()
	if next == nil || next.Timestamp() > sim.Config.Horizon {
		return false
	}
	ev := sim.EventQueue.PopNext()
	if ev.Timestamp() < sim.Clock {
		panic(fmt.Sprintf("event %v at %v precedes clock %v", ev.Kind(), ev.Timestamp(), sim.Clock))
	}
	sim.Clock = ev.Timestamp()
	logrus.Tracef("[t=%.6f] Executing %v", sim.Clock, ev.Kind())
	ev.Execute(sim)
	return true
}

// Run drives the event loop to termination and returns the finalized report.
func (sim *Simulator) Run() *Report {
	logrus.Infof("Starting %v simulation: lambda=%v, mean service=%v, quantum=%v, key=%d, cap=%d",
		sim.Config.Policy, sim.Config.ArrivalRate, sim.Config.MeanServiceTime,
		sim.Config.Quantum, sim.gen.Key(), sim.Config.MaxProcesses)
	for sim.Step() {
	}
	report := sim.Metrics.Finalize(sim.Clock)
	report.Stalled = sim.Stalled
	logrus.Infof("[t=%.6f] Simulation ended: %d completed, %d admitted", sim.Clock, report.Completed, report.Admitted)
	return report
}

func (sim *Simulator) done() bool {
	return len(sim.Completed) >= sim.Config.MaxProcesses
}

// scheduleNextArrival keeps exactly one generated arrival pending.
func (sim *Simulator) scheduleNextArrival() {
	if sim.done() {
		return
	}
	at := sim.Clock + sim.gen.NextArrivalDelay()
	sim.lastID++
	sim.Schedule(&ArrivalEvent{eventBase: eventBase{time: at}, ProcessID: sim.lastID})
}

func (sim *Simulator) startSampling() {
	if sim.statusActive {
		return
	}
	sim.statusActive = true
	sim.Schedule(&StatusEvent{eventBase: eventBase{time: sim.Clock + sim.Config.StatusInterval}})
}

// scheduleNextStatus continues the sampling chain while other work is pending,
// so runs fed only by injected arrivals drain instead of sampling forever.
// A run whose system stays empty for MaxIdleSamples consecutive samples is
// stalled: the arrival rate is too small to produce work in bounded time.
func (sim *Simulator) scheduleNextStatus() {
	if sim.Busy() || sim.ReadyQ.Peek() != nil {
		sim.idleSamples = 0
	} else {
		sim.idleSamples++
	}
	if sim.idleSamples >= sim.Config.MaxIdleSamples {
		logrus.Warnf("[t=%.6f] System empty for %d status samples; stopping stalled run", sim.Clock, sim.idleSamples)
		sim.Stalled = true
		sim.statusActive = false
		return
	}
	if sim.done() || !sim.EventQueue.HasPendingExcept(EventStatus) {
		sim.statusActive = false
		return
	}
	sim.Schedule(&StatusEvent{eventBase: eventBase{time: sim.Clock + sim.Config.StatusInterval}})
}

// admit hands a newly arrived process to the active policy.
func (sim *Simulator) admit(p *Process) {
	sim.Metrics.Admitted++
	sim.idleSamples = 0
	sim.Policy.OnArrival(sim, p)
}

// depart finalizes the running process and lets the policy pick the next one.
func (sim *Simulator) depart(processID int64) {
	p := sim.Current
	if p == nil || p.ID != processID {
		panic(fmt.Sprintf("departure for P%d but server holds %v", processID, p))
	}
	sim.endBurst(trace.OutcomeCompleted)
	p.RemainingTime = 0
	p.CompletionTime = sim.Clock
	p.State = StateCompleted
	sim.Current = nil
	sim.Completed = append(sim.Completed, p)
	sim.Metrics.RecordCompletion(p)

	if sim.done() {
		return
	}
	sim.Policy.OnDeparture(sim)
}

func (sim *Simulator) expireSlice() {
	sim.Policy.OnTimeSliceExpiry(sim)
}

// runToCompletion dispatches p and schedules its single Departure.
func (sim *Simulator) runToCompletion(p *Process) {
	sim.dispatch(p)
	sim.Schedule(&DepartureEvent{eventBase: eventBase{time: sim.Clock + p.RemainingTime}, ProcessID: p.ID})
}

// runTimeSlice runs p to completion if it fits in one quantum, otherwise arms
// a TimeSliceExpiry one quantum ahead. The remaining demand is charged only
// when that expiry fires.
func (sim *Simulator) runTimeSlice(p *Process, quantum float64) {
	if p.RemainingTime <= quantum {
		sim.runToCompletion(p)
		return
	}
	sim.dispatch(p)
	if sim.done() {
		return
	}
	sim.Schedule(&TimeSliceEvent{eventBase: eventBase{time: sim.Clock + quantum}})
}

func (sim *Simulator) dispatch(p *Process) {
	if p == nil {
		panic("dispatch: process must not be nil")
	}
	if sim.Current != nil {
		panic(fmt.Sprintf("dispatch of %v while server holds %v", p, sim.Current))
	}
	p.State = StateRunning
	p.LastDispatch = sim.Clock
	sim.Current = p
}

// preempt displaces the running process after it has been served for elapsed
// time, invalidating its pending Departure. The caller re-queues it.
func (sim *Simulator) preempt(elapsed float64) {
	cur := sim.Current
	if !sim.EventQueue.CancelDeparture(cur.ID) {
		panic(fmt.Sprintf("preempt: no pending departure for %v", cur))
	}
	sim.endBurst(trace.OutcomePreempted)
	cur.consume(elapsed)
	if sim.Trace != nil {
		sim.Trace.RecordPreemption(trace.PreemptionRecord{ProcessID: cur.ID, Clock: sim.Clock, Remaining: cur.RemainingTime})
	}
	sim.Current = nil
}

// sliceOut charges a full quantum to the running process and frees the server.
func (sim *Simulator) sliceOut(quantum float64) {
	cur := sim.Current
	sim.endBurst(trace.OutcomeSliced)
	cur.consume(quantum)
	sim.Current = nil
}

func (sim *Simulator) endBurst(outcome trace.BurstOutcome) {
	if sim.Trace == nil {
		return
	}
	sim.Trace.RecordBurst(trace.BurstRecord{
		ProcessID: sim.Current.ID,
		Start:     sim.Current.LastDispatch,
		End:       sim.Clock,
		Before:    sim.Current.RemainingTime,
		Outcome:   outcome,
	})
}

// CheckInvariants verifies the ownership and server-slot invariants. It is
// meant for tests that step the simulator event by event.
func (sim *Simulator) CheckInvariants() error {
	running := 0
	if sim.Current != nil {
		running = 1
		if sim.Current.State != StateRunning {
			return fmt.Errorf("current %v has state %q", sim.Current, sim.Current.State)
		}
	}
	if got := running + sim.ReadyQ.Len() + len(sim.Completed); got != sim.Metrics.Admitted {
		return fmt.Errorf("running+ready+completed = %d, admitted = %d", got, sim.Metrics.Admitted)
	}
	seen := make(map[int64]bool, sim.ReadyQ.Len()+1)
	if sim.Current != nil {
		seen[sim.Current.ID] = true
	}
	for _, p := range sim.ReadyQ.Items() {
		if seen[p.ID] {
			return fmt.Errorf("%v owned twice", p)
		}
		seen[p.ID] = true
		if p.RemainingTime <= 0 || p.RemainingTime > p.ServiceTime {
			return fmt.Errorf("%v remaining outside (0, service]", p)
		}
	}
	for id := range seen {
		if n := sim.EventQueue.PendingDepartures(id); n > 1 {
			return fmt.Errorf("P%d targeted by %d departures", id, n)
		}
	}
	return nil
}
