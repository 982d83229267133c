// Defines the Process struct that models one job in the simulation.
// Tracks arrival, service demand, remaining demand and completion.

package sim

import "fmt"

// ProcessState represents where a process currently lives.
// A process is owned by exactly one of the running slot, the ready queue
// or the completed list.
type ProcessState string

const (
	StateReady     ProcessState = "ready"
	StateRunning   ProcessState = "running"
	StateCompleted ProcessState = "completed"
)

type Process struct {
	ID int64 // Assigned when the arrival is generated, monotonically increasing

	ArrivalTime    float64 // Simulated time the process became known to the system
	ServiceTime    float64 // Total CPU demand, immutable after creation
	RemainingTime  float64 // CPU demand not yet served; only preemption decrements it
	CompletionTime float64 // Set at departure; zero until then
	LastDispatch   float64 // Clock at which the current (or last) burst started

	State ProcessState
}

// NewProcess creates a ready process whose remaining demand equals its service demand.
func NewProcess(id int64, arrival, service float64) *Process {
	return &Process{
		ID:            id,
		ArrivalTime:   arrival,
		ServiceTime:   service,
		RemainingTime: service,
		State:         StateReady,
	}
}

// Turnaround returns completion minus arrival. Only meaningful once completed.
func (p *Process) Turnaround() float64 {
	return p.CompletionTime - p.ArrivalTime
}

// ResponseRatio is the HRRN priority (wait + remaining) / remaining at clock.
func (p *Process) ResponseRatio(clock float64) float64 {
	return (clock - p.ArrivalTime + p.RemainingTime) / p.RemainingTime
}

// consume charges served time against the remaining demand.
func (p *Process) consume(served float64) {
	if served < 0 {
		panic(fmt.Sprintf("process %d: negative service charge %v", p.ID, served))
	}
	p.RemainingTime -= served
	// floating-point subtraction may undershoot by an ulp
	if p.RemainingTime < 0 {
		p.RemainingTime = 0
	}
}

func (p *Process) String() string {
	return fmt.Sprintf("P%d{arr=%.4f svc=%.4f rem=%.4f}", p.ID, p.ArrivalTime, p.ServiceTime, p.RemainingTime)
}
