package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schedsim/schedsim/sim/trace"
)

const eps = 1e-9

type arrival struct {
	at, service float64
}

// runInjected runs a simulation fed only by the given arrivals.
func runInjected(t *testing.T, kind PolicyKind, quantum float64, arrivals ...arrival) (*Simulator, *Report) {
	t.Helper()
	s, err := NewSimulator(SimConfig{
		Policy: kind, ArrivalRate: 1, MeanServiceTime: 1, Quantum: quantum, TraceBursts: true,
	})
	require.NoError(t, err)
	for _, a := range arrivals {
		_, err := s.InjectArrival(a.at, a.service)
		require.NoError(t, err)
	}
	return s, s.Run()
}

func completionOf(t *testing.T, s *Simulator, id int64) float64 {
	t.Helper()
	for _, p := range s.Completed {
		if p.ID == id {
			return p.CompletionTime
		}
	}
	t.Fatalf("P%d never completed", id)
	return 0
}

func departureOrder(s *Simulator) []int64 {
	ids := make([]int64, len(s.Completed))
	for i, p := range s.Completed {
		ids[i] = p.ID
	}
	return ids
}

func TestFCFS_TwoArrivals_Scenario(t *testing.T) {
	// GIVEN arrivals at t=0 (demand 2) and t=0.5 (demand 1)
	s, r := runInjected(t, PolicyFCFS, 0, arrival{0, 2}, arrival{0.5, 1})

	// THEN P1 runs 0→2 and P2 queues then runs 2→3
	assert.Equal(t, []int64{1, 2}, departureOrder(s))
	assert.InDelta(t, 2.0, completionOf(t, s, 1), eps)
	assert.InDelta(t, 3.0, completionOf(t, s, 2), eps)

	// AND turnaround = ((2-0)+(3-0.5))/2 = 2.25
	assert.InDelta(t, 2.25, r.Turnaround.OrElse(-1), eps)
	assert.InDelta(t, 2.0/3.0, r.Throughput.OrElse(-1), eps)
	assert.InDelta(t, 1.0, r.CPUUtilization.OrElse(-1), eps)
	// samples at 0.5,1,1.5 see P2 waiting; 2,2.5,3 see an empty queue
	assert.InDelta(t, 0.5, r.AvgQueueLength.OrElse(-1), eps)
	assert.Equal(t, "Average Turnaround: 2.25", r.Lines()[0])
}

func TestRR_SingleProcess_ThreeSlices(t *testing.T) {
	// GIVEN one process with demand 2.5 alone at t=0 and quantum 1
	s, _ := runInjected(t, PolicyRR, 1, arrival{0, 2.5})

	// THEN it is served in bursts of 1, 1, 0.5 and completes at 2.5
	bursts := s.Trace.BurstsFor(1)
	require.Len(t, bursts, 3)
	wantLen := []float64{1, 1, 0.5}
	wantOutcome := []trace.BurstOutcome{trace.OutcomeSliced, trace.OutcomeSliced, trace.OutcomeCompleted}
	for i, b := range bursts {
		assert.InDelta(t, wantLen[i], b.Length(), eps, "burst %d", i)
		assert.Equal(t, wantOutcome[i], b.Outcome, "burst %d", i)
	}
	assert.InDelta(t, 2.5, completionOf(t, s, 1), eps)
}

func TestRR_TwoProcesses_Alternate(t *testing.T) {
	// GIVEN P1 (demand 2) at 0 and P2 (demand 1.5) at 0.5, quantum 1
	s, _ := runInjected(t, PolicyRR, 1, arrival{0, 2}, arrival{0.5, 1.5})

	// THEN service alternates P1[0,1] P2[1,2] P1[2,3] P2[3,3.5]
	var got []int64
	for _, b := range s.Trace.Bursts {
		got = append(got, b.ProcessID)
	}
	assert.Equal(t, []int64{1, 2, 1, 2}, got)
	assert.InDelta(t, 3.0, completionOf(t, s, 1), eps)
	assert.InDelta(t, 3.5, completionOf(t, s, 2), eps)
}

func TestRR_Departure_DispatchesWithFreshSlice(t *testing.T) {
	// GIVEN P1 (demand 0.5) running and P2 (demand 3) queued behind it, quantum 1
	s, _ := runInjected(t, PolicyRR, 1, arrival{0, 0.5}, arrival{0.1, 3})

	// THEN after P1 departs, P2 is still sliced rather than run to completion
	bursts := s.Trace.BurstsFor(2)
	require.Len(t, bursts, 3)
	assert.InDelta(t, 1.0, bursts[0].Length(), eps)
	assert.Equal(t, trace.OutcomeSliced, bursts[0].Outcome)
	assert.InDelta(t, 3.5, completionOf(t, s, 2), eps)
}

func TestSRTF_ShorterArrival_Preempts(t *testing.T) {
	// GIVEN P1 (demand 5) at 0 and P2 (demand 2) at 1
	s, _ := runInjected(t, PolicySRTF, 0, arrival{0, 5}, arrival{1, 2})

	// THEN P2 preempts at t=1 (2 < 5-1), runs 1→3, and P1 resumes 3→7
	assert.Equal(t, []int64{2, 1}, departureOrder(s))
	assert.InDelta(t, 3.0, completionOf(t, s, 2), eps)
	assert.InDelta(t, 7.0, completionOf(t, s, 1), eps)

	require.Len(t, s.Trace.Preemptions, 1)
	assert.Equal(t, int64(1), s.Trace.Preemptions[0].ProcessID)
	assert.InDelta(t, 4.0, s.Trace.Preemptions[0].Remaining, eps)
}

func TestSRTF_EqualRemaining_DoesNotPreempt(t *testing.T) {
	// GIVEN P1 (demand 3) at 0 and P2 (demand 2) at 1: remaining times tie at 2
	s, _ := runInjected(t, PolicySRTF, 0, arrival{0, 3}, arrival{1, 2})

	// THEN the strict comparison keeps P1 running
	assert.Equal(t, []int64{1, 2}, departureOrder(s))
	assert.Empty(t, s.Trace.Preemptions)
	assert.InDelta(t, 3.0, completionOf(t, s, 1), eps)
	assert.InDelta(t, 5.0, completionOf(t, s, 2), eps)
}

func TestSRTF_ElapsedMeasuredFromDispatch(t *testing.T) {
	// GIVEN P2 waits behind P1 and only starts at t=3; P3 (demand 2) arrives at 4
	s, _ := runInjected(t, PolicySRTF, 0, arrival{0, 3}, arrival{1, 4}, arrival{4, 2})

	// THEN P2 has been served 1 unit when P3 arrives (remaining 3 > 2), so P3 preempts
	// and P2 resumes with exactly 3 units left: 6→9
	assert.Equal(t, []int64{1, 3, 2}, departureOrder(s))
	assert.InDelta(t, 6.0, completionOf(t, s, 3), eps)
	assert.InDelta(t, 9.0, completionOf(t, s, 2), eps)
	require.Len(t, s.Trace.Preemptions, 1)
	assert.InDelta(t, 3.0, s.Trace.Preemptions[0].Remaining, eps)
}

func TestSRTF_QueueServedShortestFirst(t *testing.T) {
	// GIVEN P1 long, then P2 (3) and P3 (1.5) queue behind it without preempting
	s, _ := runInjected(t, PolicySRTF, 0, arrival{0, 1}, arrival{0.1, 3}, arrival{0.2, 1.5})

	// THEN at P1's departure the shortest waiting process runs first
	assert.Equal(t, []int64{1, 3, 2}, departureOrder(s))
}

func TestHRRN_SnapshotRatiosReorderAtInsertion(t *testing.T) {
	// GIVEN P1 (10) running, then P2 (4) at 1, P3 (0.5) at 2, P4 (1) at 3
	s, _ := runInjected(t, PolicyHRRN, 0, arrival{0, 10}, arrival{1, 4}, arrival{2, 0.5}, arrival{3, 1})

	// THEN at t=3 the ratios are P3=3, P2=1.5, P4=1, so service order is P1,P3,P2,P4
	assert.Equal(t, []int64{1, 3, 2, 4}, departureOrder(s))
	assert.InDelta(t, 10.5, completionOf(t, s, 3), eps)
	assert.InDelta(t, 14.5, completionOf(t, s, 2), eps)
	assert.InDelta(t, 15.5, completionOf(t, s, 4), eps)
}

func TestHRRN_NonPreemptive(t *testing.T) {
	s, _ := runInjected(t, PolicyHRRN, 0, arrival{0, 5}, arrival{1, 0.1})
	assert.Equal(t, []int64{1, 2}, departureOrder(s))
	assert.Equal(t, 0, trace.Summarize(s.Trace).PreemptedBursts)
}

func TestFCFS_KeepsAdmissionOrder(t *testing.T) {
	s, _ := runInjected(t, PolicyFCFS, 0, arrival{0, 5}, arrival{1, 0.1}, arrival{2, 3}, arrival{2, 0.2})
	assert.Equal(t, []int64{1, 2, 3, 4}, departureOrder(s))
}

func TestNewPolicy(t *testing.T) {
	for _, k := range AllPolicies {
		assert.Equal(t, k, NewPolicy(k, 1).Kind())
	}
	assert.Equal(t, 0.25, NewPolicy(PolicyRR, 0.25).(*RRPolicy).Quantum)
	assert.Panics(t, func() { NewPolicy(PolicyKind(0), 0) })
}

func TestNonRRPolicies_PanicOnTimeSlice(t *testing.T) {
	for _, k := range []PolicyKind{PolicyFCFS, PolicySRTF, PolicyHRRN} {
		p := NewPolicy(k, 0)
		assert.Panics(t, func() { p.OnTimeSliceExpiry(nil) }, "%v", k)
	}
}
