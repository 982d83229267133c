package experiment

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schedsim/schedsim/sim"
)

func smallConfig(kind sim.PolicyKind) sim.SimConfig {
	return sim.SimConfig{
		Policy:          kind,
		ArrivalRate:     8,
		MeanServiceTime: 0.1,
		Quantum:         0.02,
		Seed:            7,
		MaxProcesses:    300,
	}
}

func TestReplicate_SameConfig_IdenticalSummaries(t *testing.T) {
	// GIVEN one config replicated twice with different parallelism
	cfg := smallConfig(sim.PolicyRR)

	// WHEN both replicate
	a, err := Replicate(context.Background(), cfg, 4, 1)
	require.NoError(t, err)
	b, err := Replicate(context.Background(), cfg, 4, 4)
	require.NoError(t, err)

	// THEN every replication matches bit for bit, independent of scheduling
	require.Len(t, a.Results, 4)
	for i := range a.Results {
		assert.Equal(t, cfg.Seed+int64(i), a.Results[i].Seed)
		assert.Equal(t, a.Results[i].Report, b.Results[i].Report, "replication %d differs", i)
	}
	assert.Equal(t, a.Turnaround, b.Turnaround)
}

func TestReplicate_AggregatesDefinedMetrics(t *testing.T) {
	// GIVEN a stable FCFS config
	cfg := smallConfig(sim.PolicyFCFS)

	// WHEN replicated 5 times
	s, err := Replicate(context.Background(), cfg, 5, 0)
	require.NoError(t, err)

	// THEN each metric is aggregated over all 5 runs with a positive half-width
	assert.Equal(t, 5, s.Replications)
	assert.Equal(t, 5, s.Turnaround.N)
	assert.Equal(t, 5, s.CPUUtilization.N)
	assert.Greater(t, s.Turnaround.Mean, 0.0)
	assert.Greater(t, s.Turnaround.HalfWidth, 0.0)
	// utilization tracks λ·E[S] = 0.8
	assert.InDelta(t, 0.8, s.CPUUtilization.Mean, 0.25)
}

func TestReplicate_RejectsBadInput(t *testing.T) {
	_, err := Replicate(context.Background(), smallConfig(sim.PolicyFCFS), 0, 1)
	assert.Error(t, err)

	bad := smallConfig(sim.PolicyRR)
	bad.Quantum = 0
	_, err = Replicate(context.Background(), bad, 2, 1)
	assert.True(t, errors.Is(err, sim.ErrInvalidConfig))
}

func TestReplicate_CancelledContext_ReturnsError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Replicate(ctx, smallConfig(sim.PolicyFCFS), 3, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCompare_PreservesPolicyOrder(t *testing.T) {
	kinds := []sim.PolicyKind{sim.PolicyRR, sim.PolicyFCFS, sim.PolicySRTF}
	out, err := Compare(context.Background(), smallConfig(sim.PolicyFCFS), kinds, 2, 2)
	require.NoError(t, err)
	require.Len(t, out, 3)
	for i, k := range kinds {
		assert.Equal(t, k, out[i].Policy)
		for _, r := range out[i].Results {
			assert.Equal(t, k, r.Policy)
		}
	}
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, MetricStats{}, describe(nil))
	assert.Equal(t, MetricStats{N: 1, Mean: 3}, describe([]float64{3}))

	// GIVEN samples 1..4: mean 2.5, sample sd sqrt(5/3)
	got := describe([]float64{1, 2, 3, 4})
	assert.Equal(t, 4, got.N)
	assert.InDelta(t, 2.5, got.Mean, 1e-12)
	assert.InDelta(t, math.Sqrt(5.0/3.0), got.StdDev, 1e-12)
	// t(0.975, 3) ≈ 3.182
	assert.InDelta(t, 3.182*math.Sqrt(5.0/3.0)/2, got.HalfWidth, 1e-3)
}

func TestMetricStats_String(t *testing.T) {
	assert.Equal(t, "undefined", MetricStats{}.String())
	assert.Equal(t, "1.23 ± 0.05", MetricStats{N: 3, Mean: 1.234, HalfWidth: 0.049}.String())
}
