package sim

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() SimConfig {
	return SimConfig{Policy: PolicyRR, ArrivalRate: 10, MeanServiceTime: 0.04, Quantum: 0.01, Seed: 1}
}

func TestSimConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SimConfig)
		field  string // empty = valid
	}{
		{"valid rr", func(c *SimConfig) {}, ""},
		{"fcfs ignores quantum", func(c *SimConfig) { c.Policy = PolicyFCFS; c.Quantum = 0 }, ""},
		{"unknown policy", func(c *SimConfig) { c.Policy = 0 }, "scheduler"},
		{"policy out of range", func(c *SimConfig) { c.Policy = 5 }, "scheduler"},
		{"zero lambda", func(c *SimConfig) { c.ArrivalRate = 0 }, "arrival rate"},
		{"negative lambda", func(c *SimConfig) { c.ArrivalRate = -1 }, "arrival rate"},
		{"NaN lambda", func(c *SimConfig) { c.ArrivalRate = math.NaN() }, "arrival rate"},
		{"zero service", func(c *SimConfig) { c.MeanServiceTime = 0 }, "mean service time"},
		{"inf service", func(c *SimConfig) { c.MeanServiceTime = math.Inf(1) }, "mean service time"},
		{"rr missing quantum", func(c *SimConfig) { c.Quantum = 0 }, "quantum"},
		{"rr negative quantum", func(c *SimConfig) { c.Quantum = -0.5 }, "quantum"},
		{"negative cap", func(c *SimConfig) { c.MaxProcesses = -1 }, "max processes"},
		{"negative horizon", func(c *SimConfig) { c.Horizon = -2 }, "horizon"},
		{"negative status interval", func(c *SimConfig) { c.StatusInterval = -1 }, "status interval"},
		{"negative idle samples", func(c *SimConfig) { c.MaxIdleSamples = -1 }, "max idle samples"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig), "error must wrap ErrInvalidConfig: %v", err)
			var ce *ConfigError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}

func TestSimConfig_WithDefaults(t *testing.T) {
	cfg := SimConfig{Policy: PolicyFCFS, ArrivalRate: 1, MeanServiceTime: 3}.withDefaults()
	assert.Equal(t, DefaultMaxProcesses, cfg.MaxProcesses)
	assert.True(t, math.IsInf(cfg.Horizon, 1))
	assert.Equal(t, 1.5, cfg.StatusInterval)
	assert.Equal(t, DefaultMaxIdleSamples, cfg.MaxIdleSamples)

	explicit := SimConfig{Policy: PolicyFCFS, ArrivalRate: 1, MeanServiceTime: 3, MaxProcesses: 5, Horizon: 9, StatusInterval: 0.1}.withDefaults()
	assert.Equal(t, 5, explicit.MaxProcesses)
	assert.Equal(t, 9.0, explicit.Horizon)
	assert.Equal(t, 0.1, explicit.StatusInterval)
}

func TestParsePolicyKind(t *testing.T) {
	tests := []struct {
		in      string
		want    PolicyKind
		wantErr bool
	}{
		{"1", PolicyFCFS, false},
		{"2", PolicySRTF, false},
		{"3", PolicyHRRN, false},
		{"4", PolicyRR, false},
		{"fcfs", PolicyFCFS, false},
		{"SRTF", PolicySRTF, false},
		{" Hrrn ", PolicyHRRN, false},
		{"rr", PolicyRR, false},
		{"0", 0, true},
		{"5", 0, true},
		{"sjf", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePolicyKind(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPolicyKind_TextRoundTrip(t *testing.T) {
	for _, k := range AllPolicies {
		text, err := k.MarshalText()
		require.NoError(t, err)
		var back PolicyKind
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, k, back)
	}
	_, err := PolicyKind(9).MarshalText()
	assert.Error(t, err)
	assert.Equal(t, "PolicyKind(9)", PolicyKind(9).String())
}
