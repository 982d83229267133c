package sim

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DefaultMaxProcesses is the number of completions after which a run stops.
const DefaultMaxProcesses = 10000

// DefaultMaxIdleSamples is the number of consecutive status samples that may
// find the system empty before a run is declared stalled.
const DefaultMaxIdleSamples = 1_000_000

// ErrInvalidConfig is wrapped by every configuration rejection.
var ErrInvalidConfig = errors.New("invalid simulation config")

// ConfigError names the offending field of a rejected SimConfig.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%v: %s %s", ErrInvalidConfig, e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrInvalidConfig }

// PolicyKind selects one of the four scheduling disciplines.
// The numeric values match the external 1-4 encoding.
type PolicyKind int

const (
	PolicyFCFS PolicyKind = iota + 1
	PolicySRTF
	PolicyHRRN
	PolicyRR
)

var policyNames = map[PolicyKind]string{
	PolicyFCFS: "FCFS",
	PolicySRTF: "SRTF",
	PolicyHRRN: "HRRN",
	PolicyRR:   "RR",
}

// AllPolicies lists the disciplines in their external encoding order.
var AllPolicies = []PolicyKind{PolicyFCFS, PolicySRTF, PolicyHRRN, PolicyRR}

func (k PolicyKind) String() string {
	if name, ok := policyNames[k]; ok {
		return name
	}
	return fmt.Sprintf("PolicyKind(%d)", int(k))
}

// IsValid reports whether k is one of the four known disciplines.
func (k PolicyKind) IsValid() bool {
	_, ok := policyNames[k]
	return ok
}

// ParsePolicyKind accepts either the numeric tag ("1".."4") or a
// case-insensitive policy name ("fcfs", "SRTF", ...).
func ParsePolicyKind(s string) (PolicyKind, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		k := PolicyKind(n)
		if !k.IsValid() {
			return 0, &ConfigError{Field: "scheduler", Reason: fmt.Sprintf("tag %d out of range; valid: 1-4", n)}
		}
		return k, nil
	}
	for k, name := range policyNames {
		if strings.EqualFold(name, s) {
			return k, nil
		}
	}
	return 0, &ConfigError{Field: "scheduler", Reason: fmt.Sprintf("unrecognized %q; valid: fcfs, srtf, hrrn, rr", s)}
}

// MarshalText implements encoding.TextMarshaler.
func (k PolicyKind) MarshalText() ([]byte, error) {
	if !k.IsValid() {
		return nil, fmt.Errorf("unknown policy kind %d", int(k))
	}
	return []byte(strings.ToLower(k.String())), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *PolicyKind) UnmarshalText(text []byte) error {
	parsed, err := ParsePolicyKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// SimConfig holds everything a single run needs.
// Zero MaxProcesses, Horizon and StatusInterval select their defaults.
type SimConfig struct {
	Policy          PolicyKind
	ArrivalRate     float64 // λ, mean arrivals per unit time
	MeanServiceTime float64 // mean CPU demand per process
	Quantum         float64 // RR only
	Seed            int64
	MaxProcesses    int     // completions cap (default 10000)
	Horizon         float64 // simulated time limit (default +Inf)
	StatusInterval  float64 // spacing of queue-length samples (default MeanServiceTime/2)
	MaxIdleSamples  int     // consecutive empty-system samples before the run stalls (default 1e6)
	TraceBursts     bool    // record every service burst in Simulator.Trace
}

// withDefaults returns a copy with zero-valued optional fields filled in.
func (c SimConfig) withDefaults() SimConfig {
	if c.MaxProcesses == 0 {
		c.MaxProcesses = DefaultMaxProcesses
	}
	if c.Horizon == 0 {
		c.Horizon = math.Inf(1)
	}
	if c.StatusInterval == 0 {
		c.StatusInterval = c.MeanServiceTime / 2
	}
	if c.MaxIdleSamples == 0 {
		c.MaxIdleSamples = DefaultMaxIdleSamples
	}
	return c
}

// Validate rejects configurations the engine cannot run.
func (c SimConfig) Validate() error {
	if !c.Policy.IsValid() {
		return &ConfigError{Field: "scheduler", Reason: fmt.Sprintf("unrecognized tag %d; valid: 1-4", int(c.Policy))}
	}
	if err := requireFinitePositive("arrival rate", c.ArrivalRate); err != nil {
		return err
	}
	if err := requireFinitePositive("mean service time", c.MeanServiceTime); err != nil {
		return err
	}
	if c.Policy == PolicyRR {
		if err := requireFinitePositive("quantum", c.Quantum); err != nil {
			return err
		}
	}
	if c.MaxProcesses < 0 {
		return &ConfigError{Field: "max processes", Reason: fmt.Sprintf("must be non-negative, got %d", c.MaxProcesses)}
	}
	if c.MaxIdleSamples < 0 {
		return &ConfigError{Field: "max idle samples", Reason: fmt.Sprintf("must be non-negative, got %d", c.MaxIdleSamples)}
	}
	if math.IsNaN(c.Horizon) || c.Horizon < 0 {
		return &ConfigError{Field: "horizon", Reason: fmt.Sprintf("must be non-negative, got %v", c.Horizon)}
	}
	if c.StatusInterval != 0 {
		if err := requireFinitePositive("status interval", c.StatusInterval); err != nil {
			return err
		}
	}
	return nil
}

func requireFinitePositive(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &ConfigError{Field: field, Reason: fmt.Sprintf("must be a finite number, got %v", v)}
	}
	if v <= 0 {
		return &ConfigError{Field: field, Reason: fmt.Sprintf("must be positive, got %v", v)}
	}
	return nil
}
