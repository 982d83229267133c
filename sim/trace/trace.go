package trace

// TraceLevel controls the verbosity of burst tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelBursts captures every service burst and preemption.
	TraceLevelBursts TraceLevel = "bursts"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:   true,
	TraceLevelBursts: true,
	"":               true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// SimulationTrace collects burst records during a simulation.
type SimulationTrace struct {
	Config      TraceConfig
	Bursts      []BurstRecord
	Preemptions []PreemptionRecord
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(config TraceConfig) *SimulationTrace {
	return &SimulationTrace{
		Config:      config,
		Bursts:      make([]BurstRecord, 0),
		Preemptions: make([]PreemptionRecord, 0),
	}
}

// RecordBurst appends a burst record.
func (st *SimulationTrace) RecordBurst(record BurstRecord) {
	st.Bursts = append(st.Bursts, record)
}

// RecordPreemption appends a preemption record.
func (st *SimulationTrace) RecordPreemption(record PreemptionRecord) {
	st.Preemptions = append(st.Preemptions, record)
}

// BurstsFor returns the bursts of one process in recording order.
func (st *SimulationTrace) BurstsFor(processID int64) []BurstRecord {
	var out []BurstRecord
	for _, b := range st.Bursts {
		if b.ProcessID == processID {
			out = append(out, b)
		}
	}
	return out
}
