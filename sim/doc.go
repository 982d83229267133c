// Package sim provides the core discrete-event simulation engine for schedsim,
// a single-server CPU scheduling simulator.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - process.go: Process lifecycle (ready → running → completed)
//   - event.go: Event types that drive the simulation (Arrival, Departure,
//     TimeSliceExpiry, StatusSample)
//   - simulator.go: The event loop and the execution primitives
//
// # Architecture
//
// A Simulator owns a deterministic EventQueue (timestamp → kind priority →
// sequence number), a ReadyQueue and exactly one SchedulingPolicy chosen at
// construction (FCFS, SRTF, HRRN or RR). The DemandGenerator draws inter-arrival
// delays and service demands from a single seeded stream, so a run is
// reproducible from its SimConfig alone.
//
// Sub-packages:
//   - sim/trace/: in-memory service burst recording
//   - sim/experiment/: replications over seeds and policy comparisons
package sim
