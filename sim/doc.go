// Package sim provides a discrete-event simulation engine.
//
// # Reading Guide
//
// Start with these three files to understand the kernel:
//   - executive.go: the event loop, end conditions, and the execution time budget
//   - model_element.go: the element tree and the lifecycle hooks elements opt into
//   - simulation.go: how an Experiment drives replications over a Model
//
// # Architecture
//
// The sim package holds the kernel and the modeling constructs built on it; supporting
// code lives in sub-packages:
//   - sim/stats/: within-replication tallies and across-replication summaries
//   - sim/random/: named random number streams and distributions
//   - sim/station/: a single-server queueing station and its config-driven builder
//   - sim/trace/: event trace recording
//
// # Key Types
//
//   - Calendar: pending-event store ordered by (time, priority, id); HeapCalendar and ListCalendar
//   - Executive: schedules, cancels, and executes events against one Calendar
//   - Model and ModelElement: the element tree; elements implement Initializer, WarmUpper,
//     ReplicationEnder, and friends to take part in each replication
//   - RandomVariable and Response: stream-controlled inputs and statistical outputs
//   - Queue: a generic queue with swappable Discipline
//   - ResourceUnit: a single server with requests, failures, and scheduled inactive periods
//
// Handlers report failures as errors; a failing handler stops its replication and the error
// reaches the caller of Simulation.Run.
package sim
