// Package stats provides the observation sinks used by the simulation engine and the
// across-replication summaries printed in reports.
//
// The engine only depends on the Record(value, time) method; everything else here is
// reporting support. This package has no dependencies on sim/.
package stats
