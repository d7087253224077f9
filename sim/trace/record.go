// Package trace provides execution-trace recording for simulation runs.
// This package has no dependencies on sim/; it stores plain data types.
package trace

// EventRecord captures a single executed event.
type EventRecord struct {
	Replication int     `json:"replication"`
	Time        float64 `json:"time"`
	Priority    int     `json:"priority"`
	ID          uint64  `json:"id"`
	Name        string  `json:"name"`
}
