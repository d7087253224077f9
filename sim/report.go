package sim

import (
	"fmt"
	"io"
	"time"

	"github.com/inference-sim/desim/sim/stats"
)

// ReplicationResult describes how one replication ended.
type ReplicationResult struct {
	Number         int           `json:"number"`
	EndCondition   string        `json:"end_condition"`
	StopMessage    string        `json:"stop_message,omitempty"`
	EventsExecuted int64         `json:"events_executed"`
	EndTime        float64       `json:"end_time"`
	WallTime       time.Duration `json:"wall_time_ns"`
}

// Report is the outcome of a Simulation run.
type Report struct {
	ID           string              `json:"id"`
	Experiment   string              `json:"experiment"`
	Model        string              `json:"model"`
	Replications []ReplicationResult `json:"replications"`
	Responses    []stats.Summary     `json:"responses"`
	// Error is set when the run stopped early; FailedReplication names the replication.
	Error             string `json:"error,omitempty"`
	FailedReplication int    `json:"failed_replication,omitempty"`
}

func newReport(s *Simulation) *Report {
	return &Report{
		ID:           s.id,
		Experiment:   s.exp.Name,
		Model:        s.model.Name(),
		Replications: []ReplicationResult{},
		Responses:    []stats.Summary{},
	}
}

func (r *Report) fail(n int, err error) *Report {
	r.Error = err.Error()
	r.FailedReplication = n
	return r
}

// summarize builds the across-replication summary of every registered response.
func (r *Report) summarize(m *Model) {
	for _, resp := range m.Responses() {
		r.Responses = append(r.Responses,
			stats.Summarize(resp.Name(), resp.ReplicationValues(), stats.DefaultConfidenceLevel))
	}
}

// Response returns the summary with the given name.
func (r *Report) Response(name string) (stats.Summary, bool) {
	for _, s := range r.Responses {
		if s.Name == name {
			return s, true
		}
	}
	return stats.Summary{}, false
}

// Print writes a human-readable report to w.
func (r *Report) Print(w io.Writer) {
	fmt.Fprintf(w, "=== Experiment %s (model %s) ===\n", r.Experiment, r.Model)
	fmt.Fprintf(w, "Run ID               : %s\n", r.ID)
	fmt.Fprintf(w, "Replications         : %d\n", len(r.Replications))
	for _, rep := range r.Replications {
		fmt.Fprintf(w, "  #%-4d %-22s events=%-10d end=%-12.4f wall=%v\n",
			rep.Number, rep.EndCondition, rep.EventsExecuted, rep.EndTime, rep.WallTime.Round(time.Microsecond))
	}
	if r.Error != "" {
		fmt.Fprintf(w, "Failed replication   : %d: %s\n", r.FailedReplication, r.Error)
	}
	if len(r.Responses) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%-36s %6s %12s %12s %12s %12s %12s\n", "Response", "Count", "Average", "StdDev", "HalfWidth", "Min", "Max")
	for _, s := range r.Responses {
		fmt.Fprintf(w, "%-36s %6d %12.4f %12.4f %12.4f %12.4f %12.4f\n",
			s.Name, s.Count, s.Mean, s.StdDev, s.HalfWidth, s.Min, s.Max)
	}
}
