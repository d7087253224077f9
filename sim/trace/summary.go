package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalEvents    int             `json:"total_events"`
	Dropped        int             `json:"dropped"`
	Replications   int             `json:"replications"`
	EventsByName   map[string]int  `json:"events_by_name"`    // event name → count
	EventsPerRep   map[int]int     `json:"events_per_rep"`    // replication → count
	LastTimePerRep map[int]float64 `json:"last_time_per_rep"` // replication → time of its last recorded event
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		EventsByName:   make(map[string]int),
		EventsPerRep:   make(map[int]int),
		LastTimePerRep: make(map[int]float64),
	}
	if st == nil {
		return summary
	}

	summary.TotalEvents = len(st.Events)
	summary.Dropped = st.Dropped
	for _, e := range st.Events {
		summary.EventsByName[e.Name]++
		summary.EventsPerRep[e.Replication]++
		summary.LastTimePerRep[e.Replication] = e.Time
	}
	summary.Replications = len(summary.EventsPerRep)

	return summary
}
