package trace

import "testing"

func TestSummarize_EmptyTrace_ZeroValues(t *testing.T) {
	// GIVEN an empty trace
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelEvents})

	// WHEN summarized
	summary := Summarize(st)

	// THEN all counts are zero
	if summary.TotalEvents != 0 {
		t.Errorf("expected 0 total events, got %d", summary.TotalEvents)
	}
	if summary.Replications != 0 {
		t.Errorf("expected 0 replications, got %d", summary.Replications)
	}
	if len(summary.EventsByName) != 0 {
		t.Error("expected empty name distribution")
	}
}

func TestSummarize_PopulatedTrace_CorrectCounts(t *testing.T) {
	// GIVEN a trace spanning two replications
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelEvents})
	st.RecordEvent(EventRecord{Replication: 1, Time: 0, Name: "Arrival"})
	st.RecordEvent(EventRecord{Replication: 1, Time: 7, Name: "EndService"})
	st.RecordEvent(EventRecord{Replication: 2, Time: 0, Name: "Arrival"})
	st.RecordEvent(EventRecord{Replication: 2, Time: 3, Name: "Arrival"})
	st.RecordEvent(EventRecord{Replication: 2, Time: 10, Name: "EndService"})

	// WHEN summarized
	summary := Summarize(st)

	// THEN counts are aggregated per name and per replication
	if summary.TotalEvents != 5 {
		t.Errorf("expected 5 total events, got %d", summary.TotalEvents)
	}
	if summary.Replications != 2 {
		t.Errorf("expected 2 replications, got %d", summary.Replications)
	}
	if summary.EventsByName["Arrival"] != 3 || summary.EventsByName["EndService"] != 2 {
		t.Errorf("unexpected name distribution: %v", summary.EventsByName)
	}
	if summary.EventsPerRep[1] != 2 || summary.EventsPerRep[2] != 3 {
		t.Errorf("unexpected per-replication counts: %v", summary.EventsPerRep)
	}
	if summary.LastTimePerRep[2] != 10 {
		t.Errorf("expected last time 10 for replication 2, got %g", summary.LastTimePerRep[2])
	}
}

func TestSummarize_NilTrace_SafeZeroValues(t *testing.T) {
	summary := Summarize(nil)
	if summary.TotalEvents != 0 {
		t.Errorf("expected 0 total events for nil trace, got %d", summary.TotalEvents)
	}
	if summary.EventsByName == nil {
		t.Error("expected non-nil map for nil trace")
	}
}
