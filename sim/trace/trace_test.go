package trace

import (
	"testing"
)

func TestSimulationTrace_RecordEvent_AppendsRecord(t *testing.T) {
	// GIVEN a trace configured for events
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelEvents})

	// WHEN an event record is recorded
	st.RecordEvent(EventRecord{Replication: 1, Time: 2.5, Priority: 10, ID: 3, Name: "Arrival"})

	// THEN the trace contains one record with correct data
	if len(st.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(st.Events))
	}
	if st.Events[0].Name != "Arrival" {
		t.Errorf("expected name Arrival, got %s", st.Events[0].Name)
	}
	if st.Events[0].Time != 2.5 {
		t.Errorf("expected time 2.5, got %g", st.Events[0].Time)
	}
}

func TestSimulationTrace_MaxEvents_DropsExcess(t *testing.T) {
	// GIVEN a trace limited to two records
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelEvents, MaxEvents: 2})

	// WHEN three records are added
	for i := 1; i <= 3; i++ {
		st.RecordEvent(EventRecord{Replication: 1, ID: uint64(i)})
	}

	// THEN only the first two are kept and the third is counted as dropped
	if len(st.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(st.Events))
	}
	if st.Dropped != 1 {
		t.Errorf("expected 1 dropped, got %d", st.Dropped)
	}
}

func TestSimulationTrace_Replication_FiltersAndPreservesOrder(t *testing.T) {
	// GIVEN records interleaved from two replications
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelEvents})
	st.RecordEvent(EventRecord{Replication: 1, ID: 1, Name: "a"})
	st.RecordEvent(EventRecord{Replication: 1, ID: 2, Name: "b"})
	st.RecordEvent(EventRecord{Replication: 2, ID: 1, Name: "a"})

	// WHEN replication 1 is extracted
	got := st.Replication(1)

	// THEN it holds its own records in order
	if len(got) != 2 || got[0].Name != "a" || got[1].Name != "b" {
		t.Errorf("unexpected replication 1 records: %+v", got)
	}
	if len(st.Replication(3)) != 0 {
		t.Error("expected no records for an unknown replication")
	}
}

func TestSimulationTrace_Enabled(t *testing.T) {
	var nilTrace *SimulationTrace
	if nilTrace.Enabled() {
		t.Error("nil trace must not be enabled")
	}
	if NewSimulationTrace(TraceConfig{Level: TraceLevelNone}).Enabled() {
		t.Error("level none must not be enabled")
	}
	if !NewSimulationTrace(TraceConfig{Level: TraceLevelEvents}).Enabled() {
		t.Error("level events must be enabled")
	}
}

func TestIsValidTraceLevel_ValidLevels(t *testing.T) {
	tests := []struct {
		level string
		valid bool
	}{
		{"none", true},
		{"events", true},
		{"", true}, // empty defaults to none
		{"decisions", false},
		{"foobar", false},
		{"NONE", false}, // case-sensitive
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			if got := IsValidTraceLevel(tt.level); got != tt.valid {
				t.Errorf("IsValidTraceLevel(%q) = %v, want %v", tt.level, got, tt.valid)
			}
		})
	}
}
