package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/desim/sim"
	"github.com/inference-sim/desim/sim/station"
	"github.com/inference-sim/desim/sim/trace"
)

// Outcome is what one experiment run produces.
type Outcome struct {
	Report *sim.Report         `json:"report"`
	Trace  *trace.TraceSummary `json:"trace,omitempty"`
}

// RunExperiment builds the station model described by f and runs every replication.
// When a replication fails the returned outcome still holds the partial report.
func RunExperiment(ctx context.Context, f *ExperimentFile) (*Outcome, error) {
	m, err := station.Build(f.Model, f.Seed)
	if err != nil {
		return nil, fmt.Errorf("building model: %w", err)
	}
	s, err := sim.NewSimulation(m.Model, f.Experiment)
	if err != nil {
		return nil, err
	}
	st := trace.NewSimulationTrace(f.Trace.toTraceConfig())
	s.AttachTrace(st)
	logrus.Debugf("simulation %s: seed=%d model=%s", s.ID(), f.Seed, m.Name())

	report, err := s.Run(ctx)
	out := &Outcome{Report: report}
	if st.Enabled() {
		out.Trace = trace.Summarize(st)
	}
	return out, err
}

// writeOutcome prints out as indented JSON or as the text report.
func writeOutcome(w io.Writer, out *Outcome, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	out.Report.Print(w)
	if out.Trace == nil {
		return nil
	}
	fmt.Fprintf(w, "\n=== Trace ===\n")
	fmt.Fprintf(w, "Events recorded      : %d (dropped %d)\n", out.Trace.TotalEvents, out.Trace.Dropped)
	names := make([]string, 0, len(out.Trace.EventsByName))
	for name := range out.Trace.EventsByName {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-36s %d\n", name, out.Trace.EventsByName[name])
	}
	return nil
}
