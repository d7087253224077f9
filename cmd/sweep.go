package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var sweepParallelism int // Maximum experiments run at once

var sweepCmd = &cobra.Command{
	Use:   "sweep FILE...",
	Short: "Run several experiment files concurrently",
	Long:  "Load every experiment file, run them concurrently and print the reports in argument order. The first failure cancels the rest.",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		outcomes, err := runSweep(ctx, args, sweepParallelism)
		for i, out := range outcomes {
			if out == nil || out.Report == nil {
				continue
			}
			if i > 0 && !jsonOutput {
				fmt.Fprintln(os.Stdout)
			}
			if werr := writeOutcome(os.Stdout, out, jsonOutput); werr != nil {
				logrus.Errorf("writing report: %v", werr)
			}
		}
		if err != nil {
			logrus.Fatalf("Sweep failed: %v", err)
		}
	},
}

// runSweep loads all files before running any, then runs them with at most parallelism
// experiments in flight. Outcomes are indexed like paths; entries are nil for experiments
// that never finished.
func runSweep(ctx context.Context, paths []string, parallelism int) ([]*Outcome, error) {
	files := make([]*ExperimentFile, len(paths))
	for i, path := range paths {
		f, err := LoadExperimentFile(path)
		if err != nil {
			return nil, err
		}
		files[i] = f
	}

	outcomes := make([]*Outcome, len(files))
	g, gctx := errgroup.WithContext(ctx)
	if parallelism > 0 {
		g.SetLimit(parallelism)
	}
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			out, err := RunExperiment(gctx, f)
			outcomes[i] = out
			if err != nil {
				return fmt.Errorf("%s: %w", paths[i], err)
			}
			logrus.Infof("sweep: %s finished", paths[i])
			return nil
		})
	}
	return outcomes, g.Wait()
}

func init() {
	sweepCmd.Flags().IntVar(&sweepParallelism, "parallel", 0, "Maximum experiments run at once (0 = all)")

	rootCmd.AddCommand(sweepCmd)
}
