package cmd

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// CLI flags shared by run and sweep
	logLevel   string // Log verbosity level
	jsonOutput bool   // Print reports as JSON

	// CLI flags for run
	configPath        string        // Experiment YAML file
	numReplications   int           // Overrides experiment.num_replications
	replicationLength float64       // Overrides experiment.length_of_replication
	warmUpLength      float64       // Overrides experiment.length_of_warmup
	maxExecTime       time.Duration // Overrides experiment.max_execution_time
	seed              int64         // Overrides the file's seed
	traceLevel        string        // Overrides trace.level
	traceMaxEvents    int           // Overrides trace.max_events
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "desim",
	Short: "Discrete-event simulation of queueing stations",
}

// runCmd executes one experiment file
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the replications of an experiment file",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()

		f, err := LoadExperimentFile(configPath)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if err := applyRunFlags(cmd, f); err != nil {
			logrus.Fatalf("%v", err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		out, err := RunExperiment(ctx, f)
		if out != nil && out.Report != nil {
			if werr := writeOutcome(os.Stdout, out, jsonOutput); werr != nil {
				logrus.Errorf("writing report: %v", werr)
			}
		}
		if err != nil {
			logrus.Fatalf("Experiment %s failed: %v", f.Experiment.Name, err)
		}
	},
}

// setLogLevel applies --log to the package-level logger.
func setLogLevel() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// applyRunFlags overrides the file's values with the flags given on the command line.
func applyRunFlags(cmd *cobra.Command, f *ExperimentFile) error {
	flags := cmd.Flags()
	if flags.Changed("reps") {
		f.Experiment.NumReplications = numReplications
	}
	if flags.Changed("length") {
		f.Experiment.LengthOfReplication = replicationLength
	}
	if flags.Changed("warmup") {
		f.Experiment.LengthOfWarmUp = warmUpLength
	}
	if flags.Changed("max-exec-time") {
		f.Experiment.MaxExecutionTime = maxExecTime
	}
	if flags.Changed("seed") {
		f.Seed = seed
	}
	if flags.Changed("trace") {
		f.Trace.Level = traceLevel
	}
	if flags.Changed("trace-max-events") {
		f.Trace.MaxEvents = traceMaxEvents
	}
	return f.Validate()
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print reports as JSON")

	runCmd.Flags().StringVar(&configPath, "config", "", "Path to the experiment YAML file")
	_ = runCmd.MarkFlagRequired("config")
	runCmd.Flags().IntVar(&numReplications, "reps", 1, "Number of replications")
	runCmd.Flags().Float64Var(&replicationLength, "length", 0, "Simulated length of each replication (+Inf for none)")
	runCmd.Flags().Float64Var(&warmUpLength, "warmup", 0, "Warm-up length after which statistics are reset")
	runCmd.Flags().DurationVar(&maxExecTime, "max-exec-time", 0, "Wall-clock budget per replication (0 = unlimited)")
	runCmd.Flags().Int64Var(&seed, "seed", defaultSeed, "Seed for the random number streams")
	runCmd.Flags().StringVar(&traceLevel, "trace", "none", "Trace level (none, events)")
	runCmd.Flags().IntVar(&traceMaxEvents, "trace-max-events", 0, "Maximum number of traced events (0 = unlimited)")

	// Attach `run` as a subcommand to `root`
	rootCmd.AddCommand(runCmd)
}
