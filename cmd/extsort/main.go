package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-extsort/pkg/config"
	"github.com/dd0wney/cluso-extsort/pkg/logging"
	"github.com/dd0wney/cluso-extsort/pkg/metrics"
)

var (
	// Global flags
	configPath  string
	logLevel    string
	metricsFile string
	scratchDir  string
	workers     int

	// Set up by the root command before any subcommand runs
	settings *config.File
	registry *metrics.Registry
	logger   logging.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "extsort",
	Short: "Sort files of 64-bit integers larger than memory",
	Long: `extsort sorts flat binary files of native-endian signed 64-bit integers.

sort-external cuts the input into memory-sized sorted runs and merges them
pairwise in size-doubling passes through fixed-size blocks, alternating
between the output file and one scratch file. sort-internal loads the whole
file and sorts it in memory. Both check the result against a snapshot of
the original input unless --verify=false.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if jl, ok := logger.(*logging.JSONLogger); ok {
			_ = jl.Sync()
		}
		if settings == nil || settings.MetricsFile == "" {
			return nil
		}
		return registry.WriteTextfile(settings.MetricsFile)
	},
}

func setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("metrics-file") {
		cfg.MetricsFile = metricsFile
	}
	if flags.Changed("scratch-dir") {
		cfg.Sort.ScratchDir = scratchDir
	}
	if flags.Changed("workers") {
		cfg.Sort.Workers = workers
	}

	settings = cfg
	registry = metrics.NewRegistry()
	logger = logging.NewJSONLogger(os.Stderr, cfg.Level())
	logging.SetDefaultLogger(logger)
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn or error (or set LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics to this file on exit")
	rootCmd.PersistentFlags().StringVar(&scratchDir, "scratch-dir", "", "Directory for scratch and snapshot files (or set EXTSORT_SCRATCH_DIR)")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 1, "Concurrent pair merges per pass (or set EXTSORT_WORKERS)")

	rootCmd.AddCommand(genInputCmd)
	rootCmd.AddCommand(sortInternalCmd)
	rootCmd.AddCommand(sortExternalCmd)
	rootCmd.AddCommand(verifyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, failStyle.Render("✗ "+err.Error()))
		os.Exit(1)
	}
}
