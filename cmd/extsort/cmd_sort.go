package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-extsort/pkg/extsort"
)

var (
	sortVerify   bool
	internalSize int64
)

var sortInternalCmd = &cobra.Command{
	Use:   "sort-internal <input> <output>",
	Short: "Sort a file entirely in memory",
	Long: `Sort a file entirely in memory.

The expected size comes from --size-mib or, when that is not given, from the
digits in the input file name (input_256.bin means 256 MiB).`,
	Args: cobra.ExactArgs(2),
	RunE: runSortInternal,
}

var sortExternalCmd = &cobra.Command{
	Use:   "sort-external <input> <output> <size-MiB> [block-MiB memory-MiB]",
	Short: "Sort a file with bounded memory",
	Long: `Sort a file with bounded memory.

Block and memory sizes default to 16 MiB and 64 MiB, or to the values in the
config file. When given they must be passed together.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 3 && len(args) != 5 {
			return fmt.Errorf("accepts 3 or 5 arg(s), received %d", len(args))
		}
		return nil
	},
	RunE: runSortExternal,
}

func init() {
	sortInternalCmd.Flags().Int64Var(&internalSize, "size-mib", 0, "Expected input size in MiB")
	sortInternalCmd.Flags().BoolVar(&sortVerify, "verify", true, "Check the output against a snapshot of the input (overrides the config file)")
	sortExternalCmd.Flags().BoolVar(&sortVerify, "verify", true, "Check the output against a snapshot of the input (overrides the config file)")
}

func runSortInternal(cmd *cobra.Command, args []string) error {
	cfg := sortConfig(cmd)

	switch {
	case cmd.Flags().Changed("size-mib"):
		size, err := parseMiB(fmt.Sprintf("%d", internalSize))
		if err != nil {
			return err
		}
		cfg.ExpectedBytes = size
	default:
		if size, ok := sizeFromName(args[0]); ok {
			cfg.ExpectedBytes = size
		}
	}

	s, err := newSorter(cfg)
	if err != nil {
		return err
	}
	res, err := s.SortInternal(args[0], args[1])
	return report(cmd, "sort-internal", res, err)
}

func runSortExternal(cmd *cobra.Command, args []string) error {
	cfg := sortConfig(cmd)

	size, err := parseMiB(args[2])
	if err != nil {
		return err
	}
	cfg.ExpectedBytes = size

	if len(args) == 5 {
		if cfg.BlockBytes, err = parseMiB(args[3]); err != nil {
			return err
		}
		if cfg.MemoryBytes, err = parseMiB(args[4]); err != nil {
			return err
		}
	}

	s, err := newSorter(cfg)
	if err != nil {
		return err
	}
	res, err := s.Sort(args[0], args[1])
	return report(cmd, "sort-external", res, err)
}

// sortConfig returns the loaded sort settings with --verify applied only
// when it was given, so verify: false in the config file holds.
func sortConfig(cmd *cobra.Command) extsort.Config {
	cfg := settings.Sort
	if cmd.Flags().Changed("verify") {
		cfg.Verify = sortVerify
	}
	return cfg
}

func newSorter(cfg extsort.Config) (*extsort.Sorter, error) {
	cfg.Logger = logger
	cfg.Metrics = registry
	return extsort.New(cfg)
}

// report prints the summary of any result the sorter returned, including
// one whose verification failed, and passes err through.
func report(cmd *cobra.Command, title string, res *extsort.Result, err error) error {
	if res != nil {
		printSortSummary(cmd.OutOrStdout(), title, res)
	}
	return err
}
