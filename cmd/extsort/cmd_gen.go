package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-extsort/pkg/gen"
	"github.com/dd0wney/cluso-extsort/pkg/logging"
	"github.com/dd0wney/cluso-extsort/pkg/record"
)

var genSeed uint64

var genInputCmd = &cobra.Command{
	Use:   "gen-input <size-MiB> <input> <output>",
	Short: "Write a file of random records and an empty output file",
	Args:  cobra.ExactArgs(3),
	RunE:  runGenInput,
}

func init() {
	genInputCmd.Flags().Uint64Var(&genSeed, "seed", 0, "Generator seed (0 picks one from the clock)")
}

func runGenInput(cmd *cobra.Command, args []string) error {
	size, err := parseMiB(args[0])
	if err != nil {
		return err
	}
	input, output := args[1], args[2]

	seed := genSeed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	timer := logging.StartTimer(logger, "generating input",
		logging.Path(input), logging.Bytes(size), logging.Any("seed", seed))
	n, err := gen.Generate(input, size, seed)
	if err != nil {
		timer.EndError(err)
		return err
	}
	elapsed := timer.End(logging.Records(n))

	out, err := record.Create(output)
	if err != nil {
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), renderBox("gen-input", []row{
		{"input", input},
		{"output", output},
		{"records", fmt.Sprintf("%d", n)},
		{"size", formatBytes(record.Bytes(n))},
		{"seed", fmt.Sprintf("%d", seed)},
		{"duration", formatDuration(elapsed)},
	}))
	return nil
}
