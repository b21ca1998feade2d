package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-extsort/pkg/record"
	"github.com/dd0wney/cluso-extsort/pkg/verify"
)

var errVerification = errors.New("verification failed")

var dumpCount int

var verifyCmd = &cobra.Command{
	Use:   "verify <original> <sorted> | verify <sorted>",
	Short: "Check a sorted file against its original, or just its order",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runVerify,
}

func init() {
	verifyCmd.Flags().IntVar(&dumpCount, "dump", 0, "Print this many records of the sorted file around the first mismatch")
}

func runVerify(cmd *cobra.Command, args []string) error {
	sorted := args[len(args)-1]

	var (
		rep verify.Report
		err error
	)
	if len(args) == 1 {
		rep, err = verify.CheckSorted(sorted)
	} else {
		var original []record.Record
		if original, err = readAll(args[0]); err != nil {
			return err
		}
		rep, err = verify.AgainstOracle(original, sorted)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderBox("verify", []row{
		{"file", sorted},
		{"records", fmt.Sprintf("%d", rep.Records)},
		{"result", verificationLine(&rep)},
	}))
	if rep.OK() {
		return nil
	}

	if dumpCount > 0 && rep.FirstIndex >= 0 {
		if err := dumpAround(out, sorted, rep.FirstIndex, dumpCount); err != nil {
			return err
		}
	}
	return fmt.Errorf("%w: %s", errVerification, rep)
}

// readAll loads a raw record file into memory.
func readAll(path string) ([]record.Record, error) {
	f, err := record.OpenReadOnly(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	n, err := f.Len()
	if err != nil {
		return nil, err
	}
	recs := make([]record.Record, n)
	if err := f.ReadAt(0, recs, 0, int(n)); err != nil {
		return nil, err
	}
	return recs, nil
}

// dumpAround prints up to count records of path centred on index.
func dumpAround(w io.Writer, path string, index int64, count int) error {
	f, err := record.OpenReadOnly(path)
	if err != nil {
		return err
	}
	defer f.Close()

	n, err := f.Len()
	if err != nil {
		return err
	}
	start := max(index-int64(count/2), 0)
	if int64(count) > n-start {
		count = int(n - start)
	}
	if count <= 0 {
		return nil
	}
	return f.Dump(w, start, count)
}
