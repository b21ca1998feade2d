package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-extsort/pkg/extsort"
	"github.com/dd0wney/cluso-extsort/pkg/record"
	"github.com/dd0wney/cluso-extsort/pkg/verify"
)

// resetFlags restores every flag to its default so runs do not leak into
// each other through the package-level command tree.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// run executes the CLI with a fresh scratch directory and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args, "--log-level", "error", "--scratch-dir", t.TempDir()))
	err := rootCmd.Execute()
	return out.String(), err
}

// smallConfig writes a config whose memory and block sizes turn a 1 MiB
// input into sixteen runs.
func smallConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "extsort.yaml")
	data := "sort:\n  memory_bytes: 65536\n  block_bytes: 16384\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func genInput(t *testing.T, dir, name string) (string, string) {
	t.Helper()
	input := filepath.Join(dir, name)
	output := filepath.Join(dir, "output.bin")
	_, err := run(t, "gen-input", "1", input, output, "--seed", "42")
	require.NoError(t, err)
	return input, output
}

func fileSize(t *testing.T, path string) int64 {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	return info.Size()
}

func TestParseMiB(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"1", extsort.MiB, false},
		{"64", 64 * extsort.MiB, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
		{"", 0, true},
		{"9223372036854775807", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseMiB(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSizeFromName(t *testing.T) {
	tests := []struct {
		path   string
		want   int64
		wantOK bool
	}{
		{"input_256.bin", 256 * extsort.MiB, true},
		{"/data/run7/in_1_6.bin", 16 * extsort.MiB, true},
		{"/data/run7/input.bin", 0, false},
		{"in_0.bin", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := sizeFromName(tt.path)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "250 µs", formatDuration(250*time.Microsecond))
	assert.Equal(t, "1500 ms", formatDuration(1500*time.Millisecond))
}

func TestGenInput(t *testing.T) {
	dir := t.TempDir()
	input, output := genInput(t, dir, "input.bin")

	assert.Equal(t, int64(extsort.MiB), fileSize(t, input))
	assert.Equal(t, int64(0), fileSize(t, output))
}

func TestGenInput_Deterministic(t *testing.T) {
	a, _ := genInput(t, t.TempDir(), "a.bin")
	b, _ := genInput(t, t.TempDir(), "b.bin")

	da, err := os.ReadFile(a)
	require.NoError(t, err)
	db, err := os.ReadFile(b)
	require.NoError(t, err)
	assert.Equal(t, da, db)
}

func TestSortExternal(t *testing.T) {
	dir := t.TempDir()
	input, output := genInput(t, dir, "input.bin")
	metricsPath := filepath.Join(dir, "extsort.prom")

	out, err := run(t, "sort-external", input, output, "1",
		"--config", smallConfig(t), "--metrics-file", metricsPath)
	require.NoError(t, err)
	assert.Contains(t, out, "sort-external")
	assert.Contains(t, out, "passed")

	rep, err := verify.CheckSorted(output)
	require.NoError(t, err)
	assert.True(t, rep.OK(), rep.String())
	assert.Equal(t, int64(extsort.MiB/record.Width), rep.Records)

	prom, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "extsort_sorts_total")
	assert.Contains(t, string(prom), "extsort_runs_generated_total 16")
}

func TestSortExternal_ConfigDisablesVerify(t *testing.T) {
	dir := t.TempDir()
	input, output := genInput(t, dir, "input.bin")
	cfg := filepath.Join(dir, "noverify.yaml")
	data := "sort:\n  memory_bytes: 65536\n  block_bytes: 16384\n  verify: false\n"
	require.NoError(t, os.WriteFile(cfg, []byte(data), 0o644))

	out, err := run(t, "sort-external", input, output, "1", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "skipped")
	assert.NotContains(t, out, "passed")

	out, err = run(t, "sort-external", input, output, "1", "--config", cfg, "--verify")
	require.NoError(t, err)
	assert.Contains(t, out, "passed")
}

func TestSortInternal_VerifyFlagOff(t *testing.T) {
	dir := t.TempDir()
	input, output := genInput(t, dir, "input_1.bin")

	out, err := run(t, "sort-internal", input, output, "--verify=false")
	require.NoError(t, err)
	assert.Contains(t, out, "skipped")
}

func TestSortExternal_ExplicitSizes(t *testing.T) {
	dir := t.TempDir()
	input, output := genInput(t, dir, "input.bin")

	_, err := run(t, "sort-external", input, output, "1", "1", "1", "--workers", "4")
	require.NoError(t, err)

	_, err = run(t, "verify", input, output)
	assert.NoError(t, err)
}

func TestSortExternal_SizeMismatch(t *testing.T) {
	dir := t.TempDir()
	input, output := genInput(t, dir, "input.bin")

	_, err := run(t, "sort-external", input, output, "2", "--config", smallConfig(t))
	assert.ErrorIs(t, err, extsort.ErrSizeMismatch)
}

func TestSortExternal_ArgCount(t *testing.T) {
	_, err := run(t, "sort-external", "in", "out", "1", "1")
	assert.Error(t, err)
}

func TestSortExternal_BlockLargerThanMemory(t *testing.T) {
	dir := t.TempDir()
	input, output := genInput(t, dir, "input.bin")

	_, err := run(t, "sort-external", input, output, "1", "2", "1")
	assert.ErrorIs(t, err, extsort.ErrInvalidConfig)
}

func TestSortInternal_SizeFromName(t *testing.T) {
	dir := t.TempDir()
	input, output := genInput(t, dir, "input_1.bin")

	out, err := run(t, "sort-internal", input, output)
	require.NoError(t, err)
	assert.Contains(t, out, "passed")

	rep, err := verify.CheckSorted(output)
	require.NoError(t, err)
	assert.True(t, rep.OK())
}

func TestSortInternal_SizeFlagOverridesName(t *testing.T) {
	dir := t.TempDir()
	input, output := genInput(t, dir, "input_1.bin")

	_, err := run(t, "sort-internal", input, output, "--size-mib", "3")
	assert.ErrorIs(t, err, extsort.ErrSizeMismatch)
}

func TestVerify_Unsorted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "unsorted.bin")
	f, err := record.Create(path)
	require.NoError(t, err)
	require.NoError(t, f.WriteAt(0, []record.Record{1, 2, 9, 3, 4, 5}))
	require.NoError(t, f.Close())

	out, err := run(t, "verify", path, "--dump", "4")
	assert.ErrorIs(t, err, errVerification)
	assert.Contains(t, out, "block starting at")
}

func TestVerify_AgainstOriginal(t *testing.T) {
	dir := t.TempDir()
	input, output := genInput(t, dir, "input.bin")

	// An empty output cannot match a 1 MiB original.
	_, err := run(t, "verify", input, output)
	assert.ErrorIs(t, err, errVerification)
}
