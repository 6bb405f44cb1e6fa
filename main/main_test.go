package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(append(args, "--log-level", "error"))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCommands(t *testing.T) {
	dir := t.TempDir()
	ints := filepath.Join(dir, "ints.parquet")
	strs := filepath.Join(dir, "strings.parquet")

	out, err := run(t, "gen", ints, "--type", "int64", "--encoding", "delta", "--num", "5000", "--page-values", "700", "--crc")
	require.NoError(t, err)
	require.Contains(t, out, "5000 int64 values as DELTA_BINARY_PACKED")

	out, err = run(t, "count-pages", ints)
	require.NoError(t, err)
	require.Contains(t, out, "pages:  8\n")
	require.Contains(t, out, "values: 5000\n")

	out, err = run(t, "inspect", ints)
	require.NoError(t, err)
	require.Contains(t, out, "DELTA_BINARY_PACKED")
	require.Contains(t, out, "DATA_PAGE_V2")

	out, err = run(t, "footer", ints)
	require.NoError(t, err)
	require.Contains(t, out, "=== Schema ===")
	require.Contains(t, out, "1. v (type: INT64, repetition: REQUIRED)")

	out, err = run(t, "read", ints, "--type", "int64", "--encoding", "delta", "--head", "3")
	require.NoError(t, err)
	require.Contains(t, out, "Total values decoded: 5000")
	require.Contains(t, out, "(4997 more)")

	out, err = run(t, "verify", ints, ints, "--type", "int64", "--encoding", "delta")
	require.NoError(t, err)
	require.Contains(t, out, "Test passed!")

	_, err = run(t, "read", ints, "--type", "int64", "--encoding", "plain", "--head", "3")
	require.Error(t, err)

	_, err = run(t, "gen", strs, "--type", "string", "--encoding", "delta-length", "--num", "300", "--page-values", "64", "--max-len", "9")
	require.NoError(t, err)
	out, err = run(t, "verify", strs, strs, "--type", "string", "--encoding", "delta-length")
	require.NoError(t, err)
	require.Contains(t, out, "Test passed!")

	out, err = run(t, "bench", strs, "--type", "string", "--encoding", "delta-length", "--iterations", "2")
	require.NoError(t, err)
	require.Contains(t, out, "preallocated")
	require.Contains(t, out, "allocating")
}

func TestBadFlags(t *testing.T) {
	_, err := run(t, "gen", filepath.Join(t.TempDir(), "x"), "--type", "float")
	require.Error(t, err)
	_, err = run(t, "gen", filepath.Join(t.TempDir(), "x"), "--type", "int32", "--encoding", "rle")
	require.Error(t, err)
}
