package main

import (
	"fmt"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"swparquet/page"
	"swparquet/reader"
)

const (
	minLatency = 100 * time.Nanosecond
	maxLatency = 100 * time.Second
)

var (
	benchColumn     columnFlags
	benchIterations int
)

var benchCmd = &cobra.Command{
	Use:   "bench <file>",
	Short: "time repeated decodes of a column",
	Long: `
Decodes the column --iterations times into buffers allocated once up front,
then --iterations times letting each read allocate its output, and reports
latency percentiles and decode throughput for both.
`,
	Args: cobra.ExactArgs(1),
	RunE: runBench,
}

func init() {
	benchColumn.register(benchCmd)
	benchCmd.Flags().IntVarP(
		&benchIterations, "iterations", "i", 10, "number of timed decodes per mode")
}

func newHistogram() *hdrhistogram.Histogram {
	return hdrhistogram.New(minLatency.Nanoseconds(), maxLatency.Nanoseconds(), 3)
}

// decodeFuncs returns a decode into buffers allocated once and a decode that
// allocates on every call.
func decodeFuncs(r *reader.Reader, c *columnFlags, enc page.Encoding) (into, alloc func() error) {
	num, off := c.num, c.offset
	switch c.typ {
	case "int32":
		out := make([]int32, num)
		into = func() error { return r.ReadInt32sInto(num, off, enc, out) }
		alloc = func() error { _, err := r.ReadInt32s(num, off, enc); return err }
	case "int64":
		out := make([]int64, num)
		into = func() error { return r.ReadInt64sInto(num, off, enc, out) }
		alloc = func() error { _, err := r.ReadInt64s(num, off, enc); return err }
	default:
		// Size the character buffer from a first read.
		var offsets []int32
		var chars []byte
		into = func() error {
			if offsets == nil {
				s, err := r.ReadStrings(num, off, enc)
				if err != nil {
					return err
				}
				offsets, chars = s.Offsets, s.Chars
			}
			_, err := r.ReadStringsInto(num, off, enc, offsets, chars)
			return err
		}
		alloc = func() error { _, err := r.ReadStrings(num, off, enc); return err }
	}
	return into, alloc
}

func runBench(cmd *cobra.Command, args []string) error {
	r, err := load(args[0])
	if err != nil {
		return err
	}
	enc, err := benchColumn.resolve(cmd, r)
	if err != nil {
		return err
	}
	pageBytes := r.CountPages(benchColumn.offset).Bytes

	into, alloc := decodeFuncs(r, &benchColumn, enc)
	// Warm up and surface decode errors before timing.
	if err := into(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s: %d values, %s of pages, %d iterations\n",
		benchColumn.typ, enc, benchColumn.num, humanize.IBytes(uint64(pageBytes)), benchIterations)

	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Mode", "Mean", "p50", "p95", "p99", "Max", "Throughput"})
	for _, mode := range []struct {
		name string
		fn   func() error
	}{
		{"preallocated", into},
		{"allocating", alloc},
	} {
		h := newHistogram()
		var total time.Duration
		for i := 0; i < benchIterations; i++ {
			start := time.Now()
			if err := mode.fn(); err != nil {
				return err
			}
			elapsed := time.Since(start)
			total += elapsed
			_ = h.RecordValue(elapsed.Nanoseconds())
		}
		throughput := "-"
		if total > 0 {
			perSec := float64(pageBytes) * float64(benchIterations) / total.Seconds()
			throughput = humanize.IBytes(uint64(perSec)) + "/s"
		}
		table.Append([]string{
			mode.name,
			time.Duration(h.Mean()).String(),
			time.Duration(h.ValueAtQuantile(50)).String(),
			time.Duration(h.ValueAtQuantile(95)).String(),
			time.Duration(h.ValueAtQuantile(99)).String(),
			time.Duration(h.Max()).String(),
			throughput,
		})
	}
	table.Render()
	return nil
}
