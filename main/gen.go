package main

import (
	"fmt"
	"math/rand"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"github.com/go-kit/log/level"
	"github.com/spf13/cobra"

	"swparquet/writer"
)

var genConfig struct {
	columnFlags
	pageValues int
	crc        bool
	seed       int64
	minLen     int
	maxLen     int
}

var genCmd = &cobra.Command{
	Use:   "gen <out-file>",
	Short: "write a single-column file of random values",
	Args:  cobra.ExactArgs(1),
	RunE:  runGen,
}

func init() {
	genCmd.Flags().StringVarP(
		&genConfig.typ, "type", "t", "int32", "value type (int32, int64, string)")
	genCmd.Flags().StringVarP(
		&genConfig.encoding, "encoding", "e", "delta", "page encoding (plain, delta, delta-length)")
	genCmd.Flags().Int64VarP(
		&genConfig.num, "num", "n", 1000, "number of values to write")
	genCmd.Flags().IntVar(
		&genConfig.pageValues, "page-values", writer.DefaultPageValues, "number of values per page")
	genCmd.Flags().BoolVar(
		&genConfig.crc, "crc", false, "write the crc field of each page header")
	genCmd.Flags().Int64Var(
		&genConfig.seed, "seed", 1, "random seed")
	genCmd.Flags().IntVar(
		&genConfig.minLen, "min-len", 1, "minimum string length")
	genCmd.Flags().IntVar(
		&genConfig.maxLen, "max-len", 16, "maximum string length")
}

// randomDelta mixes small steps with occasional jumps so that miniblock
// widths vary.
func randomDelta(rng *rand.Rand) int64 {
	switch rng.Intn(8) {
	case 0:
		return rng.Int63() - rng.Int63()
	case 1:
		return int64(rng.Int31()) - int64(rng.Int31())
	default:
		return int64(rng.Intn(1024)) - 512
	}
}

func runGen(cmd *cobra.Command, args []string) error {
	c := &genConfig
	if err := checkType(c.typ); err != nil {
		return err
	}
	enc, err := parseEncoding(c.encoding)
	if err != nil {
		return err
	}
	if c.num < 0 {
		return errors.Newf("invalid value count %d", c.num)
	}
	if c.minLen < 0 || c.maxLen < c.minLen {
		return errors.Newf("invalid string length range [%d, %d]", c.minLen, c.maxLen)
	}

	rng := rand.New(rand.NewSource(c.seed))
	opts := &writer.Options{Encoding: enc, PageValues: c.pageValues, CRC: c.crc}
	var data []byte
	switch c.typ {
	case "int32":
		values := make([]int32, c.num)
		var acc int32
		for i := range values {
			acc += int32(randomDelta(rng))
			values[i] = acc
		}
		data, err = writer.Int32s(values, opts)
	case "int64":
		values := make([]int64, c.num)
		var acc int64
		for i := range values {
			acc += randomDelta(rng)
			values[i] = acc
		}
		data, err = writer.Int64s(values, opts)
	case "string":
		values := make([][]byte, c.num)
		for i := range values {
			v := make([]byte, c.minLen+rng.Intn(c.maxLen-c.minLen+1))
			for j := range v {
				v[j] = byte('a' + rng.Intn(26))
			}
			values[i] = v
		}
		data, err = writer.Strings(values, opts)
	}
	if err != nil {
		return err
	}
	if err := os.WriteFile(args[0], data, 0o644); err != nil {
		return err
	}
	level.Info(logger).Log("msg", "wrote file", "path", args[0], "values", c.num, "size", humanize.IBytes(uint64(len(data))))
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d %s values as %s\n", args[0], c.num, c.typ, enc)
	return nil
}
