package main

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/go-kit/log/level"
	"github.com/spf13/cobra"

	"swparquet/page"
	"swparquet/reader"
	"swparquet/reference"
)

var (
	readColumn columnFlags
	readHead   int
	readOut    string

	verifyColumn    columnFlags
	verifyRefColumn int
)

var readCmd = &cobra.Command{
	Use:   "read <file>",
	Short: "decode a column and print its first values",
	Args:  cobra.ExactArgs(1),
	RunE:  runRead,
}

var verifyCmd = &cobra.Command{
	Use:   "verify <file> <reference-file>",
	Short: "compare a decoded column with the same column read by parquet-go",
	Long: `
Decodes the column of <file> and compares it value by value with column
--ref-column of <reference-file> read through parquet-go. Both arguments may
name the same file.
`,
	Args: cobra.ExactArgs(2),
	RunE: runVerify,
}

func init() {
	readColumn.register(readCmd)
	readCmd.Flags().IntVar(
		&readHead, "head", 20, "number of values to print")
	readCmd.Flags().StringVarP(
		&readOut, "out", "o", "", "write the decoded values to this file (little-endian integers, or the string bytes)")

	verifyColumn.register(verifyCmd)
	verifyCmd.Flags().IntVar(
		&verifyRefColumn, "ref-column", 0, "column index in the reference file")
}

// column is a decoded column of any supported type.
type column struct {
	typ     string
	ints32  []int32
	ints64  []int64
	strings reader.Strings
}

func (c *column) len() int {
	switch c.typ {
	case "int32":
		return len(c.ints32)
	case "int64":
		return len(c.ints64)
	}
	return c.strings.Len()
}

func (c *column) format(i int) string {
	switch c.typ {
	case "int32":
		return strconv.FormatInt(int64(c.ints32[i]), 10)
	case "int64":
		return strconv.FormatInt(c.ints64[i], 10)
	}
	return strconv.Quote(string(c.strings.At(i)))
}

func (c *column) writeTo(w io.Writer) error {
	var buf []byte
	switch c.typ {
	case "int32":
		buf = make([]byte, 0, 4*len(c.ints32))
		for _, v := range c.ints32 {
			buf = binary.LittleEndian.AppendUint32(buf, uint32(v))
		}
	case "int64":
		buf = make([]byte, 0, 8*len(c.ints64))
		for _, v := range c.ints64 {
			buf = binary.LittleEndian.AppendUint64(buf, uint64(v))
		}
	default:
		buf = c.strings.Chars
	}
	_, err := w.Write(buf)
	return err
}

func decodeColumn(r *reader.Reader, c *columnFlags, enc page.Encoding) (*column, error) {
	col := column{typ: c.typ}
	var err error
	switch c.typ {
	case "int32":
		col.ints32, err = r.ReadInt32s(c.num, c.offset, enc)
	case "int64":
		col.ints64, err = r.ReadInt64s(c.num, c.offset, enc)
	case "string":
		col.strings, err = r.ReadStrings(c.num, c.offset, enc)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %d %s values at offset %d", c.num, c.typ, c.offset)
	}
	return &col, nil
}

func runRead(cmd *cobra.Command, args []string) error {
	r, err := load(args[0])
	if err != nil {
		return err
	}
	enc, err := readColumn.resolve(cmd, r)
	if err != nil {
		return err
	}
	col, err := decodeColumn(r, &readColumn, enc)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	n := min(readHead, col.len())
	for i := 0; i < n; i++ {
		fmt.Fprintf(out, "%d\t%s\n", i, col.format(i))
	}
	if n < col.len() {
		fmt.Fprintf(out, "...\t(%d more)\n", col.len()-n)
	}
	fmt.Fprintf(out, "\nTotal values decoded: %d\n", col.len())

	if readOut == "" {
		return nil
	}
	f, err := os.Create(readOut)
	if err != nil {
		return err
	}
	if err := col.writeTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func runVerify(cmd *cobra.Command, args []string) error {
	r, err := load(args[0])
	if err != nil {
		return err
	}
	enc, err := verifyColumn.resolve(cmd, r)
	if err != nil {
		return err
	}
	got, err := decodeColumn(r, &verifyColumn, enc)
	if err != nil {
		return err
	}
	refData, err := os.ReadFile(args[1])
	if err != nil {
		return err
	}
	want, err := readReference(refData, verifyColumn.typ, verifyRefColumn)
	if err != nil {
		return errors.Wrap(err, "reference read")
	}

	out := cmd.OutOrStdout()
	if i, ok := compareColumns(got, want); !ok {
		fmt.Fprintln(out, "Test failed")
		return errors.Newf("columns differ at value %d of %d decoded and %d expected", i, got.len(), want.len())
	}
	level.Debug(logger).Log("msg", "columns match", "values", got.len())
	fmt.Fprintln(out, "Test passed!")
	return nil
}

// readReference reads the whole reference column. Its values are compared
// with the prefix the decoder produced.
func readReference(data []byte, typ string, index int) (*column, error) {
	col := column{typ: typ}
	var err error
	switch typ {
	case "int32":
		col.ints32, err = reference.ReadInt32s(data, index)
	case "int64":
		col.ints64, err = reference.ReadInt64s(data, index)
	case "string":
		var values [][]byte
		values, err = reference.ReadStrings(data, index)
		col.strings.Offsets = make([]int32, len(values)+1)
		for i, v := range values {
			col.strings.Chars = append(col.strings.Chars, v...)
			col.strings.Offsets[i+1] = int32(len(col.strings.Chars))
		}
	}
	return &col, err
}

// compareColumns reports whether every decoded value equals the reference
// value at the same index, and the first index where they differ.
func compareColumns(got, want *column) (int, bool) {
	if got.len() > want.len() {
		return want.len(), false
	}
	for i := 0; i < got.len(); i++ {
		if got.format(i) != want.format(i) {
			return i, false
		}
	}
	return got.len(), true
}
