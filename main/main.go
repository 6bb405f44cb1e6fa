package main

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/spf13/cobra"

	"swparquet/footer"
	"swparquet/page"
	"swparquet/reader"
)

var (
	logLevel string
	logger   = log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
)

var rootCmd = &cobra.Command{
	Use:               "swparquet [command] (flags)",
	Short:             "DataPageV2 column decoding and inspection tool",
	Long:              ``,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupLogger,
}

func init() {
	cobra.EnableCommandSorting = false
	rootCmd.PersistentFlags().StringVar(
		&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.AddCommand(
		countPagesCmd,
		inspectCmd,
		footerCmd,
		readCmd,
		verifyCmd,
		benchCmd,
		genCmd,
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		level.Error(logger).Log("msg", "command failed", "err", err)
		os.Exit(1)
	}
}

func setupLogger(cmd *cobra.Command, args []string) error {
	var opt level.Option
	switch logLevel {
	case "debug":
		opt = level.AllowDebug()
	case "info":
		opt = level.AllowInfo()
	case "warn":
		opt = level.AllowWarn()
	case "error":
		opt = level.AllowError()
	default:
		return errors.Newf("unknown log level %q", logLevel)
	}
	logger = level.NewFilter(logger, opt)
	return nil
}

// columnFlags selects a column and how to decode it.
type columnFlags struct {
	typ      string
	encoding string
	num      int64
	offset   int32
}

func (c *columnFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(
		&c.typ, "type", "t", "int32", "value type (int32, int64, string)")
	cmd.Flags().StringVarP(
		&c.encoding, "encoding", "e", "delta", "page encoding (plain, delta, delta-length)")
	cmd.Flags().Int64VarP(
		&c.num, "num", "n", 0, "number of values to decode (default: all values of the first column)")
	cmd.Flags().Int32Var(
		&c.offset, "offset", 0, "file offset of the first page (default: from the footer, else 4)")
}

func parseEncoding(s string) (page.Encoding, error) {
	switch s {
	case "plain":
		return page.Plain, nil
	case "delta":
		return page.DeltaBinaryPacked, nil
	case "delta-length":
		return page.DeltaLengthByteArray, nil
	}
	return 0, errors.Newf("unknown encoding %q", s)
}

func checkType(s string) error {
	switch s {
	case "int32", "int64", "string":
		return nil
	}
	return errors.Newf("unknown type %q", s)
}

// resolve fills in the value count and page offset the user left unset
// from the first column chunk in the footer.
func (c *columnFlags) resolve(cmd *cobra.Command, r *reader.Reader) (page.Encoding, error) {
	if err := checkType(c.typ); err != nil {
		return 0, err
	}
	enc, err := parseEncoding(c.encoding)
	if err != nil {
		return 0, err
	}
	numSet, offsetSet := cmd.Flags().Changed("num"), cmd.Flags().Changed("offset")
	if numSet && offsetSet {
		return enc, nil
	}
	m, err := footer.Read(r.Data())
	var col *footer.ColumnChunk
	if err == nil {
		col = m.Column(0, 0)
	}
	if col == nil || col.MetaData == nil {
		if err == nil {
			err = errors.New("footer has no column chunks")
		}
		if !numSet {
			return 0, errors.Wrap(err, "no value count in footer, pass --num")
		}
		level.Warn(logger).Log("msg", "no usable footer, decoding from offset 4", "err", err)
		c.offset = int32(len(footer.Magic))
		return enc, nil
	}
	if !numSet {
		c.num = col.MetaData.NumValues
	}
	if !offsetSet {
		c.offset = int32(col.MetaData.DataPageOffset)
	}
	level.Debug(logger).Log("msg", "column from footer", "num", c.num, "offset", c.offset)
	return enc, nil
}

func load(path string) (*reader.Reader, error) {
	return reader.Load(path, &reader.Options{Logger: logger})
}
