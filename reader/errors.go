package reader

import (
	"github.com/cockroachdb/errors"

	"swparquet/delta"
	"swparquet/page"
	"swparquet/varint"
)

var (
	// ErrCorruption marks structural mismatches: a field tag, stop byte or
	// delta header constant that does not match, a bit width wider than the
	// value type, or a page whose contents disagree with its header.
	ErrCorruption = errors.New("parquet: corruption")
	// ErrTruncated marks reads that run off the end of the file.
	ErrTruncated = errors.New("parquet: truncated")
	// ErrUnimplemented is returned for an encoding and target pair the
	// decoder does not support.
	ErrUnimplemented = errors.New("parquet: unimplemented")
	// ErrBufferTooSmall is returned when an output buffer cannot hold the
	// requested values, or when a request exceeds Options.MaxValues.
	ErrBufferTooSmall = errors.New("parquet: output buffer too small")
	// ErrEncodingMismatch is returned when a page is not encoded the way the
	// caller asked for. It is also marked ErrCorruption.
	ErrEncodingMismatch = errors.New("parquet: page encoding mismatch")
)

// classify marks errors from the lower level packages with this package's
// sentinels.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, page.ErrCorruption), errors.Is(err, delta.ErrCorruption),
		errors.Is(err, varint.ErrOverflow):
		return errors.Mark(err, ErrCorruption)
	case errors.Is(err, page.ErrTruncated), errors.Is(err, delta.ErrTruncated),
		errors.Is(err, varint.ErrTruncated):
		return errors.Mark(err, ErrTruncated)
	}
	return err
}

func encodingMismatch(off int, got, want page.Encoding) error {
	err := errors.Wrapf(ErrEncodingMismatch, "page at offset %d is %s, expected %s", off, got, want)
	return errors.Mark(err, ErrCorruption)
}
