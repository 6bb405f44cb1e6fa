// Package delta decodes and encodes Parquet DELTA_BINARY_PACKED streams.
//
// A stream starts with a header
//
//	<block size in values> <miniblocks per block> <total value count> <first value>
//
// followed by blocks, each made of
//
//	<min delta> <bit width of each miniblock> <miniblocks>
//
// All header integers are varints, the first value and min delta are
// zigzag-encoded. Every miniblock that holds at least one value is bit-packed
// at its width over a full MiniblockSize values. Miniblocks past the last
// value have a width byte but no body.
//
// Only the block geometry written by common Parquet writers is accepted:
// 128 values per block in 4 miniblocks of 32.
package delta

import (
	"github.com/cockroachdb/errors"

	"swparquet/varint"
)

const (
	// BlockSize is the number of deltas in a block.
	BlockSize = 128
	// MiniblocksPerBlock is the number of miniblocks in a block.
	MiniblocksPerBlock = 4
	// MiniblockSize is the number of deltas in a miniblock.
	MiniblockSize = BlockSize / MiniblocksPerBlock
)

var (
	// ErrCorruption is returned when a stream violates the layout: unexpected
	// block geometry, a bit width wider than the value type, or a malformed
	// varint.
	ErrCorruption = errors.New("delta: corrupt stream")
	// ErrTruncated is returned when the stream ends before the data its
	// headers describe.
	ErrTruncated = errors.New("delta: truncated")
)

// Header is the stream header.
type Header struct {
	BlockSize          int
	MiniblocksPerBlock int
	// TotalValues counts the first value and every delta after it.
	TotalValues int64
	FirstValue  int64
	// Len is the encoded length of the header in bytes.
	Len int
}

// BlockHeader is the header of one block.
type BlockHeader struct {
	MinDelta int64
	Widths   [MiniblocksPerBlock]uint8
	// Len is the encoded length of the block header in bytes.
	Len int
}

func wrapVarintErr(err error, field string, off int) error {
	if errors.Is(err, varint.ErrTruncated) {
		return errors.Wrapf(ErrTruncated, "%s at +%d", field, off)
	}
	return errors.Mark(errors.Wrapf(err, "%s at +%d", field, off), ErrCorruption)
}

// ParseHeader decodes the stream header at the start of src.
func ParseHeader(src []byte) (Header, error) {
	var h Header
	off := 0
	bs, n, err := varint.Uvarint32(src)
	if err != nil {
		return h, wrapVarintErr(err, "block size", off)
	}
	off += n
	mb, n, err := varint.Uvarint32(src[off:])
	if err != nil {
		return h, wrapVarintErr(err, "miniblock count", off)
	}
	off += n
	if bs != BlockSize || mb != MiniblocksPerBlock {
		return h, errors.Wrapf(ErrCorruption, "unsupported block geometry %d/%d", bs, mb)
	}
	total, n, err := varint.Uvarint64(src[off:])
	if err != nil {
		return h, wrapVarintErr(err, "total value count", off)
	}
	off += n
	if total > 1<<62 {
		return h, errors.Wrapf(ErrCorruption, "total value count %d", total)
	}
	first, n, err := varint.Varint64(src[off:])
	if err != nil {
		return h, wrapVarintErr(err, "first value", off)
	}
	off += n
	h = Header{
		BlockSize:          int(bs),
		MiniblocksPerBlock: int(mb),
		TotalValues:        int64(total),
		FirstValue:         first,
		Len:                off,
	}
	return h, nil
}

// ParseBlockHeader decodes the block header at the start of src.
func ParseBlockHeader(src []byte) (BlockHeader, error) {
	var b BlockHeader
	minDelta, n, err := varint.Varint64(src)
	if err != nil {
		return b, wrapVarintErr(err, "min delta", 0)
	}
	if len(src) < n+MiniblocksPerBlock {
		return b, errors.Wrapf(ErrTruncated, "miniblock bit widths at +%d", n)
	}
	b.MinDelta = minDelta
	copy(b.Widths[:], src[n:n+MiniblocksPerBlock])
	b.Len = n + MiniblocksPerBlock
	return b, nil
}
