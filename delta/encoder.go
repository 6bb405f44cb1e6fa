package delta

import (
	"math/bits"
	"unsafe"

	"swparquet/bitpack"
	"swparquet/varint"
)

// Integer is the set of column types the encoder accepts.
type Integer interface {
	~int32 | ~int64
}

// Encode appends the DELTA_BINARY_PACKED encoding of values to dst. Deltas
// wrap at the width of S. Each miniblock is packed at the narrowest width
// that holds its deltas after the block's minimum is subtracted.
func Encode[S Integer](dst []byte, values []S) []byte {
	dst = varint.AppendUvarint(dst, BlockSize)
	dst = varint.AppendUvarint(dst, MiniblocksPerBlock)
	dst = varint.AppendUvarint(dst, uint64(len(values)))
	if len(values) == 0 {
		return varint.AppendVarint64(dst, 0)
	}
	dst = varint.AppendVarint64(dst, int64(values[0]))

	var deltas [BlockSize]S
	var packed [MiniblockSize]uint64
	for i := 1; i < len(values); i += BlockSize {
		n := min(BlockSize, len(values)-i)
		minDelta := values[i] - values[i-1]
		for j := 0; j < n; j++ {
			deltas[j] = values[i+j] - values[i+j-1]
			minDelta = min(minDelta, deltas[j])
		}

		var widths [MiniblocksPerBlock]uint8
		used := (n + MiniblockSize - 1) / MiniblockSize
		for m := 0; m < used; m++ {
			var acc uint64
			for j := m * MiniblockSize; j < min(n, (m+1)*MiniblockSize); j++ {
				acc |= unsigned(deltas[j] - minDelta)
			}
			widths[m] = uint8(bits.Len64(acc))
		}

		dst = varint.AppendVarint64(dst, int64(minDelta))
		dst = append(dst, widths[:]...)
		for m := 0; m < used; m++ {
			clear(packed[:])
			for j := m * MiniblockSize; j < min(n, (m+1)*MiniblockSize); j++ {
				packed[j-m*MiniblockSize] = unsigned(deltas[j] - minDelta)
			}
			dst = bitpack.Pack(dst, packed[:], uint(widths[m]))
		}
	}
	return dst
}

// unsigned reinterprets v as an unsigned integer of the same width.
func unsigned[S Integer](v S) uint64 {
	if unsafe.Sizeof(v) == 4 {
		return uint64(uint32(v))
	}
	return uint64(v)
}
