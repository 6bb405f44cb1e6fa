// Package bitpack packs and unpacks fixed-width unsigned integers.
//
// Values are stored least-significant bit first inside little-endian 32-bit
// words, with no padding between them, which is the layout Parquet uses for
// the miniblocks of DELTA_BINARY_PACKED data. A value may straddle a word
// boundary; at widths above 32 it may touch three words.
package bitpack

// Word is the set of output slot types the unpacker can fill.
type Word interface {
	~uint32 | ~uint64
}

// MaxWidth returns the largest bit width that fits in a slot of type T.
func MaxWidth[T Word]() uint {
	var zero T
	if uint64(^zero) == uint64(^uint32(0)) {
		return 32
	}
	return 64
}

// PackedLen returns the number of bytes n values of the given width occupy.
func PackedLen(n int, width uint) int {
	return (n*int(width) + 7) / 8
}

// Unpack decodes len(dst) values of the given width from src and returns the
// number of bytes they occupy. A width of zero fills dst with zeros and
// consumes nothing.
//
// The caller must ensure width <= MaxWidth[T](). Bytes missing from the end of
// src read as zero, so a short src never causes a panic; callers that need to
// detect truncation compare len(src) against PackedLen first.
func Unpack[T Word](dst []T, src []byte, width uint) int {
	if width == 0 {
		clear(dst)
		return 0
	}
	// At width 64 the shift yields zero and the mask wraps to all ones.
	mask := uint64(1)<<width - 1
	var bit uint
	for i := range dst {
		w := bit / 32
		s := bit % 32
		v := uint64(word(src, w)) >> s
		if s+width > 32 {
			v |= uint64(word(src, w+1)) << (32 - s)
			if s+width > 64 {
				v |= uint64(word(src, w+2)) << (64 - s)
			}
		}
		dst[i] = T(v & mask)
		bit += width
	}
	return PackedLen(len(dst), width)
}

// Pack appends the bit-packed encoding of src at the given width to dst.
// Only the low width bits of each value are kept. The output is padded with
// zero bits to a whole byte.
func Pack[T Word](dst []byte, src []T, width uint) []byte {
	n := PackedLen(len(src), width)
	start := len(dst)
	dst = append(dst, make([]byte, n)...)
	if width == 0 {
		return dst
	}
	out := dst[start:]
	var bit uint
	for _, v := range src {
		u := uint64(v)
		if width < 64 {
			u &= uint64(1)<<width - 1
		}
		for b := uint(0); b < width; {
			byteIdx := (bit + b) / 8
			shift := (bit + b) % 8
			take := min(8-shift, width-b)
			out[byteIdx] |= byte((u>>b)&(1<<take-1)) << shift
			b += take
		}
		bit += width
	}
	return dst
}

// word returns the i-th little-endian 32-bit word of src, zero-filling any
// bytes beyond its end.
func word(src []byte, i uint) uint32 {
	off := int(i) * 4
	if off+4 <= len(src) {
		return uint32(src[off]) | uint32(src[off+1])<<8 | uint32(src[off+2])<<16 | uint32(src[off+3])<<24
	}
	var w uint32
	for j := 0; off+j < len(src) && j < 4; j++ {
		w |= uint32(src[off+j]) << (8 * j)
	}
	return w
}
