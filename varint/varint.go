// Package varint implements the base-128 and zigzag integer encodings used by
// the Thrift compact protocol and by Parquet's delta encodings.
//
// All decoders work on a byte slice positioned at the first byte of the
// integer and report how many bytes they consumed. They never read past the
// end of the slice.
package varint

import "github.com/cockroachdb/errors"

const (
	// MaxLen32 is the maximum number of bytes of a 32-bit varint.
	MaxLen32 = 5
	// MaxLen64 is the maximum number of bytes of a 64-bit varint.
	MaxLen64 = 10
)

var (
	// ErrTruncated is returned when the input ends before the last byte of a
	// varint.
	ErrTruncated = errors.New("varint: truncated")
	// ErrOverflow is returned when the continuation bit is still set on the
	// last byte a varint of the requested width may occupy.
	ErrOverflow = errors.New("varint: overflow")
)

// Uvarint32 decodes an unsigned varint of at most MaxLen32 bytes. Payload
// bits beyond bit 31 in the fifth byte are dropped.
func Uvarint32(src []byte) (uint32, int, error) {
	var v uint32
	for i := 0; i < MaxLen32; i++ {
		if i >= len(src) {
			return 0, 0, errors.Wrapf(ErrTruncated, "after %d bytes", i)
		}
		b := src[i]
		v |= uint32(b&0x7f) << (7 * i)
		if b&0x80 == 0 {
			return v, i + 1, nil
		}
	}
	return 0, 0, ErrOverflow
}

// Uvarint64 decodes an unsigned varint of at most MaxLen64 bytes.
func Uvarint64(src []byte) (uint64, int, error) {
	var v uint64
	for i := 0; i < MaxLen64; i++ {
		if i >= len(src) {
			return 0, 0, errors.Wrapf(ErrTruncated, "after %d bytes", i)
		}
		b := src[i]
		v |= uint64(b&0x7f) << (7 * i)
		if b&0x80 == 0 {
			return v, i + 1, nil
		}
	}
	return 0, 0, ErrOverflow
}

// Varint32 decodes a zigzag-encoded signed varint of at most MaxLen32 bytes.
func Varint32(src []byte) (int32, int, error) {
	u, n, err := Uvarint32(src)
	if err != nil {
		return 0, 0, err
	}
	return Unzigzag32(u), n, nil
}

// Varint64 decodes a zigzag-encoded signed varint of at most MaxLen64 bytes.
func Varint64(src []byte) (int64, int, error) {
	u, n, err := Uvarint64(src)
	if err != nil {
		return 0, 0, err
	}
	return Unzigzag64(u), n, nil
}

// Skip returns the length of the varint at the start of src without decoding
// it. The 64-bit cap applies.
func Skip(src []byte) (int, error) {
	for i := 0; i < MaxLen64; i++ {
		if i >= len(src) {
			return 0, errors.Wrapf(ErrTruncated, "after %d bytes", i)
		}
		if src[i]&0x80 == 0 {
			return i + 1, nil
		}
	}
	return 0, ErrOverflow
}

// Zigzag32 folds the sign of v into the low bit.
func Zigzag32(v int32) uint32 { return uint32(v<<1) ^ uint32(v>>31) }

// Unzigzag32 is the inverse of Zigzag32.
func Unzigzag32(u uint32) int32 { return int32(u>>1) ^ -int32(u&1) }

// Zigzag64 folds the sign of v into the low bit.
func Zigzag64(v int64) uint64 { return uint64(v<<1) ^ uint64(v>>63) }

// Unzigzag64 is the inverse of Zigzag64.
func Unzigzag64(u uint64) int64 { return int64(u>>1) ^ -int64(u&1) }

// AppendUvarint appends the minimal base-128 encoding of v.
func AppendUvarint(dst []byte, v uint64) []byte {
	for v >= 0x80 {
		dst = append(dst, byte(v)|0x80)
		v >>= 7
	}
	return append(dst, byte(v))
}

// AppendVarint32 appends the zigzag varint encoding of v.
func AppendVarint32(dst []byte, v int32) []byte {
	return AppendUvarint(dst, uint64(Zigzag32(v)))
}

// AppendVarint64 appends the zigzag varint encoding of v.
func AppendVarint64(dst []byte, v int64) []byte {
	return AppendUvarint(dst, Zigzag64(v))
}

// Len returns the number of bytes AppendUvarint uses for v.
func Len(v uint64) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}
