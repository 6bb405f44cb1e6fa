package reader

import (
	"encoding/binary"
	"io"
	"unsafe"

	"github.com/cockroachdb/errors"

	"swparquet/bitpack"
	"swparquet/delta"
	"swparquet/page"
)

// Int is the set of fixed-width column types the reader decodes.
type Int interface {
	int32 | int64
}

func (r *Reader) checkCount(n int64) error {
	if n < 0 || n > r.opts.MaxValues {
		return errors.Wrapf(ErrBufferTooSmall, "cannot read %d values (limit %d)", n, r.opts.MaxValues)
	}
	return nil
}

// ReadPrimInto decodes numValues values of the column whose first page
// starts at fileOffset into out. The encoding of every page must be enc.
// On error out may be partially written.
func ReadPrimInto[T Int](r *Reader, numValues int64, fileOffset int32, enc page.Encoding, out []T) error {
	if err := r.checkCount(numValues); err != nil {
		return err
	}
	if int64(len(out)) < numValues {
		return errors.Wrapf(ErrBufferTooSmall, "%d values requested, output holds %d", numValues, len(out))
	}
	switch out := any(out).(type) {
	case []int32:
		return readPrim(r, numValues, fileOffset, enc, asUnsigned[int32, uint32](out))
	case []int64:
		return readPrim(r, numValues, fileOffset, enc, asUnsigned[int64, uint64](out))
	}
	panic("unreachable")
}

// ReadPrim is like ReadPrimInto but allocates the output.
func ReadPrim[T Int](r *Reader, numValues int64, fileOffset int32, enc page.Encoding) ([]T, error) {
	if err := r.checkCount(numValues); err != nil {
		return nil, err
	}
	out := make([]T, numValues)
	if err := ReadPrimInto(r, numValues, fileOffset, enc, out); err != nil {
		return nil, err
	}
	return out, nil
}

// ReadInt32s decodes an INT32 column.
func (r *Reader) ReadInt32s(numValues int64, fileOffset int32, enc page.Encoding) ([]int32, error) {
	return ReadPrim[int32](r, numValues, fileOffset, enc)
}

// ReadInt64s decodes an INT64 column.
func (r *Reader) ReadInt64s(numValues int64, fileOffset int32, enc page.Encoding) ([]int64, error) {
	return ReadPrim[int64](r, numValues, fileOffset, enc)
}

// ReadInt32sInto decodes an INT32 column into out.
func (r *Reader) ReadInt32sInto(numValues int64, fileOffset int32, enc page.Encoding, out []int32) error {
	return ReadPrimInto(r, numValues, fileOffset, enc, out)
}

// ReadInt64sInto decodes an INT64 column into out.
func (r *Reader) ReadInt64sInto(numValues int64, fileOffset int32, enc page.Encoding, out []int64) error {
	return ReadPrimInto(r, numValues, fileOffset, enc, out)
}

// ReadPrimBytes decodes numValues values of the given width in bits (32 or
// 64) into out as consecutive little-endian integers, the layout of a PLAIN
// page and of the buffers a hardware decoder produces.
func (r *Reader) ReadPrimBytes(width int, numValues int64, fileOffset int32, enc page.Encoding, out []byte) error {
	if err := r.checkCount(numValues); err != nil {
		return err
	}
	if width != 32 && width != 64 {
		return errors.Wrapf(ErrUnimplemented, "%d-bit values", width)
	}
	if need := numValues * int64(width/8); int64(len(out)) < need {
		return errors.Wrapf(ErrBufferTooSmall, "%d values need %d bytes, output holds %d", numValues, need, len(out))
	}
	if width == 32 {
		vals, err := r.ReadInt32s(numValues, fileOffset, enc)
		if err != nil {
			return err
		}
		for i, v := range vals {
			binary.LittleEndian.PutUint32(out[4*i:], uint32(v))
		}
		return nil
	}
	vals, err := r.ReadInt64s(numValues, fileOffset, enc)
	if err != nil {
		return err
	}
	for i, v := range vals {
		binary.LittleEndian.PutUint64(out[8*i:], uint64(v))
	}
	return nil
}

func readPrim[U bitpack.Word](r *Reader, numValues int64, fileOffset int32, enc page.Encoding, out []U) error {
	size := int(unsafe.Sizeof(U(0)))
	if enc != page.Plain && enc != page.DeltaBinaryPacked {
		return errors.Wrapf(ErrUnimplemented, "%s for %d-bit values", enc, size*8)
	}
	p := r.pages(fileOffset, enc)
	var dec delta.Decoder[U]
	var done int64
	for done < numValues {
		h, values, err := p.next(done, numValues)
		if err != nil {
			return err
		}
		switch enc {
		case page.Plain:
			n := min(int64(len(values)/size), numValues-done)
			decodePlain(out[done:done+n], values)
			done += n

		case page.DeltaBinaryPacked:
			want := min(int64(h.NumValues), numValues-done)
			dec.Reset(values)
			n, err := dec.Decode(out[done : done+want])
			if err == io.EOF {
				return errors.Wrapf(ErrCorruption, "page at offset %d declares %d values, delta stream holds %d",
					p.offset, h.NumValues, n)
			} else if err != nil {
				return errors.Wrapf(classify(err), "page at offset %d", p.offset)
			}
			done += want
		}
	}
	return nil
}

func decodePlain[U bitpack.Word](dst []U, src []byte) {
	if unsafe.Sizeof(U(0)) == 4 {
		for i := range dst {
			dst[i] = U(binary.LittleEndian.Uint32(src[4*i:]))
		}
		return
	}
	for i := range dst {
		dst[i] = U(binary.LittleEndian.Uint64(src[8*i:]))
	}
}

// asUnsigned views a slice of signed integers as the unsigned type of the
// same width.
func asUnsigned[S Int, U bitpack.Word](s []S) []U {
	return unsafe.Slice((*U)(unsafe.Pointer(unsafe.SliceData(s))), len(s))
}
