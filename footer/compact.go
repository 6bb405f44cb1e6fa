package footer

import (
	"io"

	"github.com/cockroachdb/errors"
	"github.com/kaitai-io/kaitai_struct_go_runtime/kaitai"

	"swparquet/varint"
)

// Thrift compact protocol type ids.
const (
	ctStop   = 0
	ctTrue   = 1
	ctFalse  = 2
	ctByte   = 3
	ctI16    = 4
	ctI32    = 5
	ctI64    = 6
	ctDouble = 7
	ctBinary = 8
	ctList   = 9
	ctSet    = 10
	ctMap    = 11
	ctStruct = 12
)

const maxDepth = 64

// compactReader reads Thrift compact protocol values from a kaitai stream.
type compactReader struct {
	ks    *kaitai.Stream
	depth int
}

func readErr(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return errors.Wrap(ErrCorruption, "footer truncated")
	}
	return err
}

func (c *compactReader) u8() (uint8, error) {
	b, err := c.ks.ReadU1()
	return b, readErr(err)
}

func (c *compactReader) uvarint() (uint64, error) {
	var v uint64
	for i := 0; i < varint.MaxLen64; i++ {
		b, err := c.u8()
		if err != nil {
			return 0, err
		}
		v |= uint64(b&0x7f) << (7 * i)
		if b&0x80 == 0 {
			return v, nil
		}
	}
	return 0, errors.Wrap(ErrCorruption, "varint overflow")
}

func (c *compactReader) i64() (int64, error) {
	u, err := c.uvarint()
	return varint.Unzigzag64(u), err
}

func (c *compactReader) i32() (int32, error) {
	v, err := c.i64()
	if err == nil && int64(int32(v)) != v {
		return 0, errors.Wrapf(ErrCorruption, "i32 out of range: %d", v)
	}
	return int32(v), err
}

func (c *compactReader) binary() ([]byte, error) {
	n, err := c.uvarint()
	if err != nil {
		return nil, err
	}
	pos, err := c.ks.Pos()
	if err != nil {
		return nil, err
	}
	size, err := c.ks.Size()
	if err != nil {
		return nil, err
	}
	if n > uint64(size-pos) {
		return nil, errors.Wrapf(ErrCorruption, "binary of %d bytes at offset %d runs past end of file", n, pos)
	}
	b, err := c.ks.ReadBytes(int(n))
	return b, readErr(err)
}

// fields calls fn for every field of the struct at the cursor. Fields fn
// does not decode, reported by returning false, are skipped.
func (c *compactReader) fields(fn func(id int16, typ uint8) (bool, error)) error {
	if c.depth++; c.depth > maxDepth {
		return errors.Wrap(ErrCorruption, "footer nested too deeply")
	}
	defer func() { c.depth-- }()

	var last int16
	for {
		b, err := c.u8()
		if err != nil {
			return err
		}
		if b == ctStop {
			return nil
		}
		typ := b & 0x0f
		id := last + int16(b>>4)
		if b>>4 == 0 {
			v, err := c.i64()
			if err != nil {
				return err
			}
			id = int16(v)
		}
		last = id
		ok, err := fn(id, typ)
		if err != nil {
			return errors.Wrapf(err, "field %d", id)
		}
		if !ok {
			if err := c.skip(typ, false); err != nil {
				return err
			}
		}
	}
}

// list reads a list or set header and calls fn once per element.
func (c *compactReader) list(fn func(elem uint8) error) error {
	b, err := c.u8()
	if err != nil {
		return err
	}
	elem := b & 0x0f
	size := uint64(b >> 4)
	if size == 15 {
		if size, err = c.uvarint(); err != nil {
			return err
		}
	}
	for i := uint64(0); i < size; i++ {
		if err := fn(elem); err != nil {
			return err
		}
	}
	return nil
}

// skip consumes a value of type typ. Booleans take no bytes as struct
// fields and one byte as collection elements.
func (c *compactReader) skip(typ uint8, inCollection bool) error {
	var err error
	switch typ {
	case ctTrue, ctFalse:
		if inCollection {
			_, err = c.u8()
		}
	case ctByte:
		_, err = c.u8()
	case ctI16, ctI32, ctI64:
		_, err = c.uvarint()
	case ctDouble:
		_, err = c.ks.ReadBytes(8)
		err = readErr(err)
	case ctBinary:
		_, err = c.binary()
	case ctList, ctSet:
		err = c.list(func(elem uint8) error { return c.skip(elem, true) })
	case ctMap:
		var n uint64
		if n, err = c.uvarint(); err != nil || n == 0 {
			return err
		}
		var kv uint8
		if kv, err = c.u8(); err != nil {
			return err
		}
		for i := uint64(0); i < n && err == nil; i++ {
			if err = c.skip(kv>>4, true); err == nil {
				err = c.skip(kv&0x0f, true)
			}
		}
	case ctStruct:
		err = c.fields(func(int16, uint8) (bool, error) { return false, nil })
	default:
		err = errors.Wrapf(ErrCorruption, "unknown compact type %d", typ)
	}
	return err
}

// compactWriter appends Thrift compact protocol values to a buffer.
type compactWriter struct {
	buf  []byte
	last []int16
}

func (w *compactWriter) beginStruct() { w.last = append(w.last, 0) }

func (w *compactWriter) endStruct() {
	w.buf = append(w.buf, ctStop)
	w.last = w.last[:len(w.last)-1]
}

func (w *compactWriter) field(id int16, typ uint8) {
	last := &w.last[len(w.last)-1]
	if d := id - *last; d > 0 && d <= 15 {
		w.buf = append(w.buf, byte(d)<<4|typ)
	} else {
		w.buf = append(w.buf, typ)
		w.buf = varint.AppendVarint64(w.buf, int64(id))
	}
	*last = id
}

func (w *compactWriter) i32Field(id int16, v int32) {
	w.field(id, ctI32)
	w.buf = varint.AppendVarint64(w.buf, int64(v))
}

func (w *compactWriter) i64Field(id int16, v int64) {
	w.field(id, ctI64)
	w.buf = varint.AppendVarint64(w.buf, v)
}

func (w *compactWriter) binary(b []byte) {
	w.buf = varint.AppendUvarint(w.buf, uint64(len(b)))
	w.buf = append(w.buf, b...)
}

func (w *compactWriter) stringField(id int16, s string) {
	w.field(id, ctBinary)
	w.binary([]byte(s))
}

func (w *compactWriter) listHeader(elem uint8, n int) {
	if n < 15 {
		w.buf = append(w.buf, byte(n)<<4|elem)
		return
	}
	w.buf = append(w.buf, 0xf0|elem)
	w.buf = varint.AppendUvarint(w.buf, uint64(n))
}
