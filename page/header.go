// Package page parses DataPageV2 page headers and walks runs of consecutive
// pages in an in-memory Parquet file.
//
// The header parser is not a Thrift decoder. It accepts exactly the field
// sequence a DataPageV2 header is written with and rejects anything else:
//
//	0x15 type                  (i32, field 1)
//	0x15 uncompressed size     (i32, field 2)
//	0x15 compressed size       (i32, field 3)
//	[0x15 crc]                 (i32, field 4, optional)
//	0x5c / 0x4c                (struct, field 8; delta 5 without crc, 4 with)
//	  0x15 num values          (i32, field 1)
//	  0x15 num nulls           (i32, field 2)
//	  0x15 num rows            (i32, field 3)
//	  0x15 encoding            (i32, field 4)
//	  0x15 def levels length   (i32, field 5)
//	  0x15 rep levels length   (i32, field 6)
//	  [0x11 / 0x12]            (bool is_compressed, field 7, optional)
//	  0x00                     (stop)
//	0x00                       (stop)
package page

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"swparquet/varint"
)

// Type is the Parquet PageType enum.
type Type int32

const (
	DataPage       Type = 0
	IndexPage      Type = 1
	DictionaryPage Type = 2
	DataPageV2     Type = 3
)

func (t Type) String() string {
	switch t {
	case DataPage:
		return "DATA_PAGE"
	case IndexPage:
		return "INDEX_PAGE"
	case DictionaryPage:
		return "DICTIONARY_PAGE"
	case DataPageV2:
		return "DATA_PAGE_V2"
	default:
		return fmt.Sprintf("PageType(%d)", int32(t))
	}
}

// Encoding is the Parquet Encoding enum.
type Encoding int32

const (
	Plain                Encoding = 0
	PlainDictionary      Encoding = 2
	RLE                  Encoding = 3
	BitPacked            Encoding = 4
	DeltaBinaryPacked    Encoding = 5
	DeltaLengthByteArray Encoding = 6
	DeltaByteArray       Encoding = 7
	RLEDictionary        Encoding = 8
	ByteStreamSplit      Encoding = 9
)

func (e Encoding) String() string {
	switch e {
	case Plain:
		return "PLAIN"
	case PlainDictionary:
		return "PLAIN_DICTIONARY"
	case RLE:
		return "RLE"
	case BitPacked:
		return "BIT_PACKED"
	case DeltaBinaryPacked:
		return "DELTA_BINARY_PACKED"
	case DeltaLengthByteArray:
		return "DELTA_LENGTH_BYTE_ARRAY"
	case DeltaByteArray:
		return "DELTA_BYTE_ARRAY"
	case RLEDictionary:
		return "RLE_DICTIONARY"
	case ByteStreamSplit:
		return "BYTE_STREAM_SPLIT"
	default:
		return fmt.Sprintf("Encoding(%d)", int32(e))
	}
}

// Field header bytes: the high nibble is the field id delta, the low nibble
// the compact type.
const (
	tagI32        = 0x15
	tagV2         = 0x5c
	tagV2AfterCRC = 0x4c
	tagTrue       = 0x11
	tagFalse      = 0x12
	tagStop       = 0x00
)

var (
	// ErrCorruption is returned when a byte of the header does not match the
	// expected field tag at its position.
	ErrCorruption = errors.New("page: corrupt page header")
	// ErrTruncated is returned when the buffer ends inside a header or a page.
	ErrTruncated = errors.New("page: truncated")
)

// Header is a decoded DataPageV2 page header.
type Header struct {
	Type             Type
	UncompressedSize int32
	CompressedSize   int32
	CRC              int32
	HasCRC           bool
	NumValues        int32
	NumNulls         int32
	NumRows          int32
	Encoding         Encoding
	DefLevelsLen     int32
	RepLevelsLen     int32
	// IsCompressed defaults to true when the field is absent.
	IsCompressed bool
	// Len is the encoded length of the header in bytes.
	Len int32
}

// LevelsLen is the combined length of the level sections at the start of the
// page payload.
func (h *Header) LevelsLen() int32 { return h.DefLevelsLen + h.RepLevelsLen }

type headerParser struct {
	src []byte
	off int
}

func (p *headerParser) tag(want byte, field string) error {
	if p.off >= len(p.src) {
		return errors.Wrapf(ErrTruncated, "reading %s tag at +%d", field, p.off)
	}
	if got := p.src[p.off]; got != want {
		return errors.Wrapf(ErrCorruption, "%s: expected tag 0x%02x at +%d, found 0x%02x", field, want, p.off, got)
	}
	p.off++
	return nil
}

func (p *headerParser) i32(field string) (int32, error) {
	if err := p.tag(tagI32, field); err != nil {
		return 0, err
	}
	v, n, err := varint.Varint32(p.src[p.off:])
	if err != nil {
		if errors.Is(err, varint.ErrTruncated) {
			return 0, errors.Wrapf(ErrTruncated, "%s value at +%d", field, p.off)
		}
		return 0, errors.Mark(errors.Wrapf(err, "%s value at +%d", field, p.off), ErrCorruption)
	}
	p.off += n
	return v, nil
}

func (p *headerParser) peek() (byte, bool) {
	if p.off >= len(p.src) {
		return 0, false
	}
	return p.src[p.off], true
}

// ParseHeader decodes the DataPageV2 header at the start of src.
func ParseHeader(src []byte) (Header, error) {
	var h Header
	err := parseHeader(src, &h)
	return h, err
}

func parseHeader(src []byte, h *Header) error {
	p := headerParser{src: src}
	var err error
	var v int32

	if v, err = p.i32("page type"); err != nil {
		return err
	}
	h.Type = Type(v)
	if h.UncompressedSize, err = p.i32("uncompressed size"); err != nil {
		return err
	}
	if h.CompressedSize, err = p.i32("compressed size"); err != nil {
		return err
	}

	h.HasCRC = false
	h.CRC = 0
	v2Tag := byte(tagV2)
	if b, ok := p.peek(); ok && b == tagI32 {
		if h.CRC, err = p.i32("crc"); err != nil {
			return err
		}
		h.HasCRC = true
		v2Tag = tagV2AfterCRC
	}
	if err := p.tag(v2Tag, "data page header v2"); err != nil {
		return err
	}

	if h.NumValues, err = p.i32("num values"); err != nil {
		return err
	}
	if h.NumNulls, err = p.i32("num nulls"); err != nil {
		return err
	}
	if h.NumRows, err = p.i32("num rows"); err != nil {
		return err
	}
	if v, err = p.i32("encoding"); err != nil {
		return err
	}
	h.Encoding = Encoding(v)
	if h.DefLevelsLen, err = p.i32("definition levels byte length"); err != nil {
		return err
	}
	if h.RepLevelsLen, err = p.i32("repetition levels byte length"); err != nil {
		return err
	}

	h.IsCompressed = true
	if b, ok := p.peek(); ok && (b == tagTrue || b == tagFalse) {
		h.IsCompressed = b == tagTrue
		p.off++
	}

	if err := p.tag(tagStop, "data page header v2 stop"); err != nil {
		return err
	}
	if err := p.tag(tagStop, "page header stop"); err != nil {
		return err
	}
	if h.CompressedSize < 0 || h.NumValues < 0 || h.DefLevelsLen < 0 || h.RepLevelsLen < 0 ||
		int64(h.DefLevelsLen)+int64(h.RepLevelsLen) > int64(h.CompressedSize) {
		return errors.Wrapf(ErrCorruption, "inconsistent sizes: compressed=%d values=%d levels=%d+%d",
			h.CompressedSize, h.NumValues, h.DefLevelsLen, h.RepLevelsLen)
	}
	h.Len = int32(p.off)
	return nil
}
