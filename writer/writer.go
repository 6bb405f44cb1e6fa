// Package writer produces single-column Parquet files made of uncompressed
// DataPageV2 pages, the shape the reader decodes. It stands in for a general
// purpose writer configured with version 2 pages, no dictionary, no
// statistics and no compression.
package writer

import (
	"encoding/binary"
	"hash/crc32"
	"unsafe"

	"github.com/cockroachdb/errors"

	"swparquet/delta"
	"swparquet/footer"
	"swparquet/page"
)

// DefaultPageValues is the default number of values per page.
const DefaultPageValues = 1024

// Options configures the files the writer produces.
type Options struct {
	// Encoding of every page. PLAIN or DELTA_BINARY_PACKED for integers,
	// DELTA_LENGTH_BYTE_ARRAY for strings.
	Encoding page.Encoding
	// PageValues is the number of values per page; the last page may hold
	// fewer.
	PageValues int
	// CRC writes the crc field of every page header.
	CRC bool
	// IsCompressed, when set, writes the is_compressed flag of every page
	// header with its value.
	IsCompressed *bool
	// NoFooter leaves out the footer and trailing magic number.
	NoFooter bool
	// Column is the column name in the schema. Defaults to "v".
	Column string
}

// EnsureDefaults ensures that the default values for all options are set if a
// valid value was not already specified.
func (o *Options) EnsureDefaults() *Options {
	if o == nil {
		o = &Options{}
	}
	if o.PageValues <= 0 {
		o.PageValues = DefaultPageValues
	}
	if o.Column == "" {
		o.Column = "v"
	}
	return o
}

// Int32s returns a file holding values as an INT32 column.
func Int32s(values []int32, opts *Options) ([]byte, error) {
	return ints(footer.Int32, values, opts)
}

// Int64s returns a file holding values as an INT64 column.
func Int64s(values []int64, opts *Options) ([]byte, error) {
	return ints(footer.Int64, values, opts)
}

func ints[S delta.Integer](typ footer.Type, values []S, opts *Options) ([]byte, error) {
	opts = opts.EnsureDefaults()
	var encode func(dst []byte, v []S) []byte
	switch opts.Encoding {
	case page.Plain:
		encode = appendPlain[S]
	case page.DeltaBinaryPacked:
		encode = delta.Encode[S]
	default:
		return nil, errors.Newf("cannot write %s columns as %s", typ, opts.Encoding)
	}
	return write(typ, len(values), opts, func(dst []byte, lo, hi int) []byte {
		return encode(dst, values[lo:hi])
	}), nil
}

// Strings returns a file holding values as a BYTE_ARRAY column.
func Strings(values [][]byte, opts *Options) ([]byte, error) {
	opts = opts.EnsureDefaults()
	if opts.Encoding != page.DeltaLengthByteArray {
		return nil, errors.Newf("cannot write %s columns as %s", footer.ByteArray, opts.Encoding)
	}
	lengths := make([]int32, len(values))
	for i, v := range values {
		lengths[i] = int32(len(v))
	}
	return write(footer.ByteArray, len(values), opts, func(dst []byte, lo, hi int) []byte {
		dst = delta.Encode(dst, lengths[lo:hi])
		for _, v := range values[lo:hi] {
			dst = append(dst, v...)
		}
		return dst
	}), nil
}

func appendPlain[S delta.Integer](dst []byte, values []S) []byte {
	for _, v := range values {
		if unsafe.Sizeof(v) == 4 {
			dst = binary.LittleEndian.AppendUint32(dst, uint32(v))
		} else {
			dst = binary.LittleEndian.AppendUint64(dst, uint64(v))
		}
	}
	return dst
}

// write lays out the magic number, the pages and the footer. encodePage
// appends the payload of the values in [lo, hi).
func write(typ footer.Type, n int, opts *Options, encodePage func(dst []byte, lo, hi int) []byte) []byte {
	buf := []byte(footer.Magic)
	var payload []byte
	for lo := 0; lo < n || lo == 0; lo += opts.PageValues {
		hi := min(n, lo+opts.PageValues)
		payload = encodePage(payload[:0], lo, hi)
		h := page.Header{
			Type:             page.DataPageV2,
			UncompressedSize: int32(len(payload)),
			CompressedSize:   int32(len(payload)),
			NumValues:        int32(hi - lo),
			NumRows:          int32(hi - lo),
			Encoding:         opts.Encoding,
		}
		if opts.CRC {
			h.HasCRC = true
			h.CRC = int32(crc32.ChecksumIEEE(payload))
		}
		buf = page.AppendHeader(buf, &h, opts.IsCompressed)
		buf = append(buf, payload...)
		if n == 0 {
			break
		}
	}
	if opts.NoFooter {
		return buf
	}

	chunkSize := int64(len(buf) - len(footer.Magic))
	rep := footer.Required
	root := int32(1)
	offset := int64(len(footer.Magic))
	col := footer.SchemaElement{Type: &typ, RepetitionType: &rep, Name: opts.Column}
	if typ == footer.ByteArray {
		utf8 := footer.ConvertedUTF8
		col.ConvertedType = &utf8
	}
	m := &footer.FileMetaData{
		Version: 1,
		Schema:  []footer.SchemaElement{{Name: "schema", NumChildren: &root}, col},
		NumRows: int64(n),
		RowGroups: []footer.RowGroup{{
			Columns: []footer.ColumnChunk{{
				FileOffset: offset,
				MetaData: &footer.ColumnMetaData{
					Type:                  typ,
					Encodings:             []int32{int32(opts.Encoding)},
					PathInSchema:          []string{opts.Column},
					NumValues:             int64(n),
					TotalUncompressedSize: chunkSize,
					TotalCompressedSize:   chunkSize,
					DataPageOffset:        offset,
				},
			}},
			TotalByteSize:       chunkSize,
			NumRows:             int64(n),
			FileOffset:          &offset,
			TotalCompressedSize: &chunkSize,
		}},
		CreatedBy: "swparquet",
	}
	return footer.Append(buf, m)
}
