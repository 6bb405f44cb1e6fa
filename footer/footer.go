// Package footer reads and writes the FileMetaData footer of a Parquet file.
//
// The footer is the Thrift compact encoding of FileMetaData followed by its
// length as a little-endian uint32 and the magic number:
//
//	PAR1 <column chunks> <FileMetaData> <footer length> PAR1
//
// Only the fields the tools need are decoded; every other field is skipped.
package footer

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/kaitai-io/kaitai_struct_go_runtime/kaitai"

	"swparquet/varint"
)

// Magic starts and ends every Parquet file.
const Magic = "PAR1"

// ErrCorruption is returned when the footer cannot be decoded.
var ErrCorruption = errors.New("footer: corrupt footer")

// Read decodes the footer of the Parquet file held in data.
func Read(data []byte) (*FileMetaData, error) {
	size := int64(len(data))
	if size < 12 {
		return nil, errors.Wrapf(ErrCorruption, "file of %d bytes is too small", size)
	}
	ks := kaitai.NewStream(bytes.NewReader(data))
	head, err := ks.ReadBytes(4)
	if err != nil {
		return nil, readErr(err)
	}
	if string(head) != Magic {
		return nil, errors.Wrapf(ErrCorruption, "invalid magic at start: %q", head)
	}
	if _, err := ks.Seek(size-8, io.SeekStart); err != nil {
		return nil, err
	}
	footerLen, err := ks.ReadU4le()
	if err != nil {
		return nil, readErr(err)
	}
	tail, err := ks.ReadBytes(4)
	if err != nil {
		return nil, readErr(err)
	}
	if string(tail) != Magic {
		return nil, errors.Wrapf(ErrCorruption, "invalid magic at end: %q", tail)
	}
	start := size - 8 - int64(footerLen)
	if start < 4 {
		return nil, errors.Wrapf(ErrCorruption, "footer length %d exceeds file of %d bytes", footerLen, size)
	}
	if _, err := ks.Seek(start, io.SeekStart); err != nil {
		return nil, err
	}

	c := &compactReader{ks: ks}
	m, err := decodeFileMetaData(c)
	if err != nil {
		return nil, errors.Wrapf(err, "footer at offset %d", start)
	}
	if pos, err := ks.Pos(); err != nil {
		return nil, err
	} else if pos != size-8 {
		return nil, errors.Wrapf(ErrCorruption, "footer at offset %d ends at %d, expected %d", start, pos, size-8)
	}
	return m, nil
}

func decodeFileMetaData(c *compactReader) (*FileMetaData, error) {
	meta := &FileMetaData{}
	err := c.fields(func(id int16, typ uint8) (bool, error) {
		var err error
		switch {
		case id == 1 && typ == ctI32: // version
			meta.Version, err = c.i32()
		case id == 2 && typ == ctList: // schema: list<SchemaElement>
			err = c.list(func(elem uint8) error {
				if elem != ctStruct {
					return c.skip(elem, true)
				}
				se, err := decodeSchemaElement(c)
				meta.Schema = append(meta.Schema, se)
				return err
			})
		case id == 3 && typ == ctI64: // num_rows
			meta.NumRows, err = c.i64()
		case id == 4 && typ == ctList: // row_groups: list<RowGroup>
			err = c.list(func(elem uint8) error {
				if elem != ctStruct {
					return c.skip(elem, true)
				}
				rg, err := decodeRowGroup(c)
				meta.RowGroups = append(meta.RowGroups, rg)
				return err
			})
		case id == 6 && typ == ctBinary: // created_by
			var b []byte
			b, err = c.binary()
			meta.CreatedBy = string(b)
		default:
			return false, nil
		}
		return true, err
	})
	return meta, err
}

func optI32(c *compactReader) (*int32, error) {
	v, err := c.i32()
	return &v, err
}

func optI64(c *compactReader) (*int64, error) {
	v, err := c.i64()
	return &v, err
}

func decodeSchemaElement(c *compactReader) (SchemaElement, error) {
	var out SchemaElement
	err := c.fields(func(id int16, typ uint8) (bool, error) {
		var err error
		switch {
		case id == 1 && typ == ctI32: // type
			var v int32
			v, err = c.i32()
			t := Type(v)
			out.Type = &t
		case id == 2 && typ == ctI32: // type_length
			out.TypeLength, err = optI32(c)
		case id == 3 && typ == ctI32: // repetition_type
			out.RepetitionType, err = optI32(c)
		case id == 4 && typ == ctBinary: // name
			var b []byte
			b, err = c.binary()
			out.Name = string(b)
		case id == 5 && typ == ctI32: // num_children
			out.NumChildren, err = optI32(c)
		case id == 6 && typ == ctI32: // converted_type
			out.ConvertedType, err = optI32(c)
		default:
			return false, nil
		}
		return true, err
	})
	return out, err
}

func decodeRowGroup(c *compactReader) (RowGroup, error) {
	var out RowGroup
	err := c.fields(func(id int16, typ uint8) (bool, error) {
		var err error
		switch {
		case id == 1 && typ == ctList: // columns: list<ColumnChunk>
			err = c.list(func(elem uint8) error {
				if elem != ctStruct {
					return c.skip(elem, true)
				}
				cc, err := decodeColumnChunk(c)
				out.Columns = append(out.Columns, cc)
				return err
			})
		case id == 2 && typ == ctI64: // total_byte_size
			out.TotalByteSize, err = c.i64()
		case id == 3 && typ == ctI64: // num_rows
			out.NumRows, err = c.i64()
		case id == 5 && typ == ctI64: // file_offset
			out.FileOffset, err = optI64(c)
		case id == 6 && typ == ctI64: // total_compressed_size
			out.TotalCompressedSize, err = optI64(c)
		default:
			return false, nil
		}
		return true, err
	})
	return out, err
}

func decodeColumnChunk(c *compactReader) (ColumnChunk, error) {
	var out ColumnChunk
	err := c.fields(func(id int16, typ uint8) (bool, error) {
		var err error
		switch {
		case id == 1 && typ == ctBinary: // file_path
			var b []byte
			b, err = c.binary()
			out.FilePath = string(b)
		case id == 2 && typ == ctI64: // file_offset
			out.FileOffset, err = c.i64()
		case id == 3 && typ == ctStruct: // meta_data
			out.MetaData, err = decodeColumnMetaData(c)
		default:
			return false, nil
		}
		return true, err
	})
	return out, err
}

func decodeColumnMetaData(c *compactReader) (*ColumnMetaData, error) {
	out := &ColumnMetaData{}
	err := c.fields(func(id int16, typ uint8) (bool, error) {
		var err error
		switch {
		case id == 1 && typ == ctI32: // type
			var v int32
			v, err = c.i32()
			out.Type = Type(v)
		case id == 2 && typ == ctList: // encodings: list<Encoding>
			err = c.list(func(elem uint8) error {
				if elem != ctI32 {
					return c.skip(elem, true)
				}
				v, err := c.i32()
				out.Encodings = append(out.Encodings, v)
				return err
			})
		case id == 3 && typ == ctList: // path_in_schema: list<string>
			err = c.list(func(elem uint8) error {
				if elem != ctBinary {
					return c.skip(elem, true)
				}
				b, err := c.binary()
				out.PathInSchema = append(out.PathInSchema, string(b))
				return err
			})
		case id == 4 && typ == ctI32: // codec
			out.Codec, err = c.i32()
		case id == 5 && typ == ctI64: // num_values
			out.NumValues, err = c.i64()
		case id == 6 && typ == ctI64: // total_uncompressed_size
			out.TotalUncompressedSize, err = c.i64()
		case id == 7 && typ == ctI64: // total_compressed_size
			out.TotalCompressedSize, err = c.i64()
		case id == 9 && typ == ctI64: // data_page_offset
			out.DataPageOffset, err = c.i64()
		case id == 10 && typ == ctI64: // index_page_offset
			out.IndexPageOffset, err = optI64(c)
		case id == 11 && typ == ctI64: // dictionary_page_offset
			out.DictionaryPageOffset, err = optI64(c)
		default:
			return false, nil
		}
		return true, err
	})
	return out, err
}

// Append appends the encoding of m, its length and the trailing magic number
// to dst, completing a Parquet file whose column chunks dst already holds.
func Append(dst []byte, m *FileMetaData) []byte {
	w := compactWriter{buf: dst}
	start := len(dst)
	encodeFileMetaData(&w, m)
	dst = binary.LittleEndian.AppendUint32(w.buf, uint32(len(w.buf)-start))
	return append(dst, Magic...)
}

func encodeFileMetaData(w *compactWriter, m *FileMetaData) {
	w.beginStruct()
	w.i32Field(1, m.Version)
	w.field(2, ctList)
	w.listHeader(ctStruct, len(m.Schema))
	for i := range m.Schema {
		encodeSchemaElement(w, &m.Schema[i])
	}
	w.i64Field(3, m.NumRows)
	w.field(4, ctList)
	w.listHeader(ctStruct, len(m.RowGroups))
	for i := range m.RowGroups {
		encodeRowGroup(w, &m.RowGroups[i])
	}
	if m.CreatedBy != "" {
		w.stringField(6, m.CreatedBy)
	}
	w.endStruct()
}

func encodeSchemaElement(w *compactWriter, e *SchemaElement) {
	w.beginStruct()
	if e.Type != nil {
		w.i32Field(1, int32(*e.Type))
	}
	if e.TypeLength != nil {
		w.i32Field(2, *e.TypeLength)
	}
	if e.RepetitionType != nil {
		w.i32Field(3, *e.RepetitionType)
	}
	w.stringField(4, e.Name)
	if e.NumChildren != nil {
		w.i32Field(5, *e.NumChildren)
	}
	if e.ConvertedType != nil {
		w.i32Field(6, *e.ConvertedType)
	}
	w.endStruct()
}

func encodeRowGroup(w *compactWriter, rg *RowGroup) {
	w.beginStruct()
	w.field(1, ctList)
	w.listHeader(ctStruct, len(rg.Columns))
	for i := range rg.Columns {
		encodeColumnChunk(w, &rg.Columns[i])
	}
	w.i64Field(2, rg.TotalByteSize)
	w.i64Field(3, rg.NumRows)
	if rg.FileOffset != nil {
		w.i64Field(5, *rg.FileOffset)
	}
	if rg.TotalCompressedSize != nil {
		w.i64Field(6, *rg.TotalCompressedSize)
	}
	w.endStruct()
}

func encodeColumnChunk(w *compactWriter, cc *ColumnChunk) {
	w.beginStruct()
	if cc.FilePath != "" {
		w.stringField(1, cc.FilePath)
	}
	w.i64Field(2, cc.FileOffset)
	if md := cc.MetaData; md != nil {
		w.field(3, ctStruct)
		w.beginStruct()
		w.i32Field(1, int32(md.Type))
		w.field(2, ctList)
		w.listHeader(ctI32, len(md.Encodings))
		for _, e := range md.Encodings {
			w.buf = varint.AppendVarint64(w.buf, int64(e))
		}
		w.field(3, ctList)
		w.listHeader(ctBinary, len(md.PathInSchema))
		for _, p := range md.PathInSchema {
			w.binary([]byte(p))
		}
		w.i32Field(4, md.Codec)
		w.i64Field(5, md.NumValues)
		w.i64Field(6, md.TotalUncompressedSize)
		w.i64Field(7, md.TotalCompressedSize)
		w.i64Field(9, md.DataPageOffset)
		if md.IndexPageOffset != nil {
			w.i64Field(10, *md.IndexPageOffset)
		}
		if md.DictionaryPageOffset != nil {
			w.i64Field(11, *md.DictionaryPageOffset)
		}
		w.endStruct()
	}
	w.endStruct()
}
