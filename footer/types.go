package footer

import "fmt"

// Type is the Parquet physical type enum.
type Type int32

const (
	Boolean           Type = 0
	Int32             Type = 1
	Int64             Type = 2
	Int96             Type = 3
	Float             Type = 4
	Double            Type = 5
	ByteArray         Type = 6
	FixedLenByteArray Type = 7
)

func (t Type) String() string {
	switch t {
	case Boolean:
		return "BOOLEAN"
	case Int32:
		return "INT32"
	case Int64:
		return "INT64"
	case Int96:
		return "INT96"
	case Float:
		return "FLOAT"
	case Double:
		return "DOUBLE"
	case ByteArray:
		return "BYTE_ARRAY"
	case FixedLenByteArray:
		return "FIXED_LEN_BYTE_ARRAY"
	default:
		return fmt.Sprintf("Type(%d)", int32(t))
	}
}

// Repetition values of SchemaElement.RepetitionType.
const (
	Required int32 = 0
	Optional int32 = 1
	Repeated int32 = 2
)

// ConvertedUTF8 is the converted type of string columns.
const ConvertedUTF8 int32 = 0

// FileMetaData is the subset of the Parquet footer the tools use.
type FileMetaData struct {
	Version   int32
	Schema    []SchemaElement
	NumRows   int64
	RowGroups []RowGroup
	CreatedBy string
}

type SchemaElement struct {
	Type           *Type
	TypeLength     *int32
	RepetitionType *int32
	Name           string
	NumChildren    *int32
	ConvertedType  *int32
}

type RowGroup struct {
	Columns             []ColumnChunk
	TotalByteSize       int64
	NumRows             int64
	FileOffset          *int64
	TotalCompressedSize *int64
}

type ColumnChunk struct {
	FilePath   string
	FileOffset int64
	MetaData   *ColumnMetaData
}

type ColumnMetaData struct {
	Type                  Type
	Encodings             []int32
	PathInSchema          []string
	Codec                 int32
	NumValues             int64
	TotalUncompressedSize int64
	TotalCompressedSize   int64
	DataPageOffset        int64
	IndexPageOffset       *int64
	DictionaryPageOffset  *int64
}

// Leaves returns the schema elements that are columns, in column order.
func (m *FileMetaData) Leaves() []SchemaElement {
	var out []SchemaElement
	for i, e := range m.Schema {
		if i == 0 || (e.NumChildren != nil && *e.NumChildren > 0) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Column returns the chunk of the given column in the given row group, or
// nil if there is none.
func (m *FileMetaData) Column(rowGroup, column int) *ColumnChunk {
	if rowGroup < 0 || rowGroup >= len(m.RowGroups) {
		return nil
	}
	cols := m.RowGroups[rowGroup].Columns
	if column < 0 || column >= len(cols) {
		return nil
	}
	return &cols[column]
}
