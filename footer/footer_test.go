package footer

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

func i32p(v int32) *int32 { return &v }
func i64p(v int64) *int64 { return &v }
func typep(t Type) *Type  { return &t }

func testMetaData() *FileMetaData {
	return &FileMetaData{
		Version: 1,
		Schema: []SchemaElement{
			{Name: "schema", NumChildren: i32p(2)},
			{Type: typep(Int64), RepetitionType: i32p(Required), Name: "id"},
			{Type: typep(ByteArray), RepetitionType: i32p(Required), Name: "name", ConvertedType: i32p(ConvertedUTF8)},
		},
		NumRows: 1000,
		RowGroups: []RowGroup{{
			Columns: []ColumnChunk{
				{
					FileOffset: 4,
					MetaData: &ColumnMetaData{
						Type:                  Int64,
						Encodings:             []int32{5},
						PathInSchema:          []string{"id"},
						NumValues:             1000,
						TotalUncompressedSize: 8040,
						TotalCompressedSize:   8040,
						DataPageOffset:        4,
					},
				},
				{
					FileOffset: 8044,
					MetaData: &ColumnMetaData{
						Type:                  ByteArray,
						Encodings:             []int32{6},
						PathInSchema:          []string{"name"},
						NumValues:             1000,
						TotalUncompressedSize: 20000,
						TotalCompressedSize:   20000,
						DataPageOffset:        8044,
						DictionaryPageOffset:  i64p(8044),
					},
				},
			},
			TotalByteSize:       28040,
			NumRows:             1000,
			FileOffset:          i64p(4),
			TotalCompressedSize: i64p(28040),
		}},
		CreatedBy: "swparquet",
	}
}

func TestRoundTrip(t *testing.T) {
	m := testMetaData()
	data := Append([]byte("PAR1 column data "), m)
	got, err := Read(data)
	require.NoError(t, err)
	require.Equal(t, m, got)

	leaves := got.Leaves()
	require.Len(t, leaves, 2)
	require.Equal(t, "name", leaves[1].Name)
	require.Equal(t, int64(8044), got.Column(0, 1).MetaData.DataPageOffset)
	require.Nil(t, got.Column(0, 2))
	require.Nil(t, got.Column(1, 0))
}

func TestManyColumns(t *testing.T) {
	// Lists of 15 or more elements use the long list header.
	m := &FileMetaData{Version: 2, Schema: []SchemaElement{{Name: "schema", NumChildren: i32p(20)}}}
	for i := 0; i < 20; i++ {
		m.Schema = append(m.Schema, SchemaElement{Type: typep(Int32), Name: string(rune('a' + i))})
	}
	got, err := Read(Append([]byte("PAR1"), m))
	require.NoError(t, err)
	require.Equal(t, m, got)
}

func TestSkipsUnknownFields(t *testing.T) {
	w := compactWriter{buf: []byte("PAR1")}
	start := len(w.buf)
	w.beginStruct()
	w.i32Field(1, 2)
	w.i64Field(3, 77)
	// key_value_metadata: list<struct{1: key, 2: value}>
	w.field(5, ctList)
	w.listHeader(ctStruct, 1)
	w.beginStruct()
	w.stringField(1, "k")
	w.stringField(2, "v")
	w.field(3, ctTrue)
	w.field(4, ctDouble)
	w.buf = append(w.buf, 0, 0, 0, 0, 0, 0, 0xf0, 0x3f)
	w.endStruct()
	w.stringField(6, "writer")
	// A field id far from the previous one uses the long field header.
	w.field(100, ctMap)
	w.buf = append(w.buf, 1, ctBinary<<4|ctI32)
	w.binary([]byte("x"))
	w.buf = append(w.buf, 0x02)
	w.field(101, ctList)
	w.listHeader(ctTrue, 2)
	w.buf = append(w.buf, 1, 2)
	w.endStruct()
	n := len(w.buf) - start
	data := append(w.buf, byte(n), 0, 0, 0)
	data = append(data, Magic...)

	got, err := Read(data)
	require.NoError(t, err)
	require.Equal(t, &FileMetaData{Version: 2, NumRows: 77, CreatedBy: "writer"}, got)
}

func TestCorruptFooter(t *testing.T) {
	good := Append([]byte("PAR1"), testMetaData())

	for _, tc := range []struct {
		name   string
		mutate func([]byte) []byte
	}{
		{"short", func(b []byte) []byte { return b[:8] }},
		{"start magic", func(b []byte) []byte { b[0] = 'X'; return b }},
		{"end magic", func(b []byte) []byte { b[len(b)-1] = 'X'; return b }},
		{"length", func(b []byte) []byte { b[len(b)-6] = 0x7f; return b }},
		{"cut footer", func(b []byte) []byte {
			out := append([]byte(nil), b[:len(b)-20]...)
			return append(out, b[len(b)-8:]...)
		}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			data := tc.mutate(append([]byte(nil), good...))
			_, err := Read(data)
			require.Error(t, err)
			require.True(t, errors.Is(err, ErrCorruption), "%v", err)
		})
	}
}
