package writer

import (
	"hash/crc32"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"swparquet/footer"
	"swparquet/page"
)

func TestLayout(t *testing.T) {
	values := make([]int64, 2500)
	for i := range values {
		values[i] = int64(i)
	}
	data, err := Int64s(values, &Options{Encoding: page.Plain, PageValues: 1000, CRC: true})
	require.NoError(t, err)

	w := page.NewWalker(data, 4)
	var counts []int32
	for {
		h, payload, err := w.Next()
		if err != nil {
			require.NotEqual(t, io.EOF, err, "footer should stop the walk")
			break
		}
		require.Equal(t, page.DataPageV2, h.Type)
		require.True(t, h.HasCRC)
		require.Equal(t, int32(crc32.ChecksumIEEE(payload)), h.CRC)
		require.Len(t, payload, int(h.NumValues)*8)
		counts = append(counts, h.NumValues)
	}
	require.Equal(t, []int32{1000, 1000, 500}, counts)

	m, err := footer.Read(data)
	require.NoError(t, err)
	require.Equal(t, int64(2500), m.NumRows)
	col := m.Column(0, 0)
	require.NotNil(t, col)
	require.Equal(t, footer.Int64, col.MetaData.Type)
	require.Equal(t, int64(4), col.MetaData.DataPageOffset)
	require.Equal(t, []int32{int32(page.Plain)}, col.MetaData.Encodings)
	require.Equal(t, "v", m.Leaves()[0].Name)

	s := page.Count(data, 4)
	require.Equal(t, 3, s.Pages)
	require.Equal(t, col.MetaData.TotalCompressedSize, s.Bytes)
}

func TestIsCompressedFlag(t *testing.T) {
	no := false
	data, err := Int32s([]int32{1, 2, 3}, &Options{Encoding: page.DeltaBinaryPacked, IsCompressed: &no, NoFooter: true})
	require.NoError(t, err)
	h, err := page.ParseHeader(data[4:])
	require.NoError(t, err)
	require.False(t, h.IsCompressed)
	require.False(t, h.HasCRC)
	require.Equal(t, page.DeltaBinaryPacked, h.Encoding)
	require.Equal(t, len(data), 4+int(h.Len)+int(h.CompressedSize))
}

func TestStrings(t *testing.T) {
	values := [][]byte{[]byte("a"), nil, []byte("hello"), []byte("parquet")}
	data, err := Strings(values, &Options{Encoding: page.DeltaLengthByteArray, PageValues: 3, Column: "name"})
	require.NoError(t, err)
	s := page.Count(data, 4)
	require.Equal(t, 2, s.Pages)
	require.Equal(t, int64(4), s.Values)

	m, err := footer.Read(data)
	require.NoError(t, err)
	leaf := m.Leaves()[0]
	require.Equal(t, "name", leaf.Name)
	require.Equal(t, footer.ByteArray, *leaf.Type)
	require.Equal(t, footer.ConvertedUTF8, *leaf.ConvertedType)
}

func TestEmptyColumn(t *testing.T) {
	data, err := Int32s(nil, &Options{Encoding: page.DeltaBinaryPacked})
	require.NoError(t, err)
	s := page.Count(data, 4)
	require.Equal(t, 1, s.Pages)
	require.Equal(t, int64(0), s.Values)
}

func TestUnsupportedEncoding(t *testing.T) {
	_, err := Int32s([]int32{1}, &Options{Encoding: page.DeltaLengthByteArray})
	require.Error(t, err)
	_, err = Strings([][]byte{[]byte("x")}, &Options{Encoding: page.Plain})
	require.Error(t, err)
}
