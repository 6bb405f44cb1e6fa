package reference

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/require"

	"swparquet/page"
	"swparquet/writer"
)

type row struct {
	ID   int64  `parquet:"id,delta"`
	Size int32  `parquet:"size"`
	Name string `parquet:"name"`
}

func TestGenericWriter(t *testing.T) {
	rows := make([]row, 3000)
	for i := range rows {
		rows[i] = row{ID: int64(i) * 3, Size: int32(i % 17), Name: fmt.Sprintf("name-%d", i)}
	}
	var buf bytes.Buffer
	w := parquet.NewGenericWriter[row](&buf, parquet.PageBufferSize(4096))
	_, err := w.Write(rows[:1500])
	require.NoError(t, err)
	require.NoError(t, w.Flush())
	_, err = w.Write(rows[1500:])
	require.NoError(t, err)
	require.NoError(t, w.Close())

	ids, err := ReadInt64s(buf.Bytes(), 0)
	require.NoError(t, err)
	sizes, err := ReadInt32s(buf.Bytes(), 1)
	require.NoError(t, err)
	names, err := ReadStrings(buf.Bytes(), 2)
	require.NoError(t, err)
	require.Len(t, ids, len(rows))
	for i, r := range rows {
		require.Equal(t, r.ID, ids[i])
		require.Equal(t, r.Size, sizes[i])
		require.Equal(t, r.Name, string(names[i]))
	}

	_, err = ReadInt32s(buf.Bytes(), 3)
	require.Error(t, err)
}

func TestReadsWriterOutput(t *testing.T) {
	values := make([]int32, 2000)
	for i := range values {
		values[i] = int32(i*i) - 50000
	}
	data, err := writer.Int32s(values, &writer.Options{Encoding: page.DeltaBinaryPacked, PageValues: 300})
	require.NoError(t, err)
	got, err := ReadInt32s(data, 0)
	require.NoError(t, err)
	require.Equal(t, values, got)

	strs := [][]byte{[]byte("x"), []byte(""), []byte("hello")}
	data, err = writer.Strings(strs, &writer.Options{Encoding: page.DeltaLengthByteArray})
	require.NoError(t, err)
	gotStrs, err := ReadStrings(data, 0)
	require.NoError(t, err)
	require.Len(t, gotStrs, 3)
	for i := range strs {
		require.Equal(t, string(strs[i]), string(gotStrs[i]))
	}
}

func TestNotParquet(t *testing.T) {
	_, err := ReadInt64s([]byte("not a parquet file"), 0)
	require.Error(t, err)
}
