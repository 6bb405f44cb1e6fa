// Package reference reads whole columns with parquet-go. It handles any file
// parquet-go can open and serves as the ground truth the page decoder is
// checked against.
package reference

import (
	"bytes"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/parquet-go/parquet-go"
)

const batchSize = 1024

// ReadInt32s returns every value of the INT32 column at index column, over
// all row groups.
func ReadInt32s(data []byte, column int) ([]int32, error) {
	var out []int32
	err := scan(data, column, func(v parquet.Value) {
		out = append(out, v.Int32())
	})
	return out, err
}

// ReadInt64s returns every value of the INT64 column at index column.
func ReadInt64s(data []byte, column int) ([]int64, error) {
	var out []int64
	err := scan(data, column, func(v parquet.Value) {
		out = append(out, v.Int64())
	})
	return out, err
}

// ReadStrings returns every value of the BYTE_ARRAY column at index column.
// The results do not alias data.
func ReadStrings(data []byte, column int) ([][]byte, error) {
	var out [][]byte
	err := scan(data, column, func(v parquet.Value) {
		out = append(out, bytes.Clone(v.ByteArray()))
	})
	return out, err
}

func scan(data []byte, column int, fn func(parquet.Value)) error {
	f, err := parquet.OpenFile(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return errors.Wrap(err, "opening file")
	}
	if n := len(f.Schema().Columns()); column < 0 || column >= n {
		return errors.Newf("column %d out of range, file has %d columns", column, n)
	}
	buf := make([]parquet.Value, batchSize)
	for i, rg := range f.RowGroups() {
		if err := scanChunk(rg.ColumnChunks()[column], buf, fn); err != nil {
			return errors.Wrapf(err, "row group %d", i)
		}
	}
	return nil
}

func scanChunk(chunk parquet.ColumnChunk, buf []parquet.Value, fn func(parquet.Value)) error {
	pages := chunk.Pages()
	defer pages.Close()
	for {
		pg, err := pages.ReadPage()
		if err == io.EOF {
			return nil
		} else if err != nil {
			return errors.Wrap(err, "reading page")
		}
		err = scanPage(pg, buf, fn)
		parquet.Release(pg)
		if err != nil {
			return err
		}
	}
}

func scanPage(pg parquet.Page, buf []parquet.Value, fn func(parquet.Value)) error {
	values := pg.Values()
	for {
		n, err := values.ReadValues(buf)
		for _, v := range buf[:n] {
			if v.IsNull() {
				return errors.New("null values are not supported")
			}
			fn(v)
		}
		if err == io.EOF {
			return nil
		} else if err != nil {
			return errors.Wrap(err, "reading values")
		}
	}
}
