package page

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/cockroachdb/datadriven"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

func formatHeader(h *Header) string {
	crc := "none"
	if h.HasCRC {
		crc = fmt.Sprint(h.CRC)
	}
	return fmt.Sprintf("type=%s uncompressed=%d compressed=%d crc=%s values=%d nulls=%d rows=%d encoding=%s levels=%d+%d is-compressed=%t len=%d",
		h.Type, h.UncompressedSize, h.CompressedSize, crc, h.NumValues, h.NumNulls, h.NumRows,
		h.Encoding, h.DefLevelsLen, h.RepLevelsLen, h.IsCompressed, h.Len)
}

func TestParseHeader(t *testing.T) {
	datadriven.RunTest(t, "testdata/header", func(t *testing.T, td *datadriven.TestData) string {
		switch td.Cmd {
		case "parse":
			src, err := hex.DecodeString(strings.Join(strings.Fields(td.Input), ""))
			if err != nil {
				return err.Error()
			}
			h, err := ParseHeader(src)
			if err != nil {
				return fmt.Sprintf("error: %s", err)
			}
			return formatHeader(&h)
		default:
			return fmt.Sprintf("unknown command: %s", td.Cmd)
		}
	})
}

func TestHeaderRoundTrip(t *testing.T) {
	yes, no := true, false
	for _, tc := range []struct {
		h    Header
		flag *bool
	}{
		{h: Header{Type: DataPageV2, UncompressedSize: 8000, CompressedSize: 8000, NumValues: 1000, NumRows: 1000, Encoding: Plain}},
		{h: Header{Type: DataPageV2, UncompressedSize: 1 << 30, CompressedSize: 1 << 30, CRC: -1, HasCRC: true, NumValues: 1<<31 - 1, Encoding: DeltaBinaryPacked}, flag: &no},
		{h: Header{Type: DataPageV2, CompressedSize: 12, NumValues: 3, NumNulls: 1, NumRows: 3, Encoding: DeltaLengthByteArray, DefLevelsLen: 2, RepLevelsLen: 1}, flag: &yes},
	} {
		buf := AppendHeader(nil, &tc.h, tc.flag)
		buf = append(buf, 0xaa, 0xbb)

		got, err := ParseHeader(buf)
		require.NoError(t, err)
		want := tc.h
		want.IsCompressed = tc.flag == nil || *tc.flag
		want.Len = int32(len(buf) - 2)
		require.Equal(t, want, got)
	}
}

func TestCorruptTagIsMarked(t *testing.T) {
	buf := AppendHeader(nil, &Header{Type: DataPageV2, CompressedSize: 4, NumValues: 1}, nil)
	for i, b := range buf {
		if b != tagI32 {
			continue
		}
		corrupt := append([]byte(nil), buf...)
		corrupt[i] = 0x16
		_, err := ParseHeader(corrupt)
		require.Error(t, err, "byte %d", i)
		require.True(t, errors.Is(err, ErrCorruption), "byte %d: %v", i, err)
	}
}

// buildPages lays out one page per entry of values, each with a payload of
// the given size filled with the page index.
func buildPages(values []int32, sizes []int32, crc bool) []byte {
	buf := []byte("PAR1")
	for i := range values {
		h := Header{
			Type:             DataPageV2,
			UncompressedSize: sizes[i],
			CompressedSize:   sizes[i],
			HasCRC:           crc,
			NumValues:        values[i],
			NumRows:          values[i],
		}
		buf = AppendHeader(buf, &h, nil)
		for j := int32(0); j < sizes[i]; j++ {
			buf = append(buf, byte(i))
		}
	}
	return buf
}

func TestWalker(t *testing.T) {
	data := buildPages([]int32{10, 10, 5}, []int32{40, 40, 20}, true)
	w := NewWalker(data, 4)
	for i, want := range []int32{10, 10, 5} {
		h, payload, err := w.Next()
		require.NoError(t, err)
		require.Equal(t, want, h.NumValues)
		require.Len(t, payload, int(h.CompressedSize))
		for _, b := range payload {
			require.Equal(t, byte(i), b)
		}
	}
	_, _, err := w.Next()
	require.Equal(t, io.EOF, err)
	require.Equal(t, len(data), w.Offset())
}

func TestWalkerTruncatedPayload(t *testing.T) {
	data := buildPages([]int32{10}, []int32{40}, false)
	w := NewWalker(data[:len(data)-1], 4)
	_, _, err := w.Next()
	require.True(t, errors.Is(err, ErrTruncated), "%v", err)
}

func TestWalkerBadOffset(t *testing.T) {
	data := buildPages([]int32{10}, []int32{40}, false)
	_, _, err := NewWalker(data, 5).Next()
	require.True(t, errors.Is(err, ErrCorruption), "%v", err)
	require.Contains(t, err.Error(), "page header at offset 5")

	_, _, err = NewWalker(data, len(data)+1).Next()
	require.True(t, errors.Is(err, ErrTruncated), "%v", err)
}

func TestCount(t *testing.T) {
	data := buildPages([]int32{100, 100, 100, 7}, []int32{400, 400, 400, 28}, false)
	footerStart := len(data)
	data = append(data, []byte("footer bytes that are not a page")...)

	s := Count(data, 4)
	require.Equal(t, 4, s.Pages)
	require.Equal(t, int64(307), s.Values)
	require.Equal(t, footerStart, s.End)
	require.Equal(t, int64(footerStart-4), s.Bytes)
	require.Equal(t, []Bucket{{Key: 28, Count: 1}, {Key: 400, Count: 3}}, s.SortedSizes())
	require.Equal(t, []Bucket{{Key: 7, Count: 1}, {Key: 100, Count: 3}}, s.SortedValueCounts())
}

func TestCountEmpty(t *testing.T) {
	s := Count([]byte("PAR1"), 4)
	require.Equal(t, 0, s.Pages)
	require.Equal(t, 4, s.End)
	require.Empty(t, s.SortedSizes())
}
