package page

import (
	"io"
	"sort"

	"github.com/cockroachdb/errors"
)

// Walker iterates over consecutive pages starting at a file offset. It does
// not copy: payloads alias the walked buffer.
type Walker struct {
	data []byte
	off  int
	hdr  Header
}

// NewWalker returns a Walker positioned at offset within data.
func NewWalker(data []byte, offset int) *Walker {
	return &Walker{data: data, off: offset}
}

// Offset returns the file offset of the next page header.
func (w *Walker) Offset() int { return w.off }

// Next parses the page at the current offset and advances past it. It
// returns the header and the page payload, which starts after the header and
// spans CompressedSize bytes. io.EOF is returned when the offset has reached
// the end of the buffer.
func (w *Walker) Next() (*Header, []byte, error) {
	if w.off < 0 || w.off > len(w.data) {
		return nil, nil, errors.Wrapf(ErrTruncated, "page offset %d outside file of %d bytes", w.off, len(w.data))
	}
	if w.off == len(w.data) {
		return nil, nil, io.EOF
	}
	if err := parseHeader(w.data[w.off:], &w.hdr); err != nil {
		return nil, nil, errors.Wrapf(err, "page header at offset %d", w.off)
	}
	start := w.off + int(w.hdr.Len)
	end := start + int(w.hdr.CompressedSize)
	if end > len(w.data) {
		return nil, nil, errors.Wrapf(ErrTruncated,
			"page at offset %d: payload of %d bytes runs past end of file (%d bytes)",
			w.off, w.hdr.CompressedSize, len(w.data))
	}
	w.off = end
	return &w.hdr, w.data[start:end], nil
}

// Summary describes a run of pages.
type Summary struct {
	Pages int
	// Bytes is the total of header and payload bytes walked.
	Bytes int64
	// Values is the total number of values over all pages.
	Values int64
	// Sizes counts pages by compressed payload size.
	Sizes map[int32]int
	// ValueCounts counts pages by number of values.
	ValueCounts map[int32]int
	// End is the offset at which the walk stopped.
	End int
}

// Bucket is one entry of a Summary histogram.
type Bucket struct {
	Key   int32
	Count int
}

// SortedSizes returns the size histogram ordered by size.
func (s *Summary) SortedSizes() []Bucket { return sortedBuckets(s.Sizes) }

// SortedValueCounts returns the value count histogram ordered by value count.
func (s *Summary) SortedValueCounts() []Bucket { return sortedBuckets(s.ValueCounts) }

func sortedBuckets(m map[int32]int) []Bucket {
	out := make([]Bucket, 0, len(m))
	for k, v := range m {
		out = append(out, Bucket{Key: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Count walks pages from offset until the end of data or the first bytes
// that do not parse as a page, and summarizes what it found. Stopping at a
// non-page is not an error: it is how the walk finds the end of a column
// chunk followed by a footer.
func Count(data []byte, offset int) Summary {
	s := Summary{
		Sizes:       make(map[int32]int),
		ValueCounts: make(map[int32]int),
	}
	w := NewWalker(data, offset)
	for {
		start := w.Offset()
		h, _, err := w.Next()
		if err != nil {
			s.End = start
			return s
		}
		s.Pages++
		s.Bytes += int64(w.Offset() - start)
		s.Values += int64(h.NumValues)
		s.Sizes[h.CompressedSize]++
		s.ValueCounts[h.NumValues]++
	}
}
