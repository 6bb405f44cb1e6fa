// Package reader decodes columns of DataPageV2 pages from a Parquet file held
// in memory.
//
// Reads are addressed by the file offset of a column chunk's first page
// (4 for the first column of a file, just past the magic number) and the
// number of values wanted. Pages are walked in order until that many values
// have been produced.
//
// Supported combinations:
//
//	int32, int64   PLAIN, DELTA_BINARY_PACKED
//	strings        DELTA_LENGTH_BYTE_ARRAY
//
// A Reader never modifies its buffer, so any number of reads may run
// concurrently as long as they write to distinct outputs.
package reader

import (
	"io"

	"github.com/cockroachdb/errors"
	"github.com/go-kit/log/level"

	"swparquet/page"
)

// Reader decodes values from an in-memory Parquet file.
type Reader struct {
	data []byte
	opts *Options
}

// New returns a Reader over data. The Reader takes ownership of data, which
// must not be modified afterwards.
func New(data []byte, opts *Options) *Reader {
	return &Reader{data: data, opts: opts.EnsureDefaults()}
}

// Data returns the file contents.
func (r *Reader) Data() []byte { return r.data }

// CountPages walks the pages starting at fileOffset and summarizes them.
// The walk stops at the end of the file or at the first bytes that are not a
// DataPageV2 header.
func (r *Reader) CountPages(fileOffset int32) page.Summary {
	return page.Count(r.data, int(fileOffset))
}

// InspectHeader decodes the page header at fileOffset.
func (r *Reader) InspectHeader(fileOffset int32) (page.Header, error) {
	if fileOffset < 0 || int(fileOffset) > len(r.data) {
		return page.Header{}, errors.Wrapf(ErrTruncated, "offset %d outside file of %d bytes", fileOffset, len(r.data))
	}
	h, err := page.ParseHeader(r.data[fileOffset:])
	if err != nil {
		r.headerError(int(fileOffset), err)
		return h, classify(err)
	}
	return h, nil
}

func (r *Reader) headerError(off int, err error) {
	level.Error(r.opts.Logger).Log("msg", "corrupted data in page headers", "offset", off, "err", err)
}

// pages walks the pages of one read, checking each header against the
// requested encoding.
type pages struct {
	r      *Reader
	w      *page.Walker
	enc    page.Encoding
	offset int
}

func (r *Reader) pages(fileOffset int32, enc page.Encoding) pages {
	return pages{r: r, w: page.NewWalker(r.data, int(fileOffset)), enc: enc}
}

// next returns the header of the next page and its value section, which
// follows the level sections.
func (p *pages) next(done, want int64) (*page.Header, []byte, error) {
	p.offset = p.w.Offset()
	h, payload, err := p.w.Next()
	if err != nil {
		if err == io.EOF {
			return nil, nil, errors.Wrapf(ErrTruncated, "file ends at offset %d after %d of %d values", p.offset, done, want)
		}
		p.r.headerError(p.offset, err)
		return nil, nil, classify(err)
	}
	if h.Encoding != p.enc {
		return nil, nil, encodingMismatch(p.offset, h.Encoding, p.enc)
	}
	if h.NumNulls > 0 {
		return nil, nil, errors.Wrapf(ErrUnimplemented, "page at offset %d has %d nulls", p.offset, h.NumNulls)
	}
	if l := h.LevelsLen(); h.DefLevelsLen < 0 || h.RepLevelsLen < 0 || int(l) > len(payload) {
		return nil, nil, errors.Wrapf(ErrCorruption, "page at offset %d: levels of %d bytes in a %d byte page",
			p.offset, l, len(payload))
	}
	return h, payload[h.LevelsLen():], nil
}
