package reader

import (
	"io"
	"math"

	"github.com/cockroachdb/errors"

	"swparquet/delta"
	"swparquet/page"
)

// Strings is a decoded string column: string i is Chars[Offsets[i]:Offsets[i+1]].
type Strings struct {
	Offsets []int32
	Chars   []byte
}

// Len returns the number of strings.
func (s *Strings) Len() int {
	if len(s.Offsets) == 0 {
		return 0
	}
	return len(s.Offsets) - 1
}

// At returns string i. The result aliases Chars.
func (s *Strings) At(i int) []byte {
	return s.Chars[s.Offsets[i]:s.Offsets[i+1]]
}

// ReadStringsInto decodes numStrings strings of the column whose first page
// starts at fileOffset. It writes numStrings+1 offsets to offsets and the
// string bytes to chars, and returns the number of bytes written to chars.
// Neither buffer is grown: if chars cannot hold the data, the read fails
// with ErrBufferTooSmall.
func (r *Reader) ReadStringsInto(
	numStrings int64, fileOffset int32, enc page.Encoding, offsets []int32, chars []byte,
) (int, error) {
	if err := r.checkCount(numStrings); err != nil {
		return 0, err
	}
	if int64(len(offsets)) < numStrings+1 {
		return 0, errors.Wrapf(ErrBufferTooSmall, "%d strings need %d offsets, buffer holds %d",
			numStrings, numStrings+1, len(offsets))
	}
	out, err := r.readStrings(numStrings, fileOffset, enc, offsets, chars[:0:len(chars)], false)
	return len(out), err
}

// ReadStrings is like ReadStringsInto but allocates the output.
func (r *Reader) ReadStrings(numStrings int64, fileOffset int32, enc page.Encoding) (Strings, error) {
	if err := r.checkCount(numStrings); err != nil {
		return Strings{}, err
	}
	offsets := make([]int32, numStrings+1)
	chars, err := r.readStrings(numStrings, fileOffset, enc, offsets, nil, true)
	if err != nil {
		return Strings{}, err
	}
	return Strings{Offsets: offsets, Chars: chars}, nil
}

// readStrings decodes the length streams of successive pages in place into
// offsets, turns them into running offsets, and appends the character data
// that follows each length stream to chars.
func (r *Reader) readStrings(
	numStrings int64, fileOffset int32, enc page.Encoding, offsets []int32, chars []byte, grow bool,
) ([]byte, error) {
	if enc != page.DeltaLengthByteArray {
		return chars, errors.Wrapf(ErrUnimplemented, "%s for strings", enc)
	}
	offsets[0] = 0
	p := r.pages(fileOffset, enc)
	var dec delta.Decoder[uint32]
	var done, total int64
	for done < numStrings {
		h, values, err := p.next(done, numStrings)
		if err != nil {
			return chars, err
		}
		want := min(int64(h.NumValues), numStrings-done)
		lengths := asUnsigned[int32, uint32](offsets[done+1 : done+1+want])
		dec.Reset(values)
		n, err := dec.Decode(lengths)
		if err == io.EOF {
			return chars, errors.Wrapf(ErrCorruption, "page at offset %d declares %d strings, length stream holds %d",
				p.offset, h.NumValues, n)
		} else if err != nil {
			return chars, errors.Wrapf(classify(err), "page at offset %d", p.offset)
		}

		pageStart := total
		for i, l := range lengths {
			if int32(l) < 0 {
				return chars, errors.Wrapf(ErrCorruption, "page at offset %d: string %d has length %d",
					p.offset, done+int64(i), int32(l))
			}
			total += int64(l)
			if total > math.MaxInt32 {
				return chars, errors.Wrapf(ErrBufferTooSmall, "character data exceeds %d bytes", math.MaxInt32)
			}
			offsets[done+1+int64(i)] = int32(total)
		}

		// The characters follow the whole length stream, however many
		// lengths were used.
		end, err := dec.Skip()
		if err != nil {
			return chars, errors.Wrapf(classify(err), "page at offset %d", p.offset)
		}
		pageChars := int(total - pageStart)
		if len(values)-end < pageChars {
			return chars, errors.Wrapf(ErrCorruption, "page at offset %d holds %d character bytes, lengths need %d",
				p.offset, len(values)-end, pageChars)
		}
		if !grow && len(chars)+pageChars > cap(chars) {
			return chars, errors.Wrapf(ErrBufferTooSmall, "character buffer of %d bytes is full after %d strings",
				cap(chars), done)
		}
		chars = append(chars, values[end:end+pageChars]...)
		done += want
	}
	return chars, nil
}
