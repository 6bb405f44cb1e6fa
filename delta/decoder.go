package delta

import (
	"fmt"
	"io"

	"github.com/cockroachdb/errors"

	"swparquet/bitpack"
)

// State is the position of a Decoder within its stream.
type State int8

const (
	// AwaitHeader: the stream header has not been read.
	AwaitHeader State = iota
	// AwaitBlockHeader: the next bytes are a block header.
	AwaitBlockHeader
	// UnpackMiniblock: the next bytes are a miniblock of the current block.
	UnpackMiniblock
	// Done: every value of the stream has been unpacked.
	Done
)

func (s State) String() string {
	switch s {
	case AwaitHeader:
		return "await-header"
	case AwaitBlockHeader:
		return "await-block-header"
	case UnpackMiniblock:
		return "unpack-miniblock"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("State(%d)", int8(s))
	}
}

// Decoder reconstructs the values of one DELTA_BINARY_PACKED stream. T is the
// unsigned type of the value slots; arithmetic wraps modulo its width, which
// gives two's complement results for the signed column types.
//
// The decoder unpacks a whole miniblock at a time. Values of a miniblock the
// caller has not taken yet stay buffered, and Skip moves the cursor past the
// rest of the stream without producing them.
type Decoder[T bitpack.Word] struct {
	src   []byte
	off   int
	state State

	hdr       Header
	block     BlockHeader
	mini      int
	remaining int64 // values not yet unpacked
	last      T

	scratch [MiniblockSize]T
	pending []T
}

// Reset points the decoder at a new stream.
func (d *Decoder[T]) Reset(src []byte) {
	*d = Decoder[T]{src: src}
}

// Offset returns the number of stream bytes consumed so far.
func (d *Decoder[T]) Offset() int { return d.off }

// State returns the decoder's position in the stream.
func (d *Decoder[T]) State() State { return d.state }

// Header returns the stream header, reading it if needed.
func (d *Decoder[T]) Header() (Header, error) {
	if d.state == AwaitHeader {
		if err := d.step(true); err != nil {
			return Header{}, err
		}
	}
	return d.hdr, nil
}

// Decode fills dst with the next values of the stream and returns how many it
// wrote. It returns io.EOF, with n < len(dst), once the stream holds no more
// values.
func (d *Decoder[T]) Decode(dst []T) (int, error) {
	n := 0
	for n < len(dst) {
		if len(d.pending) > 0 {
			c := copy(dst[n:], d.pending)
			d.pending = d.pending[c:]
			n += c
			continue
		}
		if d.state == Done {
			return n, io.EOF
		}
		if err := d.step(true); err != nil {
			return n, err
		}
	}
	return n, nil
}

// Skip discards buffered values and consumes the remainder of the stream. It
// returns the offset of the first byte after the stream.
func (d *Decoder[T]) Skip() (int, error) {
	d.pending = nil
	for d.state != Done {
		if err := d.step(false); err != nil {
			return d.off, err
		}
	}
	return d.off, nil
}

// step performs one transition of the state machine. When emit is false
// miniblock bodies are stepped over without unpacking.
func (d *Decoder[T]) step(emit bool) error {
	switch d.state {
	case AwaitHeader:
		h, err := ParseHeader(d.src)
		if err != nil {
			return errors.Wrap(err, "delta header")
		}
		d.hdr = h
		d.off = h.Len
		d.remaining = h.TotalValues
		if d.remaining == 0 {
			d.state = Done
			return nil
		}
		d.last = T(h.FirstValue)
		d.remaining--
		if emit {
			d.scratch[0] = d.last
			d.pending = d.scratch[:1]
		}
		d.state = AwaitBlockHeader
		if d.remaining == 0 {
			d.state = Done
		}

	case AwaitBlockHeader:
		b, err := ParseBlockHeader(d.src[d.off:])
		if err != nil {
			return errors.Wrapf(err, "block header at +%d", d.off)
		}
		for i, w := range b.Widths {
			if uint(w) > bitpack.MaxWidth[T]() {
				return errors.Wrapf(ErrCorruption, "miniblock %d of block at +%d: bit width %d exceeds %d",
					i, d.off, w, bitpack.MaxWidth[T]())
			}
		}
		d.block = b
		d.off += b.Len
		d.mini = 0
		d.state = UnpackMiniblock

	case UnpackMiniblock:
		width := uint(d.block.Widths[d.mini])
		size := bitpack.PackedLen(MiniblockSize, width)
		if d.off+size > len(d.src) {
			return errors.Wrapf(ErrTruncated, "miniblock of %d bytes at +%d, stream has %d", size, d.off, len(d.src))
		}
		count := int(min(int64(MiniblockSize), d.remaining))
		if emit {
			bitpack.Unpack(d.scratch[:], d.src[d.off:d.off+size], width)
			minDelta := T(d.block.MinDelta)
			for i := 0; i < count; i++ {
				d.last += d.scratch[i] + minDelta
				d.scratch[i] = d.last
			}
			d.pending = d.scratch[:count]
		}
		d.off += size
		d.remaining -= int64(count)
		d.mini++
		switch {
		case d.remaining == 0:
			d.state = Done
		case d.mini == MiniblocksPerBlock:
			d.state = AwaitBlockHeader
		}

	case Done:
	}
	return nil
}
