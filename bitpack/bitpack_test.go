package bitpack

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

// unpackSlow reads values one bit at a time.
func unpackSlow(src []byte, n int, width uint) []uint64 {
	out := make([]uint64, n)
	for i := range out {
		for b := uint(0); b < width; b++ {
			bit := uint(i)*width + b
			if src[bit/8]&(1<<(bit%8)) != 0 {
				out[i] |= 1 << b
			}
		}
	}
	return out
}

func TestRoundTripAllWidths32(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for width := uint(0); width <= 32; width++ {
		t.Run(fmt.Sprint(width), func(t *testing.T) {
			values := make([]uint32, 128)
			var maxVal uint32
			if width > 0 {
				maxVal = uint32(uint64(1)<<width - 1)
			}
			for i := range values {
				switch i % 4 {
				case 0:
					values[i] = maxVal
				case 1:
					values[i] = 0
				default:
					if width > 0 {
						values[i] = uint32(rng.Uint64() & uint64(maxVal))
					}
				}
			}
			packed := Pack(nil, values, width)
			require.Len(t, packed, PackedLen(len(values), width))
			require.Equal(t, int(width)*16, len(packed))

			got := make([]uint32, len(values))
			for i := range got {
				got[i] = 0xdeadbeef
			}
			n := Unpack(got, packed, width)
			require.Equal(t, len(packed), n)
			require.Equal(t, values, got)

			slow := unpackSlow(packed, len(values), width)
			for i := range slow {
				require.Equal(t, uint64(values[i]), slow[i], "value %d", i)
			}
		})
	}
}

func TestRoundTripWide(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for width := uint(33); width <= 64; width++ {
		values := make([]uint64, 32)
		for i := range values {
			values[i] = rng.Uint64()
			if width < 64 {
				values[i] &= 1<<width - 1
			}
		}
		values[0] = ^uint64(0) >> (64 - width)
		packed := Pack(nil, values, width)
		got := make([]uint64, len(values))
		require.Equal(t, len(packed), Unpack(got, packed, width))
		require.Equal(t, values, got, "width %d", width)
	}
}

func TestZeroWidth(t *testing.T) {
	got := []uint32{1, 2, 3, 4}
	require.Equal(t, 0, Unpack(got, nil, 0))
	require.Equal(t, []uint32{0, 0, 0, 0}, got)
	require.Empty(t, Pack(nil, []uint32{1, 2, 3}, 0))
}

func TestKnownLayout(t *testing.T) {
	// Width 3, LSB first: 5=101, 6=110, 7=111, 0=000.
	// bits 0..11: 1 0 1 | 0 1 1 | 1 1 1 | 0 0 0
	// byte 0 = bits 0..7 = 1,0,1,0,1,1,1,1 -> 0b11110101
	// byte 1 = bits 8..11 = 1,0,0,0 -> 0b00000001
	packed := Pack(nil, []uint32{5, 6, 7, 0}, 3)
	require.Equal(t, []byte{0xf5, 0x01}, packed)

	got := make([]uint32, 4)
	require.Equal(t, 2, Unpack(got, packed, 3))
	require.Equal(t, []uint32{5, 6, 7, 0}, got)
}

func TestCrossWordCarry(t *testing.T) {
	// At width 5 the seventh value occupies bits 30..34.
	values := make([]uint32, 32)
	values[6] = 0x1f
	packed := Pack(nil, values, 5)
	require.Equal(t, byte(0xc0), packed[3])
	require.Equal(t, byte(0x07), packed[4])

	got := make([]uint32, 32)
	Unpack(got, packed, 5)
	require.Equal(t, values, got)
}

func TestShortInputReadsZero(t *testing.T) {
	got := make([]uint32, 8)
	require.NotPanics(t, func() { Unpack(got, []byte{0xff}, 8) })
	require.Equal(t, []uint32{0xff, 0, 0, 0, 0, 0, 0, 0}, got)
}

func TestMaxWidth(t *testing.T) {
	require.Equal(t, uint(32), MaxWidth[uint32]())
	require.Equal(t, uint(64), MaxWidth[uint64]())
}

func BenchmarkUnpack(b *testing.B) {
	for _, width := range []uint{1, 7, 16, 23, 32} {
		b.Run(fmt.Sprint(width), func(b *testing.B) {
			src := make([]byte, PackedLen(32, width))
			for i := range src {
				src[i] = byte(i * 31)
			}
			dst := make([]uint32, 32)
			b.SetBytes(int64(len(src)))
			for i := 0; i < b.N; i++ {
				Unpack(dst, src, width)
			}
		})
	}
}
