package reader

import (
	"bytes"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/snappy"
	"github.com/klauspost/compress/zstd"
)

// Container is the whole-file compression wrapping a fixture may be stored
// in. Pages inside the Parquet file itself are always uncompressed.
type Container int

const (
	Raw Container = iota
	Zstd
	Gzip
	Snappy
)

func (c Container) String() string {
	switch c {
	case Raw:
		return "raw"
	case Zstd:
		return "zstd"
	case Gzip:
		return "gzip"
	case Snappy:
		return "snappy"
	default:
		return "unknown"
	}
}

var (
	zstdMagic   = []byte{0x28, 0xb5, 0x2f, 0xfd}
	gzipMagic   = []byte{0x1f, 0x8b}
	snappyMagic = []byte("\xff\x06\x00\x00sNaPpY")
)

// Detect identifies the container of data by its leading magic number.
func Detect(data []byte) Container {
	switch {
	case bytes.HasPrefix(data, zstdMagic):
		return Zstd
	case bytes.HasPrefix(data, gzipMagic):
		return Gzip
	case bytes.HasPrefix(data, snappyMagic):
		return Snappy
	default:
		return Raw
	}
}

// Unwrap returns the file held in data, decompressing it if it is stored in
// a zstd, gzip or framed snappy container.
func Unwrap(data []byte) ([]byte, error) {
	switch c := Detect(data); c {
	case Raw:
		return data, nil
	case Zstd:
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		out, err := dec.DecodeAll(data, nil)
		return out, errors.Wrap(err, "zstd")
	case Gzip:
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, errors.Wrap(err, "gzip")
		}
		defer zr.Close()
		out, err := io.ReadAll(zr)
		return out, errors.Wrap(err, "gzip")
	case Snappy:
		out, err := io.ReadAll(snappy.NewReader(bytes.NewReader(data)))
		return out, errors.Wrap(err, "snappy")
	default:
		return nil, errors.Newf("unsupported container %s", c)
	}
}

// Load reads the file at path into memory and returns a Reader over it.
func Load(path string, opts *Options) (*Reader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	data, err = Unwrap(data)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", path)
	}
	return New(data, opts), nil
}
