package extract

import (
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
	"github.com/ulikunitz/xz/lzma"
)

// Codec is the compression of the data member.
type Codec int

const (
	// CodecUnknown is any data member we cannot decode.
	CodecUnknown Codec = iota
	// CodecNone is an uncompressed data.tar.
	CodecNone
	// CodecGzip is data.tar.gz.
	CodecGzip
	// CodecXz is data.tar.xz.
	CodecXz
	// CodecLzma is data.tar.lzma.
	CodecLzma
	// CodecZstd is data.tar.zst.
	CodecZstd
)

const dataPrefix = "data.tar"

func (c Codec) String() string {
	switch c {
	case CodecNone:
		return "none"
	case CodecGzip:
		return "gzip"
	case CodecXz:
		return "xz"
	case CodecLzma:
		return "lzma"
	case CodecZstd:
		return "zstd"
	default:
		return "unknown"
	}
}

// DetectCodec maps an ar member name to its codec.
func DetectCodec(name string) Codec {
	switch strings.TrimSuffix(strings.TrimSpace(name), "/") {
	case dataPrefix:
		return CodecNone
	case dataPrefix + ".gz":
		return CodecGzip
	case dataPrefix + ".xz":
		return CodecXz
	case dataPrefix + ".lzma":
		return CodecLzma
	case dataPrefix + ".zst":
		return CodecZstd
	default:
		return CodecUnknown
	}
}

// NewReader wraps r in a decoder for c.
func (c Codec) NewReader(r io.Reader) (io.ReadCloser, error) {
	switch c {
	case CodecNone:
		return io.NopCloser(r), nil
	case CodecGzip:
		gr, err := gzip.NewReader(r)
		if err != nil {
			return nil, err
		}

		return gr, nil
	case CodecXz:
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, err
		}

		return io.NopCloser(xr), nil
	case CodecLzma:
		lr, err := lzma.NewReader(r)
		if err != nil {
			return nil, err
		}

		return io.NopCloser(lr), nil
	case CodecZstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}

		return zr.IOReadCloser(), nil
	default:
		return nil, fmt.Errorf("unsupported compression %s", c)
	}
}
