package readers

import (
	"compress/bzip2"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
	"go.uber.org/multierr"
)

// ErrUnsupportedCompression is returned when a codec cannot be resolved.
var ErrUnsupportedCompression = errors.New("unsupported compression")

// Compression identifies the codec applied to an input file.
type Compression string

const (
	CompressionNone  Compression = ""
	CompressionGzip  Compression = "gzip"
	CompressionZstd  Compression = "zstd"
	CompressionLZ4   Compression = "lz4"
	CompressionXZ    Compression = "xz"
	CompressionBzip2 Compression = "bzip2"
)

// decoder wraps a compressed stream. The returned closer releases decoder state only;
// the underlying file is closed separately.
type decoder func(r io.Reader) (io.ReadCloser, error)

var decoders = map[Compression]decoder{
	CompressionGzip: func(r io.Reader) (io.ReadCloser, error) {
		return gzip.NewReader(r)
	},
	CompressionZstd: func(r io.Reader) (io.ReadCloser, error) {
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return dec.IOReadCloser(), nil
	},
	CompressionLZ4: func(r io.Reader) (io.ReadCloser, error) {
		return io.NopCloser(lz4.NewReader(r)), nil
	},
	CompressionXZ: func(r io.Reader) (io.ReadCloser, error) {
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(xr), nil
	},
	CompressionBzip2: func(r io.Reader) (io.ReadCloser, error) {
		return io.NopCloser(bzip2.NewReader(r)), nil
	},
}

var extensions = map[string]Compression{
	".gz":   CompressionGzip,
	".gzip": CompressionGzip,
	".zst":  CompressionZstd,
	".zstd": CompressionZstd,
	".lz4":  CompressionLZ4,
	".xz":   CompressionXZ,
	".bz2":  CompressionBzip2,
}

// DetectCompression returns the codec implied by the file extension.
func DetectCompression(path string) Compression {
	return extensions[strings.ToLower(filepath.Ext(path))]
}

// openStream opens path and returns a reader over its decompressed bytes.
func openStream(path string, c Compression) (io.ReadCloser, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	if c == CompressionNone {
		return file, nil
	}

	dec, ok := decoders[c]
	if !ok {
		_ = file.Close()
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCompression, c)
	}
	rc, err := dec(file)
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to decompress %s (%s): %w", path, c, err)
	}
	return &stream{ReadCloser: rc, file: file}, nil
}

type stream struct {
	io.ReadCloser
	file *os.File
}

func (s *stream) Close() error {
	return multierr.Append(s.ReadCloser.Close(), s.file.Close())
}
