package deb

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/ulikunitz/xz"
)

// Compression is the codec wrapping a tar member.
type Compression int

const (
	None Compression = iota // None is a plain .tar stream.
	Gzip                    // Gzip is a .tar.gz stream.
	Xz                      // Xz is a .tar.xz stream.
)

func (c Compression) String() string {
	switch c {
	case None:
		return "none"
	case Gzip:
		return "gzip"
	case Xz:
		return "xz"
	default:
		return fmt.Sprintf("Compression(%d)", int(c))
	}
}

// Extension returns the file suffix selecting c.
func (c Compression) Extension() string {
	switch c {
	case None:
		return ".tar"
	case Gzip:
		return ".tar.gz"
	case Xz:
		return ".tar.xz"
	default:
		return ""
	}
}

// DetectCompression selects the codec from the suffix of filename alone.
// Any suffix other than .tar, .tar.gz or .tar.xz is an
// ErrUnsupportedCompression.
func DetectCompression(filename string) (Compression, error) {
	switch {
	case strings.HasSuffix(filename, Gzip.Extension()):
		return Gzip, nil
	case strings.HasSuffix(filename, Xz.Extension()):
		return Xz, nil
	case strings.HasSuffix(filename, None.Extension()):
		return None, nil
	default:
		return None, &Error{
			Kind: KindUnsupportedCompression,
			Path: filename,
			Err:  fmt.Errorf("unknown extension %q", filepath.Ext(filename)),
		}
	}
}

type readCloserWrapper struct {
	io.Reader
	closer func() error
}

func (r *readCloserWrapper) Close() error {
	if r.closer != nil {
		return r.closer()
	}
	return nil
}

// Decompress wraps r with the decoder for c. The returned stream is decoded
// on demand.
func Decompress(c Compression, r io.Reader) (io.ReadCloser, error) {
	switch c {
	case None:
		return io.NopCloser(r), nil
	case Gzip:
		gzr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("opening gzip stream: %w", err)
		}
		return gzr, nil
	case Xz:
		xzr, err := xz.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("opening xz stream: %w", err)
		}
		return io.NopCloser(xzr), nil
	default:
		return nil, &Error{Kind: KindUnsupportedCompression, Err: fmt.Errorf("unknown compression %v", c)}
	}
}

// OpenTar opens the tar-bearing file at path and returns its decompressed
// stream. Closing the stream closes the file.
func OpenTar(path string) (io.ReadCloser, Compression, error) {
	c, err := DetectCompression(filepath.Base(path))
	if err != nil {
		return nil, c, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, c, &Error{Kind: KindTarUnpack, Path: path, Err: err}
	}
	rc, err := Decompress(c, f)
	if err != nil {
		f.Close()
		return nil, c, &Error{Kind: KindTarUnpack, Path: path, Err: err}
	}
	return &readCloserWrapper{
		Reader: rc,
		closer: func() error {
			rc.Close()
			return f.Close()
		},
	}, c, nil
}
