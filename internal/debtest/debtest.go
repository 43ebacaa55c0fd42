// Package debtest builds .deb fixtures in memory for tests.
package debtest

import (
	"archive/tar"
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/blakesmith/ar"
	"github.com/klauspost/compress/gzip"
	"github.com/ulikunitz/xz"
)

// File is a tar entry. A zero Type is a regular file.
type File struct {
	Name     string
	Body     string
	Mode     int64
	Type     byte
	Linkname string
}

// Member is an ar member.
type Member struct {
	Name string
	Body []byte
}

// Tar returns a tar stream holding files, in order.
func Tar(t testing.TB, files ...File) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, f := range files {
		header := &tar.Header{
			Name:     f.Name,
			Mode:     f.Mode,
			Typeflag: f.Type,
			Linkname: f.Linkname,
			ModTime:  time.Unix(1700000000, 0),
		}
		if header.Typeflag == 0 {
			header.Typeflag = tar.TypeReg
		}
		if header.Mode == 0 {
			header.Mode = 0644
			if header.Typeflag == tar.TypeDir {
				header.Mode = 0755
			}
		}
		if header.Typeflag == tar.TypeReg {
			header.Size = int64(len(f.Body))
		}
		if err := tw.WriteHeader(header); err != nil {
			t.Fatalf("writing tar header %s: %v", f.Name, err)
		}
		if header.Typeflag == tar.TypeReg {
			if _, err := tw.Write([]byte(f.Body)); err != nil {
				t.Fatalf("writing tar body %s: %v", f.Name, err)
			}
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("closing tar writer: %v", err)
	}
	return buf.Bytes()
}

// Gzip compresses data with gzip.
func Gzip(t testing.TB, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write(data); err != nil {
		t.Fatalf("writing gzip: %v", err)
	}
	if err := gw.Close(); err != nil {
		t.Fatalf("closing gzip: %v", err)
	}
	return buf.Bytes()
}

// Xz compresses data with xz.
func Xz(t testing.TB, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	xw, err := xz.NewWriter(&buf)
	if err != nil {
		t.Fatalf("creating xz writer: %v", err)
	}
	if _, err := xw.Write(data); err != nil {
		t.Fatalf("writing xz: %v", err)
	}
	if err := xw.Close(); err != nil {
		t.Fatalf("closing xz: %v", err)
	}
	return buf.Bytes()
}

// Ar returns an ar container holding members, in order. Names are written
// as-is and must fit the 16 byte ar name field.
func Ar(t testing.TB, members ...Member) []byte {
	t.Helper()
	var buf bytes.Buffer
	arW := ar.NewWriter(&buf)
	if err := arW.WriteGlobalHeader(); err != nil {
		t.Fatalf("writing ar global header: %v", err)
	}
	for _, m := range members {
		header := &ar.Header{
			Name:    m.Name,
			Size:    int64(len(m.Body)),
			Mode:    0644,
			ModTime: time.Unix(1700000000, 0),
		}
		if err := arW.WriteHeader(header); err != nil {
			t.Fatalf("writing ar header %q: %v", m.Name, err)
		}
		if _, err := arW.Write(m.Body); err != nil {
			t.Fatalf("writing ar member %q: %v", m.Name, err)
		}
	}
	return buf.Bytes()
}

// Deb returns a standard package: debian-binary, control.tar.gz holding
// control, and data.tar.gz holding data.
func Deb(t testing.TB, control string, data ...File) []byte {
	t.Helper()
	return Ar(t,
		Member{Name: "debian-binary", Body: []byte("2.0\n")},
		Member{Name: "control.tar.gz", Body: Gzip(t, Tar(t, File{Name: "./control", Body: control}))},
		Member{Name: "data.tar.gz", Body: Gzip(t, Tar(t, data...))},
	)
}

// Write stores content as dir/name and returns its path.
func Write(t testing.TB, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}
