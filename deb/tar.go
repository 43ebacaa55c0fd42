package deb

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	securejoin "github.com/cyphar/filepath-securejoin"
)

// TarExtractor materializes the entries of a tar stream under Dest.
type TarExtractor struct {
	// Dest is the directory entries are extracted into. It is created if
	// missing.
	Dest string
	// Source names the tar file in events and errors.
	Source string
	// SafePaths confines entry names and hard link targets to Dest.
	SafePaths bool
	Listener  Listener
}

// Extract unpacks every entry of r and returns the number of entries
// materialized.
func (x *TarExtractor) Extract(r io.Reader) (int, error) {
	if err := os.MkdirAll(x.Dest, 0755); err != nil {
		return 0, fmt.Errorf("creating %s: %w", x.Dest, err)
	}

	tr := tar.NewReader(r)
	n := 0
	for {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return n, fmt.Errorf("reading tar header: %w", err)
		}

		ok, err := x.extractEntry(header, tr)
		if err != nil {
			return n, fmt.Errorf("extracting %s: %w", header.Name, err)
		}
		if ok {
			n++
		}
	}
	return n, nil
}

func (x *TarExtractor) extractEntry(header *tar.Header, r io.Reader) (bool, error) {
	target, err := x.join(header.Name)
	if err != nil {
		return false, err
	}
	mode := header.FileInfo().Mode().Perm()

	switch header.Typeflag {
	case tar.TypeDir:
		if err := os.MkdirAll(target, 0755); err != nil {
			return false, err
		}
		// Keep the directory writable so later entries can land in it.
		return true, os.Chmod(target, mode|0700)

	case tar.TypeReg:
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return false, err
		}
		// Replace rather than write through an existing symlink.
		if err := removeExisting(target); err != nil {
			return false, err
		}
		if err := writeFile(target, r, mode); err != nil {
			return false, err
		}
		if !header.ModTime.IsZero() {
			if err := os.Chtimes(target, header.ModTime, header.ModTime); err != nil {
				return false, fmt.Errorf("setting modification time: %w", err)
			}
		}
		return true, nil

	case tar.TypeSymlink:
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return false, err
		}
		if err := removeExisting(target); err != nil {
			return false, err
		}
		return true, os.Symlink(header.Linkname, target)

	case tar.TypeLink:
		oldname, err := x.join(header.Linkname)
		if err != nil {
			return false, err
		}
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return false, err
		}
		if err := removeExisting(target); err != nil {
			return false, err
		}
		return true, os.Link(oldname, target)

	default:
		x.emit(EventTarEntrySkipped{
			Source: x.Source,
			Entry:  header.Name,
			Type:   fmt.Sprintf("%q", header.Typeflag),
		})
		return false, nil
	}
}

func (x *TarExtractor) join(name string) (string, error) {
	return joinPath(x.Dest, name, x.SafePaths)
}

func (x *TarExtractor) emit(e fmt.Stringer) {
	if x.Listener != nil {
		x.Listener(e)
	}
}

// joinPath joins name onto dir. With safe set, the result never leaves dir:
// ".." segments and symlinks in the parent directories are resolved inside
// dir. The last component is not resolved, so an existing symlink can be
// replaced rather than followed.
func joinPath(dir, name string, safe bool) (string, error) {
	if !safe {
		return filepath.Join(dir, name), nil
	}
	clean := filepath.Clean(string(filepath.Separator) + name)
	parent, err := securejoin.SecureJoin(dir, filepath.Dir(clean))
	if err != nil {
		return "", err
	}
	return filepath.Join(parent, filepath.Base(clean)), nil
}

func writeFile(path string, r io.Reader, mode os.FileMode) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Chmod(path, mode)
}

func removeExisting(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
