// Package manifest projects an unpacked Debian package into the
// PackageInstallInfo record describing what an installation would track.
package manifest

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/etnz/deb-unpack/deb"
)

// FileEntry is a payload file of the package.
type FileEntry struct {
	// Path is relative to the filesystem root, e.g. "usr/bin/app".
	Path string `json:"path" yaml:"path"`
	// CanRemove is false for configuration files listed in conffiles.
	CanRemove bool `json:"can_remove" yaml:"can_remove"`
}

// PackageInstallInfo describes a package and the files it would install.
type PackageInstallInfo struct {
	Name         string      `json:"name" yaml:"name"`
	Version      string      `json:"version" yaml:"version"`
	Architecture *string     `json:"architecture" yaml:"architecture"`
	Description  *string     `json:"description" yaml:"description"`
	Files        []FileEntry `json:"files" yaml:"files"`
	// InstallFinished is always false: unpacking installs nothing.
	InstallFinished bool `json:"installFinished" yaml:"installFinished"`
}

// FromControl builds the metadata part of a PackageInstallInfo. Package and
// Version are required.
func FromControl(c *deb.Control) (*PackageInstallInfo, error) {
	name := c.Get(string(deb.FieldPackage))
	if name == "" {
		return nil, fmt.Errorf("control file has no %s field", deb.FieldPackage)
	}
	version := c.Get(string(deb.FieldVersion))
	if version == "" {
		return nil, fmt.Errorf("control file has no %s field", deb.FieldVersion)
	}
	return &PackageInstallInfo{
		Name:         name,
		Version:      version,
		Architecture: optional(c, deb.FieldArchitecture),
		Description:  optional(c, deb.FieldDescription),
	}, nil
}

func optional(c *deb.Control, f deb.ControlField) *string {
	v, ok := c.Lookup(string(f))
	if !ok {
		return nil
	}
	return &v
}

// FromResult builds a PackageInstallInfo from a completed unpack, listing
// the files extracted under the data directory.
func FromResult(r *deb.Result) (*PackageInstallInfo, error) {
	info, err := FromControl(r.Control)
	if err != nil {
		return nil, err
	}

	conffiles, err := readConffiles(filepath.Join(r.WorkDir, deb.SubdirControl, string(deb.FileConffiles)))
	if err != nil {
		return nil, fmt.Errorf("reading conffiles: %w", err)
	}
	files, err := ListFiles(r.DataDir(), conffiles)
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}
	info.Files = files
	return info, nil
}

// ListFiles walks dir and returns its regular files and symlinks as slash
// separated relative paths, sorted. Paths whose absolute form is in
// conffiles are not removable. A missing dir yields no files.
func ListFiles(dir string, conffiles map[string]bool) ([]FileEntry, error) {
	var files []FileEntry
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir && errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		files = append(files, FileEntry{
			Path:      rel,
			CanRemove: !conffiles["/"+rel],
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})
	return files, nil
}

// readConffiles returns the set of absolute paths listed in a conffiles
// file. A missing file is an empty set.
func readConffiles(path string) (map[string]bool, error) {
	set := make(map[string]bool)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return set, nil
		}
		return nil, err
	}
	defer f.Close()

	s := bufio.NewScanner(f)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line != "" {
			set[line] = true
		}
	}
	return set, s.Err()
}
