package deb

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Options configures Unpack.
type Options struct {
	// WorkDir receives the materialized members and the extracted
	// subdirectories. It is created if missing and never removed.
	WorkDir string
	// Listener, if set, receives progress and warning events.
	Listener Listener
	// SafePaths confines member and tar entry names to WorkDir.
	SafePaths bool
}

// TarJob is a materialized tar-bearing member waiting for extraction.
type TarJob struct {
	// Source is the path of the materialized member.
	Source string
	// Subdir is the destination subdirectory name under the working
	// directory.
	Subdir string
}

// Result describes a completed unpack.
type Result struct {
	WorkDir string
	// Members lists the resolved names of the materialized members, in
	// container order.
	Members []string
	// Jobs lists the extracted tar members, in container order.
	Jobs    []TarJob
	Control *Control
}

// ControlPath returns the path of the extracted control file.
func (r *Result) ControlPath() string {
	return filepath.Join(r.WorkDir, SubdirControl, string(FileControl))
}

// DataDir returns the directory holding the extracted payload.
func (r *Result) DataDir() string {
	return filepath.Join(r.WorkDir, SubdirData)
}

// ValidatePath checks, in this order, that path exists, is a regular file
// and has the .deb extension.
func ValidatePath(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return &Error{Kind: KindNotFound, Path: path, Err: err}
	}
	if !info.Mode().IsRegular() {
		return &Error{Kind: KindNotAFile, Path: path}
	}
	if filepath.Ext(path) != ".deb" {
		return &Error{Kind: KindWrongExtension, Path: path}
	}
	return nil
}

// Unpack extracts the .deb file at path into opts.WorkDir and parses its
// control file.
//
// Every member of the ar container is first copied into the working
// directory. Then each member whose name contains ".tar" is extracted, in
// container order, into its subdirectory (see TarSubdir). Finally
// "control/control" is parsed. The first fatal error stops the run; files
// already written are left in place.
func Unpack(path string, opts Options) (*Result, error) {
	if err := ValidatePath(path); err != nil {
		return nil, err
	}
	if opts.WorkDir == "" {
		return nil, fmt.Errorf("deb: work dir is required")
	}

	u := &unpacker{opts: opts}
	res := &Result{WorkDir: opts.WorkDir}

	if err := u.materialize(path, res); err != nil {
		return nil, err
	}
	for _, job := range res.Jobs {
		if err := u.extract(job); err != nil {
			return nil, err
		}
	}

	control, err := ReadControlFile(res.ControlPath())
	if err != nil {
		return nil, err
	}
	u.emit(EventControlParsed{Path: res.ControlPath(), Fields: control.Len()})
	res.Control = control
	return res, nil
}

type unpacker struct {
	opts Options
}

func (u *unpacker) emit(e fmt.Stringer) {
	if u.opts.Listener != nil {
		u.opts.Listener(e)
	}
}

// materialize copies every usable member of the container at path into the
// working directory and records the tar-bearing ones as jobs.
func (u *unpacker) materialize(path string, res *Result) error {
	f, err := os.Open(path)
	if err != nil {
		return &Error{Kind: KindContainerOpen, Path: path, Err: err}
	}
	defer f.Close()

	cr, err := NewContainerReader(f)
	if err != nil {
		return &Error{Kind: KindContainerOpen, Path: path, Err: err}
	}
	if err := os.MkdirAll(u.opts.WorkDir, 0755); err != nil {
		return &Error{Kind: KindMaterialize, Path: u.opts.WorkDir, Err: err}
	}

	for {
		m, err := cr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return &Error{Kind: KindContainerOpen, Path: path, Err: fmt.Errorf("reading ar header: %w", err)}
		}

		name, reason := resolveMemberName(m.Name)
		if reason != "" {
			u.emit(EventMemberSkipped{Name: fmt.Sprintf("%q", m.Name), Reason: reason})
			continue
		}

		dest, err := joinPath(u.opts.WorkDir, name, u.opts.SafePaths)
		if err != nil {
			return &Error{Kind: KindMaterialize, Path: name, Err: err}
		}
		if err := writeFile(dest, m, 0644); err != nil {
			kind := KindMaterialize
			if errors.Is(err, io.ErrUnexpectedEOF) {
				// The container ended inside the member body.
				kind = KindContainerOpen
			}
			return &Error{Kind: kind, Path: dest, Err: fmt.Errorf("copying member %s: %w", name, err)}
		}
		u.emit(EventMemberMaterialized{Name: name, Path: dest, Size: m.Size})
		res.Members = append(res.Members, name)

		if strings.Contains(name, ".tar") {
			file := filepath.Base(dest)
			subdir, fallback := TarSubdir(file)
			if fallback {
				u.emit(EventTarFallbackName{File: file, Subdir: subdir})
			}
			res.Jobs = append(res.Jobs, TarJob{Source: dest, Subdir: subdir})
		}
	}
	return nil
}

// extract decompresses and unpacks one job into its subdirectory.
func (u *unpacker) extract(job TarJob) error {
	dest := filepath.Join(u.opts.WorkDir, job.Subdir)
	if err := os.MkdirAll(dest, 0755); err != nil {
		return &Error{Kind: KindMaterialize, Path: dest, Err: err}
	}

	rc, c, err := OpenTar(job.Source)
	if err != nil {
		return err
	}
	defer rc.Close()

	u.emit(EventTarExtractStart{Source: job.Source, Dest: dest, Compression: c.String()})
	x := &TarExtractor{
		Dest:      dest,
		Source:    job.Source,
		SafePaths: u.opts.SafePaths,
		Listener:  u.opts.Listener,
	}
	n, err := x.Extract(rc)
	if err != nil {
		return &Error{Kind: KindTarUnpack, Path: job.Source, Err: fmt.Errorf("extracting into %s: %w", dest, err)}
	}
	u.emit(EventTarExtractSuccess{Source: job.Source, Dest: dest, Entries: n})
	return nil
}

// resolveMemberName decodes a raw ar identifier. It returns a non-empty
// reason when the member must be skipped.
func resolveMemberName(raw []byte) (name, reason string) {
	if !utf8.Valid(raw) {
		return "", "name is not valid UTF-8"
	}
	name = strings.TrimSpace(string(raw))
	// GNU ar keeps its symbol table ("/"), long-name table ("//") and
	// long-name references ("/123") under names starting with a slash.
	if strings.HasPrefix(name, "/") {
		return "", "GNU ar special member or long-name reference"
	}
	// GNU ar terminates names with a slash.
	name = strings.TrimRight(name, "/")
	if name == "" {
		return "", "empty name"
	}
	return name, ""
}

// TarSubdir returns the destination subdirectory for a tar-bearing member
// file name: "control" for control.tar*, "data" for data.tar*, otherwise the
// text before the first dot, or SubdirFallback when there is none. fallback
// reports whether the last rule applied.
func TarSubdir(filename string) (subdir string, fallback bool) {
	switch {
	case strings.HasPrefix(filename, "control.tar"):
		return SubdirControl, false
	case strings.HasPrefix(filename, "data.tar"):
		return SubdirData, false
	}
	if prefix, _, found := strings.Cut(filename, "."); found && prefix != "" {
		return prefix, true
	}
	return SubdirFallback, true
}
