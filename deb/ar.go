package deb

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/blakesmith/ar"
)

const (
	// arMagic is the global header of every ar archive.
	arMagic = "!<arch>\n"
	// arHeaderSize is the size of a member header.
	arHeaderSize = ar.HEADER_BYTE_SIZE
	// arHeaderEnd terminates every member header.
	arHeaderEnd = "`\n"
)

// Member is one entry of an ar container. It reads exactly Size bytes and is
// only valid until the next call to ContainerReader.Next. A body shorter than
// Size reads as io.ErrUnexpectedEOF.
type Member struct {
	// Name is the raw identifier, with the ar space padding removed. It is
	// not guaranteed to be valid UTF-8.
	Name []byte
	Size int64

	left int64
	r    io.Reader
}

// Read reads from the member's content.
func (m *Member) Read(p []byte) (int, error) {
	n, err := m.r.Read(p)
	m.left -= int64(n)
	if errors.Is(err, io.EOF) && m.left > 0 {
		err = io.ErrUnexpectedEOF
	}
	return n, err
}

// ContainerReader is a forward-only cursor over the members of an ar
// container.
type ContainerReader struct {
	br  *bufio.Reader
	arR *ar.Reader
	cur *Member
}

// NewContainerReader checks the ar global header of r and returns a reader
// positioned on the first member.
func NewContainerReader(r io.Reader) (*ContainerReader, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(len(arMagic))
	if err != nil {
		return nil, fmt.Errorf("reading ar global header: %w", err)
	}
	if string(magic) != arMagic {
		return nil, fmt.Errorf("invalid ar global header %q", magic)
	}
	return &ContainerReader{br: br, arR: ar.NewReader(br)}, nil
}

// Next advances to the next member, discarding whatever was left unread of
// the current one. It returns io.EOF only at a clean end of the archive: a
// truncated body or a malformed header is an error.
func (c *ContainerReader) Next() (*Member, error) {
	var pad int
	if c.cur != nil {
		if _, err := io.Copy(io.Discard, c.cur); err != nil {
			return nil, fmt.Errorf("skipping member %q: %w", c.cur.Name, err)
		}
		pad = int(c.cur.Size % 2)
		c.cur = nil
	}

	// The header is checked in place; ar.Reader then skips the padding and
	// consumes it.
	buf, err := c.br.Peek(pad + arHeaderSize)
	switch {
	case errors.Is(err, io.EOF) && len(buf) <= pad:
		// A missing pad byte after the last member is tolerated.
		return nil, io.EOF
	case errors.Is(err, io.EOF):
		return nil, fmt.Errorf("truncated ar header: %w", io.ErrUnexpectedEOF)
	case err != nil:
		return nil, fmt.Errorf("reading ar header: %w", err)
	}
	size, err := parseArHeader(buf[pad:])
	if err != nil {
		return nil, err
	}

	header, err := c.arR.Next()
	if err != nil {
		return nil, fmt.Errorf("reading ar header: %w", err)
	}
	c.cur = &Member{
		Name: []byte(header.Name),
		Size: size,
		left: size,
		r:    c.arR,
	}
	return c.cur, nil
}

// parseArHeader validates a raw member header and returns the size of the
// member body. ar.Reader ignores malformed numbers, so the size is parsed
// strictly here.
func parseArHeader(h []byte) (int64, error) {
	if end := h[58:60]; string(end) != arHeaderEnd {
		return 0, fmt.Errorf("malformed ar header %q: bad terminator %q", h[:16], end)
	}
	field := bytes.TrimRight(h[48:58], " ")
	if len(field) == 0 {
		return 0, fmt.Errorf("malformed ar header %q: empty size", h[:16])
	}
	for _, b := range field {
		if b < '0' || b > '9' {
			return 0, fmt.Errorf("malformed ar header %q: size %q is not a decimal number", h[:16], field)
		}
	}
	size, err := strconv.ParseInt(string(field), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed ar header %q: %w", h[:16], err)
	}
	return size, nil
}
