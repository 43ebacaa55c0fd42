package deb

import (
	"errors"
	"fmt"
)

// Kind classifies a fatal unpack failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindNotAFile
	KindWrongExtension
	KindContainerOpen
	KindMaterialize
	KindUnsupportedCompression
	KindTarUnpack
	KindControlRead
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "file not found"
	case KindNotAFile:
		return "not a regular file"
	case KindWrongExtension:
		return "not a .deb file"
	case KindContainerOpen:
		return "reading ar container"
	case KindMaterialize:
		return "materializing member"
	case KindUnsupportedCompression:
		return "unsupported compression"
	case KindTarUnpack:
		return "unpacking tar"
	case KindControlRead:
		return "reading control file"
	default:
		return "unknown error"
	}
}

// Error is a fatal failure of the unpack pipeline.
type Error struct {
	Kind Kind
	// Path is the file the failure relates to, if any.
	Path string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Path != "" {
		msg = fmt.Sprintf("%s %s", msg, e.Path)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same Kind. It lets the
// sentinel values below be used with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrNotFound               = &Error{Kind: KindNotFound}
	ErrNotAFile               = &Error{Kind: KindNotAFile}
	ErrWrongExtension         = &Error{Kind: KindWrongExtension}
	ErrContainerOpen          = &Error{Kind: KindContainerOpen}
	ErrMaterialize            = &Error{Kind: KindMaterialize}
	ErrUnsupportedCompression = &Error{Kind: KindUnsupportedCompression}
	ErrTarUnpack              = &Error{Kind: KindTarUnpack}
	ErrControlRead            = &Error{Kind: KindControlRead}
)

// KindOf returns the Kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
