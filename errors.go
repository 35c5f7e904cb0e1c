package regcodec

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnsupportedEncoding   = errors.New("regcodec: unsupported encoding")
	ErrUnsupportedType       = errors.New("regcodec: unsupported type for encoding")
	ErrUnsupportedLength     = errors.New("regcodec: unsupported length for encoding")
	ErrMissingScaleFactor    = errors.New("regcodec: scale factor required")
	ErrUnexpectedScaleFactor = errors.New("regcodec: scale factor not allowed")
	ErrInvalidScaleFactor    = errors.New("regcodec: scale factor must be finite and non-zero")
	ErrLengthMismatch        = errors.New("regcodec: value length does not match register length")
	ErrNullValue             = errors.New("regcodec: null value")
	ErrRange                 = errors.New("regcodec: value out of range")
)

// CodecError describes a rejected Serialize or Deserialize call.
// Err is always one of the package sentinels.
type CodecError struct {
	Op       string // "serialize" or "deserialize"
	Encoding Encoding
	Kind     Kind // value kind (serialize) or requested kind (deserialize)
	Length   int  // buffer length in bytes
	Err      error
	Detail   string
}

func (e *CodecError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", e.Op, e.Encoding)
	if e.Kind != KindInvalid {
		fmt.Fprintf(&b, " %s", e.Kind)
	}
	if e.Length > 0 {
		fmt.Fprintf(&b, " (%d bytes)", e.Length)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	return b.String()
}

func (e *CodecError) Unwrap() error { return e.Err }

// fault is the internal shape of a failure before the call context is attached.
type fault struct {
	err    error
	detail string
}

func (f *fault) Error() string {
	if f.detail == "" {
		return f.err.Error()
	}
	return f.err.Error() + ": " + f.detail
}

func (f *fault) Unwrap() error { return f.err }

func failf(err error, format string, args ...any) *fault {
	return &fault{err: err, detail: fmt.Sprintf(format, args...)}
}

func fail(err error) *fault { return &fault{err: err} }
