// Package errdefs defines the error taxonomy shared by the acquisition
// pipeline components.
package errdefs

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindNetwork
	KindIO
	KindUnsupportedFormat
	KindExtraction
	KindFilesystem
	KindPermission
	KindConfig
)

// String returns the taxonomy name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "NetworkError"
	case KindIO:
		return "IOError"
	case KindUnsupportedFormat:
		return "UnsupportedFormatError"
	case KindExtraction:
		return "ExtractionError"
	case KindFilesystem:
		return "FilesystemError"
	case KindPermission:
		return "PermissionError"
	case KindConfig:
		return "ConfigError"
	}
	return "UnknownError"
}

// Error is a categorized failure raised by a pipeline component.
type Error struct {
	Kind Kind
	Op   string // operation that failed, e.g. "probe", "rename"
	Path string // URL or filesystem path involved, if any
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Kind.String() + ": " + e.Op
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a categorized error.
func New(kind Kind, op, path string, err error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

// Newf creates a categorized error with a formatted cause.
func Newf(kind Kind, op, path, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: fmt.Errorf(format, args...)}
}

// Network creates a NetworkError.
func Network(op, path string, err error) *Error { return New(KindNetwork, op, path, err) }

// IO creates an IOError.
func IO(op, path string, err error) *Error { return New(KindIO, op, path, err) }

// Unsupported creates an UnsupportedFormatError.
func Unsupported(op, path string, err error) *Error {
	return New(KindUnsupportedFormat, op, path, err)
}

// Extraction creates an ExtractionError.
func Extraction(op, path string, err error) *Error { return New(KindExtraction, op, path, err) }

// Filesystem creates a FilesystemError.
func Filesystem(op, path string, err error) *Error { return New(KindFilesystem, op, path, err) }

// Permission creates a PermissionError.
func Permission(op, path string, err error) *Error { return New(KindPermission, op, path, err) }

// Config creates a ConfigError.
func Config(op, path string, err error) *Error { return New(KindConfig, op, path, err) }

// KindOf returns the kind of the first categorized error in the chain,
// or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Categorized reports whether err already carries a kind.
func Categorized(err error) bool {
	return KindOf(err) != KindUnknown
}
