package rrd

import errors "gopkg.in/src-d/go-errors.v1"

// These kinds are the taxonomy of failures that can occur while parsing a
// byte stream into a StreamHeader/MessageHeader/Message; I/O failures of
// the caller's reader or writer are reported as ErrIO instead.
var (
	ErrInvalidMagic      = errors.NewKind("rrd: invalid magic bytes %v")
	ErrUnsupportedVersion = errors.NewKind("rrd: unsupported version %v")
	ErrUnknownOption     = errors.NewKind("rrd: unknown %s option %v")
	ErrHeaderDecoding    = errors.NewKind("rrd: failed to decode header: %s")
	ErrPayloadDecoding   = errors.NewKind("rrd: failed to decode payload: %s")
	ErrCompression       = errors.NewKind("rrd: compression error: %s")
)

// ErrIO wraps an error returned by the caller-supplied reader while an
// Iterator was pulling more bytes, or by the writer an Encoder writes to.
var ErrIO = errors.NewKind("rrd: io error: %s")
