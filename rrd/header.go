// Package rrd implements chunklake's streaming wire format: a small stream
// header followed by a sequence of length-prefixed, optionally LZ4-compressed
// Protobuf-framed messages. It is grounded on
// original_source/crates/store/re_log_encoding/src/rrd/decoder/state_machine.rs
// and original_source/crates/store/re_log_encoding/src/rrd/decoder/iterator.rs.
package rrd

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// magic identifies an chunklake RRD stream. Every StreamHeader starts with
// these four bytes.
var magic = [4]byte{'R', 'R', 'F', '2'}

// Version is the producer's version, carried in the stream header. Meta
// packs a pre-release tag into its top two bits plus a 6-bit counter: 00 is a
// finalized release, 01 is "-rc.N", 10 is "-alpha.N", 11 is "-alpha.N+dev".
type Version struct {
	Major, Minor, Patch, Meta uint8
}

const (
	metaVariantNone     = 0
	metaVariantRC       = 1
	metaVariantAlpha    = 2
	metaVariantAlphaDev = 3
)

func (v Version) variant() uint8 { return v.Meta >> 6 }
func (v Version) buildN() uint8  { return v.Meta & 0x3F }

func (v Version) String() string {
	switch v.variant() {
	case metaVariantRC:
		return fmt.Sprintf("%d.%d.%d-rc.%d", v.Major, v.Minor, v.Patch, v.buildN())
	case metaVariantAlpha:
		return fmt.Sprintf("%d.%d.%d-alpha.%d", v.Major, v.Minor, v.Patch, v.buildN())
	case metaVariantAlphaDev:
		return fmt.Sprintf("%d.%d.%d-alpha.%d+dev", v.Major, v.Minor, v.Patch, v.buildN())
	default:
		return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	}
}

// CurrentVersion is the version this package's codec implements. It is the
// baseline DecodeStreamHeader compares an incoming stream's Version against.
var CurrentVersion = Version{Major: 0, Minor: 1, Patch: 0}

// CompatibleWith reports whether a stream encoded with v can be decoded by a
// reader built against other, per the version-compatibility rule: same major
// is compatible (or same major+minor when major == 0); an "-rc" build is
// compatible with itself and with the finalized version of the same
// major.minor.patch; an "-alpha" build is never compatible with anything,
// including another "-alpha" build.
func (v Version) CompatibleWith(other Version) bool {
	if v.variant() == metaVariantAlpha || v.variant() == metaVariantAlphaDev {
		return false
	}
	if other.variant() == metaVariantAlpha || other.variant() == metaVariantAlphaDev {
		return false
	}

	if v.Major != other.Major {
		return false
	}
	if v.Major == 0 && v.Minor != other.Minor {
		return false
	}

	vIsRC := v.variant() == metaVariantRC
	otherIsRC := other.variant() == metaVariantRC
	switch {
	case vIsRC && otherIsRC:
		return v.Minor == other.Minor && v.Patch == other.Patch && v.buildN() == other.buildN()
	case vIsRC:
		return v.Minor == other.Minor && v.Patch == other.Patch && other.variant() == metaVariantNone
	case otherIsRC:
		return v.Minor == other.Minor && v.Patch == other.Patch && v.variant() == metaVariantNone
	default:
		return true
	}
}

// Compression selects how ArrowMsg payloads are framed on the wire.
type Compression uint8

const (
	CompressionOff Compression = iota
	CompressionLZ4
)

func (c Compression) String() string {
	if c == CompressionLZ4 {
		return "lz4"
	}
	return "off"
}

// Serializer selects the message envelope format. Only Protobuf exists
// today, but the byte is reserved on the wire so a future serializer can be
// introduced without bumping StreamHeader's layout.
type Serializer uint8

const (
	SerializerProtobuf Serializer = iota
)

// Options is the (compression, serializer) pair negotiated for an entire
// stream. It cannot vary message-to-message.
type Options struct {
	Compression Compression
	Serializer  Serializer
}

var (
	ProtobufUncompressed = Options{Compression: CompressionOff, Serializer: SerializerProtobuf}
	ProtobufCompressed   = Options{Compression: CompressionLZ4, Serializer: SerializerProtobuf}
)

// StreamHeader is the fixed-size preamble written once at the start of every
// RRD stream (and again, if streams are concatenated, at the start of each
// subsequent one).
type StreamHeader struct {
	Version Version
	Options Options
}

// StreamHeaderEncodedSize is StreamHeader's wire size in bytes: 4 bytes
// magic, 4 bytes version, 2 bytes options, 6 bytes reserved for future use.
const StreamHeaderEncodedSize = 16

// EncodeTo writes h's wire representation to buf, which must be at least
// StreamHeaderEncodedSize bytes.
func (h StreamHeader) EncodeTo(buf []byte) {
	copy(buf[0:4], magic[:])
	buf[4] = h.Version.Major
	buf[5] = h.Version.Minor
	buf[6] = h.Version.Patch
	buf[7] = h.Version.Meta
	buf[8] = byte(h.Options.Compression)
	buf[9] = byte(h.Options.Serializer)
	for i := 10; i < StreamHeaderEncodedSize; i++ {
		buf[i] = 0
	}
}

// DecodeStreamHeader parses data, which must be exactly StreamHeaderEncodedSize
// bytes, into a StreamHeader.
func DecodeStreamHeader(data []byte) (StreamHeader, error) {
	if len(data) != StreamHeaderEncodedSize {
		return StreamHeader{}, ErrHeaderDecoding.New(fmt.Sprintf("stream header must be %d bytes, got %d", StreamHeaderEncodedSize, len(data)))
	}
	if !bytes.Equal(data[0:4], magic[:]) {
		return StreamHeader{}, ErrInvalidMagic.New(data[0:4])
	}

	version := Version{Major: data[4], Minor: data[5], Patch: data[6], Meta: data[7]}
	if !version.CompatibleWith(CurrentVersion) {
		return StreamHeader{}, ErrUnsupportedVersion.New(version)
	}

	compression := Compression(data[8])
	if compression != CompressionOff && compression != CompressionLZ4 {
		return StreamHeader{}, ErrUnknownOption.New("compression", data[8])
	}
	serializer := Serializer(data[9])
	if serializer != SerializerProtobuf {
		return StreamHeader{}, ErrUnknownOption.New("serializer", data[9])
	}

	return StreamHeader{
		Version: version,
		Options: Options{Compression: compression, Serializer: serializer},
	}, nil
}

// uncompressedLenPrefixSize is the width of the little-endian length prefix
// that precedes an LZ4-compressed payload, recording the decompressed size.
const uncompressedLenPrefixSize = 8

func putUint64LE(buf []byte, v uint64) { binary.LittleEndian.PutUint64(buf, v) }
func getUint64LE(buf []byte) uint64    { return binary.LittleEndian.Uint64(buf) }
