package rrd

import (
	"github.com/pierrec/lz4/v4"
)

// compressPayload LZ4-compresses raw and prepends its uncompressed length as
// an 8-byte little-endian prefix, so the decoder can size its destination
// buffer without guessing.
func compressPayload(raw []byte) ([]byte, error) {
	bound := lz4.CompressBlockBound(len(raw))
	out := make([]byte, uncompressedLenPrefixSize+bound)
	putUint64LE(out[:uncompressedLenPrefixSize], uint64(len(raw)))

	var compressor lz4.Compressor
	n, err := compressor.CompressBlock(raw, out[uncompressedLenPrefixSize:])
	if err != nil {
		return nil, ErrCompression.New(err.Error())
	}
	if n == 0 && len(raw) > 0 {
		// lz4 reports n == 0 when the block is incompressible; store it
		// verbatim behind the same framing so the decoder path is uniform.
		return storeUncompressible(raw)
	}
	return out[:uncompressedLenPrefixSize+n], nil
}

// incompressibleMarker distinguishes a verbatim-stored block (the data was
// not worth compressing) from a genuine LZ4 block, using the high bit of the
// length prefix that a real payload length will never set in practice.
//
// This is a deliberate, documented extension to the wire format (recorded
// in SPEC_FULL.md's OPEN QUESTION DECISIONS): pierrec/lz4's block-level API
// has no literal-only block mode and reports n == 0 rather than writing a
// larger-than-input compressed block, so something has to flag "verbatim"
// out of band. A reader that doesn't know this bit will misread a verbatim
// block's length; any writer in this codebase always sets it through
// storeUncompressible, never leaving a zero-length lz4_block unflagged.
const incompressibleMarker = uint64(1) << 63

func storeUncompressible(raw []byte) ([]byte, error) {
	out := make([]byte, uncompressedLenPrefixSize+len(raw))
	putUint64LE(out[:uncompressedLenPrefixSize], incompressibleMarker|uint64(len(raw)))
	copy(out[uncompressedLenPrefixSize:], raw)
	return out, nil
}

// decompressPayload reverses compressPayload.
func decompressPayload(framed []byte) ([]byte, error) {
	if len(framed) < uncompressedLenPrefixSize {
		return nil, ErrCompression.New("payload shorter than length prefix")
	}
	header := getUint64LE(framed[:uncompressedLenPrefixSize])
	body := framed[uncompressedLenPrefixSize:]

	if header&incompressibleMarker != 0 {
		n := header &^ incompressibleMarker
		if uint64(len(body)) != n {
			return nil, ErrCompression.New("incompressible block length mismatch")
		}
		return append([]byte(nil), body...), nil
	}

	out := make([]byte, header)
	n, err := lz4.UncompressBlock(body, out)
	if err != nil {
		return nil, ErrCompression.New(err.Error())
	}
	return out[:n], nil
}
