package rrd

import "encoding/binary"

// MessageKind identifies a message's payload type, carried in its
// MessageHeader.
type MessageKind uint8

const (
	KindSetStoreInfo             MessageKind = 1
	KindArrowMsg                 MessageKind = 2
	KindBlueprintActivationCommand MessageKind = 3

	// KindEndOfStream is not a real message: it is a zero-length sentinel
	// that tells the decoder to rewind to DecoderStateStreamHeader, because
	// another stream may be concatenated right behind it.
	KindEndOfStream MessageKind = 255
)

// MessageHeader precedes every message's payload on the wire.
type MessageHeader struct {
	Kind MessageKind
	Len  uint64
}

// MessageHeaderEncodedSize is MessageHeader's fixed wire size: 1 byte kind,
// 8 bytes little-endian payload length.
const MessageHeaderEncodedSize = 9

func (h MessageHeader) EncodeTo(buf []byte) {
	buf[0] = byte(h.Kind)
	binary.LittleEndian.PutUint64(buf[1:9], h.Len)
}

func DecodeMessageHeader(data []byte) (MessageHeader, error) {
	if len(data) != MessageHeaderEncodedSize {
		return MessageHeader{}, ErrHeaderDecoding.New("message header must be 9 bytes")
	}
	kind := MessageKind(data[0])
	switch kind {
	case KindSetStoreInfo, KindArrowMsg, KindBlueprintActivationCommand, KindEndOfStream:
	default:
		return MessageHeader{}, ErrHeaderDecoding.New("unknown message kind")
	}
	return MessageHeader{
		Kind: kind,
		Len:  binary.LittleEndian.Uint64(data[1:9]),
	}, nil
}

// eosHeader is the zero-length end-of-stream marker appended by Encoder's
// Finish. It carries no payload bytes.
var eosHeader = MessageHeader{Kind: KindEndOfStream, Len: 0}

func (h MessageHeader) isEndOfStream() bool { return h.Kind == KindEndOfStream }
