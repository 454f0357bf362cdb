package rrd

import "io"

// Encoder writes a well-formed RRD stream: one StreamHeader followed by a
// framed message per Append call, and (unless the caller opts out) a
// trailing end-of-stream marker on Finish.
type Encoder struct {
	w       io.Writer
	version Version
	options Options

	wroteHeader bool
}

// NewEncoder starts an Encoder that will write version and options as its
// StreamHeader on the first Append or Finish call.
func NewEncoder(w io.Writer, version Version, options Options) *Encoder {
	return &Encoder{w: w, version: version, options: options}
}

func (e *Encoder) ensureHeader() error {
	if e.wroteHeader {
		return nil
	}
	var buf [StreamHeaderEncodedSize]byte
	StreamHeader{Version: e.version, Options: e.options}.EncodeTo(buf[:])
	if _, err := e.w.Write(buf[:]); err != nil {
		return ErrIO.New(err.Error())
	}
	e.wroteHeader = true
	return nil
}

func (e *Encoder) writeFrame(kind MessageKind, payload []byte) (int, error) {
	if err := e.ensureHeader(); err != nil {
		return 0, err
	}

	var headerBuf [MessageHeaderEncodedSize]byte
	MessageHeader{Kind: kind, Len: uint64(len(payload))}.EncodeTo(headerBuf[:])

	if _, err := e.w.Write(headerBuf[:]); err != nil {
		return 0, ErrIO.New(err.Error())
	}
	if len(payload) > 0 {
		if _, err := e.w.Write(payload); err != nil {
			return 0, ErrIO.New(err.Error())
		}
	}
	return MessageHeaderEncodedSize + len(payload), nil
}

// AppendSetStoreInfo writes m as the next message. Returns the size of the
// message frame (header plus payload); the StreamHeader written before the
// first message is not counted.
func (e *Encoder) AppendSetStoreInfo(m SetStoreInfo) (int, error) {
	return e.writeFrame(KindSetStoreInfo, EncodeSetStoreInfo(m))
}

// AppendArrowMsg writes m as the next message, LZ4-compressing its payload
// first if the stream's Options call for it.
func (e *Encoder) AppendArrowMsg(m ArrowMsg) (int, error) {
	payload := EncodeArrowMsg(m)
	if e.options.Compression == CompressionLZ4 {
		var err error
		payload, err = compressPayload(payload)
		if err != nil {
			return 0, err
		}
	}
	return e.writeFrame(KindArrowMsg, payload)
}

// AppendBlueprintActivationCommand writes m as the next message.
func (e *Encoder) AppendBlueprintActivationCommand(m BlueprintActivationCommand) (int, error) {
	return e.writeFrame(KindBlueprintActivationCommand, EncodeBlueprintActivationCommand(m))
}

// Finish writes the end-of-stream marker. A caller that wants to test how
// decoders handle a short-circuited stream may simply omit this call.
func (e *Encoder) Finish() error {
	if err := e.ensureHeader(); err != nil {
		return err
	}
	var headerBuf [MessageHeaderEncodedSize]byte
	eosHeader.EncodeTo(headerBuf[:])
	if _, err := e.w.Write(headerBuf[:]); err != nil {
		return ErrIO.New(err.Error())
	}
	return nil
}
