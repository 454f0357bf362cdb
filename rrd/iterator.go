package rrd

import "io"

// Iterator pulls Messages out of a Decoder fed by reader, one Next call at
// a time, hiding the push/pull impedance mismatch between the Decoder's
// byte-chunk interface and a plain io.Reader.
type Iterator struct {
	decoder    *Decoder
	reader     io.Reader
	waitForEOS bool

	readBuf [32 * 1024]byte

	done bool
	err  error

	firstMsg *Message
}

// NewLazyIterator builds an Iterator that performs no I/O until Next is
// first called — so constructing one never fails, even against a reader
// that doesn't actually contain valid RRD data.
func NewLazyIterator(reader io.Reader) *Iterator {
	return newIterator(reader, false)
}

// NewLazyIteratorWaitForEOS is like NewLazyIterator, but Next keeps waiting
// for an explicit end-of-stream marker even after reader reports EOF,
// rather than treating EOF as the end of the stream. Useful when tailing a
// file that is still being appended to.
func NewLazyIteratorWaitForEOS(reader io.Reader) *Iterator {
	return newIterator(reader, true)
}

// NewEagerIterator is like NewLazyIterator, but performs one decode attempt
// immediately, so a malformed stream is reported synchronously at
// construction time instead of on the first Next call.
func NewEagerIterator(reader io.Reader) (*Iterator, error) {
	it := newIterator(reader, false)
	msg, err := it.Next()
	if err != nil {
		return nil, err
	}
	it.firstMsg = msg
	return it, nil
}

func newIterator(reader io.Reader, waitForEOS bool) *Iterator {
	return &Iterator{
		decoder:    NewDecoder(),
		reader:     reader,
		waitForEOS: waitForEOS,
	}
}

// NumBytesProcessed returns how many input bytes have been consumed so far.
func (it *Iterator) NumBytesProcessed() uint64 { return it.decoder.NumBytesProcessed() }

// Next returns the next Message, or (nil, nil) once the stream is
// exhausted. It is safe to keep calling Next after it returns (nil, nil);
// it will keep returning that.
func (it *Iterator) Next() (*Message, error) {
	if it.firstMsg != nil {
		msg := it.firstMsg
		it.firstMsg = nil
		return msg, nil
	}
	if it.done {
		return nil, it.err
	}

	for {
		msg, err := it.decoder.TryRead()
		if err != nil {
			it.done, it.err = true, err
			return nil, err
		}
		if msg != nil {
			return msg, nil
		}

		n, readErr := it.reader.Read(it.readBuf[:])
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, it.readBuf[:n])
			it.decoder.PushByteChunk(chunk)
		}

		if readErr == nil {
			continue
		}
		if readErr != io.EOF {
			it.done, it.err = true, ErrIO.New(readErr.Error())
			return nil, it.err
		}

		// EOF: try one more decode in case buffered bytes are enough.
		msg, err = it.decoder.TryRead()
		if err != nil {
			it.done, it.err = true, err
			return nil, err
		}
		if msg != nil {
			return msg, nil
		}
		if !it.waitForEOS || it.decoder.State() == DecoderStateStreamHeader || it.decoder.State() == DecoderStateAborted {
			it.done = true
			return nil, nil
		}
		// Still waiting on an EOS marker that hasn't arrived yet: loop back
		// around and poll the reader again instead of giving up on its EOF.
		continue
	}
}
