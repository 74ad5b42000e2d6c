package server

import (
	"encoding/binary"
	"fmt"
	"io"
)

// MaxFrameSize is the sanity cap on a framed message body.
const MaxFrameSize = 10 * 1024 * 1024

// ReadFrame reads one length-prefixed message: a 4-byte big-endian
// length followed by exactly that many bytes. An implausible length
// is a transport error; the caller drops the connection.
func ReadFrame(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}

	n := int32(binary.BigEndian.Uint32(lenBuf[:]))
	if n <= 0 || n > MaxFrameSize {
		return nil, fmt.Errorf("implausible frame length %d", n)
	}

	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}
	return body, nil
}

// WriteFrame writes one length-prefixed message.
func WriteFrame(w io.Writer, payload []byte) error {
	if len(payload) > MaxFrameSize {
		return fmt.Errorf("payload of %d bytes exceeds frame cap", len(payload))
	}

	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}
