// Package wire implements the length-prefixed, self-describing binary
// framing the controller and runner exchange RPCs over, and the push/pull
// framing the telemetry bus uses.
//
// Grounded on _examples/original_source/mite/zmq.py's pack_msg/unpack_msg
// framing and _MSG_TYPE_* constants; the transport here is a plain
// net.Conn rather than a ZeroMQ socket, and the codec is
// github.com/vmihailenco/msgpack/v5 rather than ZeroMQ's wire format,
// since a real ZeroMQ/nanomsg binding cannot be hand-authored without
// compiling it. msgpack preserves the "self-describing binary encoding"
// requirement: a frame carries its own field names, so controller and
// runner binaries built from different versions can still decode each
// other's messages.
package wire

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// Message types for the controller/runner RPC, numbered to match
// original_source/mite/zmq.py's _MSG_TYPE_HELLO/_MSG_TYPE_REQUEST_WORK/
// _MSG_TYPE_BYE exactly.
const (
	MsgHello       = 1
	MsgRequestWork = 2
	MsgBye         = 3

	// MsgEnvelope carries one telemetry envelope over the push/pull bus.
	// It has no counterpart in the original ZeroMQ numbering since the
	// source's telemetry bus predates the unified envelope format; it is
	// assigned the next free tag.
	MsgEnvelope = 4
)

// maxFrameSize bounds a single frame to guard against a corrupt length
// prefix turning into an unbounded allocation.
const maxFrameSize = 64 << 20

// frame is the on-wire envelope: a message type tag plus an opaque
// msgpack-encoded payload, so ReadFrame can dispatch on Type before the
// caller has decided what Go type to decode Payload into.
type frame struct {
	Type    int    `msgpack:"type"`
	Payload []byte `msgpack:"payload"`
}

// WriteFrame encodes payload with msgpack, wraps it with msgType, and
// writes the whole thing as one length-prefixed frame.
func WriteFrame(w io.Writer, msgType int, payload any) error {
	encodedPayload, err := msgpack.Marshal(payload)
	if err != nil {
		return fmt.Errorf("wire: marshaling payload: %w", err)
	}

	body, err := msgpack.Marshal(frame{Type: msgType, Payload: encodedPayload})
	if err != nil {
		return fmt.Errorf("wire: marshaling frame: %w", err)
	}

	var lenPrefix [4]byte
	binary.BigEndian.PutUint32(lenPrefix[:], uint32(len(body)))
	if _, err := w.Write(lenPrefix[:]); err != nil {
		return fmt.Errorf("wire: writing length prefix: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("wire: writing frame body: %w", err)
	}
	return nil
}

// ReadFrame reads one length-prefixed frame and returns its message type
// and raw msgpack-encoded payload, ready for a second Unmarshal into the
// concrete type the caller expects for that message type.
func ReadFrame(r io.Reader) (msgType int, payload []byte, err error) {
	var lenPrefix [4]byte
	if _, err := io.ReadFull(r, lenPrefix[:]); err != nil {
		return 0, nil, err
	}
	size := binary.BigEndian.Uint32(lenPrefix[:])
	if size > maxFrameSize {
		return 0, nil, fmt.Errorf("wire: frame size %d exceeds maximum %d", size, maxFrameSize)
	}

	body := make([]byte, size)
	if _, err := io.ReadFull(r, body); err != nil {
		return 0, nil, fmt.Errorf("wire: reading frame body: %w", err)
	}

	var f frame
	if err := msgpack.Unmarshal(body, &f); err != nil {
		return 0, nil, fmt.Errorf("wire: unmarshaling frame: %w", err)
	}
	return f.Type, f.Payload, nil
}

// DecodePayload unmarshals a ReadFrame payload into v.
func DecodePayload(payload []byte, v any) error {
	if err := msgpack.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("wire: unmarshaling payload: %w", err)
	}
	return nil
}
