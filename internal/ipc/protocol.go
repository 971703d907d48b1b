// Package ipc implements the framed request/response protocol over
// the daemon's named local socket.
package ipc

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// FailurePrefix is the single byte marking a failure response; the
// rest of the payload is a human-readable message.
const FailurePrefix byte = 0x07

// maxFrameSize bounds one request frame. Commands are short argv
// lists; anything larger is a broken or hostile client.
const maxFrameSize = 64 * 1024

// EncodeFrame packs an argv list into one request frame:
// a 4-byte little-endian length followed by NUL-terminated arguments
// and a trailing empty argument.
func EncodeFrame(args []string) []byte {
	var body bytes.Buffer
	for _, a := range args {
		body.WriteString(a)
		body.WriteByte(0)
	}
	body.WriteByte(0)

	frame := make([]byte, 4+body.Len())
	binary.LittleEndian.PutUint32(frame[:4], uint32(body.Len()))
	copy(frame[4:], body.Bytes())
	return frame
}

// DecodeFrame reads one request frame and returns the argv list.
func DecodeFrame(r io.Reader) ([]string, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, fmt.Errorf("failed to read frame length: %w", err)
	}
	size := binary.LittleEndian.Uint32(lenBuf[:])
	if size == 0 || size > maxFrameSize {
		return nil, fmt.Errorf("invalid frame length %d", size)
	}

	body := make([]byte, size)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, fmt.Errorf("failed to read frame body: %w", err)
	}

	// The body is arg\0arg\0...\0\0; a trailing empty token marks the
	// end and is not an argument.
	var args []string
	for len(body) > 0 {
		i := bytes.IndexByte(body, 0)
		if i < 0 {
			args = append(args, string(body))
			break
		}
		if i == 0 {
			break
		}
		args = append(args, string(body[:i]))
		body = body[i+1:]
	}
	return args, nil
}

// FailureResponse builds a failure payload from a message.
func FailureResponse(msg string) []byte {
	out := make([]byte, 0, len(msg)+1)
	out = append(out, FailurePrefix)
	return append(out, msg...)
}
