package hsmsss

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/arloliu/go-secsgem/hsms"
)

// messageReader reads and decodes individual HSMS messages from a net.Conn.
//
// It implements the HSMS message framing:
//  1. Read the 4-byte big-endian message length, without timeout so that the connection may idle
//  2. Validate the length, at least a header and at most hsms.MaxMessageLength
//  3. Read the header and body within T8
//  4. Decode into an HSMSMessage via hsms.DecodeMessage
//
// messageReader is not goroutine-safe; a connection has a single receiver.
type messageReader struct {
	cfg *ConnectionConfig
}

// ReadMessage reads one complete HSMS message from conn.
//
// lenBuf must be a 4-byte scratch buffer reused across calls. Decode errors are wrapped with %w,
// so callers can tell a *hsms.UnsupportedTypeError apart from a malformed frame.
func (mr *messageReader) ReadMessage(conn net.Conn, lenBuf []byte) (hsms.HSMSMessage, error) {
	if err := conn.SetReadDeadline(time.Time{}); err != nil {
		return nil, fmt.Errorf("clear read deadline: %w", err)
	}

	if _, err := io.ReadFull(conn, lenBuf); err != nil {
		return nil, fmt.Errorf("read message length: %w", err)
	}

	msgLen := binary.BigEndian.Uint32(lenBuf)
	if msgLen < hsms.HeaderSize || msgLen > hsms.MaxMessageLength {
		return nil, fmt.Errorf("%w: message length %d", hsms.ErrInvalidFrameLength, msgLen)
	}

	if err := conn.SetReadDeadline(time.Now().Add(mr.cfg.T8Timeout())); err != nil {
		return nil, fmt.Errorf("set T8 deadline: %w", err)
	}

	payload := make([]byte, msgLen)
	if _, err := io.ReadFull(conn, payload); err != nil {
		return nil, fmt.Errorf("read message payload: %w", err)
	}

	msg, err := hsms.DecodeMessage(msgLen, payload)
	if err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}

	return msg, nil
}
