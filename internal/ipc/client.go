package ipc

import (
	"fmt"
	"io"
	"net"
	"time"
)

// DefaultTimeout bounds one client round trip.
const DefaultTimeout = 10 * time.Second

// Send performs one request against the daemon socket and returns
// the raw success payload. A failure response becomes an error
// carrying the daemon's message.
func Send(socketPath string, args []string, timeout time.Duration) ([]byte, error) {
	if socketPath == "" {
		var err error
		socketPath, err = SocketPath()
		if err != nil {
			return nil, err
		}
	}
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	conn, err := net.DialTimeout("unix", socketPath, timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", socketPath, err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(timeout))

	if _, err := conn.Write(EncodeFrame(args)); err != nil {
		return nil, fmt.Errorf("failed to write request: %w", err)
	}
	// Half-close so the server sees EOF after the single frame.
	if uc, ok := conn.(*net.UnixConn); ok {
		uc.CloseWrite()
	}

	data, err := io.ReadAll(conn)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if len(data) > 0 && data[0] == FailurePrefix {
		return nil, fmt.Errorf("%s", string(data[1:]))
	}
	return data, nil
}
