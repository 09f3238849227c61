// Package transport owns the UART connection to the sniffer board: fixed
// link parameters, a configurable read timeout, and raw byte read/write.
package transport

import (
	"fmt"
	"time"

	"go.bug.st/serial"
)

const (
	// Baud is the CC1352 sniffer firmware's fixed UART rate.
	Baud = 3_000_000
	// DefaultReadTimeout is used when Open is called with timeout <= 0.
	DefaultReadTimeout = 500 * time.Millisecond
)

// Serial is a blocking, single-owner UART transport. It implements
// io.Reader and io.Writer so frame.Decode can read directly from it.
type Serial struct {
	port serial.Port
}

// Open opens path at the sniffer's fixed 8N1/no-parity/no-flow-control
// parameters and configures the given read timeout (DefaultReadTimeout if
// timeout <= 0).
func Open(path string, timeout time.Duration) (*Serial, error) {
	if timeout <= 0 {
		timeout = DefaultReadTimeout
	}
	port, err := serial.Open(path, &serial.Mode{
		BaudRate: Baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", path, err)
	}
	if err := port.SetReadTimeout(timeout); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("set read timeout: %w", err)
	}
	return &Serial{port: port}, nil
}

// Read implements io.Reader. On timeout the underlying driver returns
// whatever was accumulated (possibly zero bytes) with a nil error; callers
// that need to distinguish a true timeout from a clean read should retry
// on a zero-byte, nil-error read, as frame.Decode's byte-at-a-time loop
// does implicitly by looping.
func (s *Serial) Read(p []byte) (int, error) {
	return s.port.Read(p)
}

// Write implements io.Writer, writing the entire frame in one call.
func (s *Serial) Write(p []byte) (int, error) {
	return s.port.Write(p)
}

// Close releases the UART.
func (s *Serial) Close() error {
	return s.port.Close()
}
