//go:build windows

package sink

import (
	"log"
	"net"

	winio "github.com/Microsoft/go-winio"
)

// NamedPipeSink on Windows is backed by a \\.\pipe\ named pipe server,
// the idiomatic Go counterpart to the original implementation's
// win32pipe/win32file layer (original_source/src/wireshark_pipe_win.py).
// OpenNamedPipe blocks in Accept until Wireshark (or another reader)
// connects, matching that module's blocking ConnectNamedPipe call.
type NamedPipeSink struct {
	ln   net.Listener
	conn net.Conn
}

// OpenNamedPipe listens on path (e.g. `\\.\pipe\tisniff`) in message mode
// with 64KiB buffers, then blocks for a single client connection.
func OpenNamedPipe(path string) (*NamedPipeSink, error) {
	ln, err := winio.ListenPipe(path, &winio.PipeConfig{
		MessageMode:      true,
		InputBufferSize:  64 * 1024,
		OutputBufferSize: 64 * 1024,
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[sink] waiting for reader on %s...", path)
	conn, err := ln.Accept()
	if err != nil {
		_ = ln.Close()
		return nil, err
	}
	return &NamedPipeSink{ln: ln, conn: conn}, nil
}

func (s *NamedPipeSink) Write(p []byte) (int, error) { return s.conn.Write(p) }

func (s *NamedPipeSink) Close() error {
	err := s.conn.Close()
	if lnErr := s.ln.Close(); err == nil {
		err = lnErr
	}
	return err
}
