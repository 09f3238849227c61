//go:build unix

package sink

import (
	"errors"
	"fmt"
	"log"
	"os"
	"syscall"
)

// NamedPipeSink wraps a POSIX FIFO created at path. OpenNamedPipe blocks
// until a reader opens the other end, exactly as the teacher's
// pipe_unix.go createPipe does for Wireshark's live-capture named pipe.
type NamedPipeSink struct {
	f    *os.File
	path string
}

// OpenNamedPipe creates (or reuses an existing) FIFO at path and blocks
// until a reader connects.
func OpenNamedPipe(path string) (*NamedPipeSink, error) {
	if err := syscall.Mkfifo(path, 0600); err != nil {
		if !errors.Is(err, syscall.EEXIST) {
			return nil, fmt.Errorf("mkfifo: %w", err)
		}
		info, statErr := os.Stat(path)
		if statErr != nil {
			return nil, statErr
		}
		if info.Mode()&os.ModeNamedPipe == 0 {
			return nil, fmt.Errorf("%s exists and is not a named pipe", path)
		}
	}

	log.Printf("[sink] waiting for reader on %s...", path)
	f, err := os.OpenFile(path, os.O_WRONLY, 0) // blocks until reader connects
	if err != nil {
		return nil, fmt.Errorf("open pipe: %w", err)
	}
	return &NamedPipeSink{f: f, path: path}, nil
}

func (s *NamedPipeSink) Write(p []byte) (int, error) { return s.f.Write(p) }

func (s *NamedPipeSink) Close() error {
	err := s.f.Close()
	os.Remove(s.path)
	return err
}
