//go:build !unix && !windows

package sink

import "fmt"

// NamedPipeSink is unsupported on platforms that are neither unix nor
// windows, matching the teacher's pipe_stub.go fallback.
type NamedPipeSink struct{}

func OpenNamedPipe(_ string) (*NamedPipeSink, error) {
	return nil, fmt.Errorf("named pipes are not supported on this platform")
}

func (s *NamedPipeSink) Write(p []byte) (int, error) { return 0, fmt.Errorf("named pipes are not supported on this platform") }
func (s *NamedPipeSink) Close() error                { return nil }
