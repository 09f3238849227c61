// Package sink implements the OutputSink abstraction (spec.md §4.6): a
// destination for pcap bytes that is either a plain file or a named
// pipe/FIFO feeding a live dissector reader.
package sink

import "os"

// Sink is anything an Emitter can write a pcap stream into. Close releases
// any platform resources (file handles, pipe listeners) and, for
// NamedPipeSink, removes the filesystem entry it created.
type Sink interface {
	Write(p []byte) (int, error)
	Close() error
}

// FileSink writes to a plain truncate-on-open file.
type FileSink struct {
	f *os.File
}

// OpenFile creates (truncating) the file at path.
func OpenFile(path string) (*FileSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &FileSink{f: f}, nil
}

func (s *FileSink) Write(p []byte) (int, error) { return s.f.Write(p) }
func (s *FileSink) Close() error                { return s.f.Close() }
