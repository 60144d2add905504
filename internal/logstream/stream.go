// Package logstream provides the deployment log sink.
//
// A Stream is an append-only log file that also publishes each completed
// line to subscribers. The deployment writes to it while the viewer reads
// Lines(); writes never wait on the reader.
package logstream

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sync"

	infinity "github.com/Code-Hex/go-infinity-channel"

	"github.com/jbweber/kiln/internal/naming"
)

// ErrClosed is returned by Write after Close.
var ErrClosed = errors.New("log stream is closed")

// Stream is an io.Writer backed by a temporary file.
type Stream struct {
	mu      sync.Mutex
	file    *os.File
	partial []byte
	lines   *infinity.Channel[string]
	closed  bool
}

// New creates a Stream with a fresh log file in dir.
// An empty dir uses the default temporary directory.
func New(dir string) (*Stream, error) {
	f, err := os.CreateTemp(dir, naming.LogFilePattern)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}
	return &Stream{
		file:  f,
		lines: infinity.NewChannel[string](),
	}, nil
}

// Path returns the location of the log file.
func (s *Stream) Path() string {
	return s.file.Name()
}

// Lines returns the channel of completed lines, without their newline.
// The channel is closed by Close after the last line is delivered.
func (s *Stream) Lines() <-chan string {
	return s.lines.Out()
}

// Write appends p to the log file and publishes every line it completes.
func (s *Stream) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrClosed
	}

	n, err := s.file.Write(p)
	if err != nil {
		return n, fmt.Errorf("failed to write log file: %w", err)
	}

	s.partial = append(s.partial, p...)
	for {
		i := bytes.IndexByte(s.partial, '\n')
		if i < 0 {
			break
		}
		s.lines.In() <- string(bytes.TrimRight(s.partial[:i], "\r"))
		s.partial = s.partial[i+1:]
	}
	return n, nil
}

// Sync flushes the log file to disk.
func (s *Stream) Sync() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	return s.file.Sync()
}

// Close publishes any unterminated line, closes the subscription and
// removes the log file. Subsequent calls do nothing.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if len(s.partial) > 0 {
		s.lines.In() <- string(s.partial)
		s.partial = nil
	}
	s.lines.Close()

	path := s.file.Name()
	closeErr := s.file.Close()
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove log file: %w", err)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close log file: %w", closeErr)
	}
	return nil
}
