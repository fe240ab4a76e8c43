package sink

import (
	"fmt"
	"io"
	"os"

	json "github.com/goccy/go-json"
	"github.com/klauspost/compress/gzip"

	"adexport/normalize"
)

// JSONLSink is the reference output format: one JSON object per record, keys
// sorted, 4-space indent, UTF-8, newline separated.
type JSONLSink struct {
	w    io.Writer
	gz   *gzip.Writer
	file *os.File
	path string
}

// NewFileSink writes records to path, optionally gzip-compressed. A directory
// path is refused outright.
func NewFileSink(path string, compress bool) (*JSONLSink, error) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return nil, fmt.Errorf("output %q is a directory, needs a filename", path)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}

	s := &JSONLSink{w: f, file: f, path: path}
	if compress {
		s.gz = gzip.NewWriter(f)
		s.w = s.gz
	}
	return s, nil
}

// NewWriterSink wraps an arbitrary writer, typically stdout.
func NewWriterSink(w io.Writer) *JSONLSink {
	return &JSONLSink{w: w}
}

func (s *JSONLSink) Write(record *normalize.Record) error {
	data, err := json.MarshalIndent(record.Flat(), "", "    ")
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	if _, err := s.w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}

// Close flushes the stream and drops write permission on the output file,
// matching the read-only handoff the downstream ingester expects.
func (s *JSONLSink) Close() error {
	if s.gz != nil {
		if err := s.gz.Close(); err != nil {
			return fmt.Errorf("finish gzip stream: %w", err)
		}
	}
	if s.file != nil {
		if err := s.file.Close(); err != nil {
			return fmt.Errorf("close output file: %w", err)
		}
		return os.Chmod(s.path, 0o440)
	}
	return nil
}
