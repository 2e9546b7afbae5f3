package protocol

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
)

const defaultMaxMessageSize = 4096

// LineReader splits a byte stream into newline-terminated messages.
type LineReader struct {
	scanner *bufio.Scanner
}

// NewLineReader reads messages of at most maxSize bytes; longer lines fail the reader.
func NewLineReader(r io.Reader, maxSize int) *LineReader {
	if maxSize <= 0 {
		maxSize = defaultMaxMessageSize
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, min(maxSize, 1024)), maxSize)

	return &LineReader{scanner: scanner}
}

// Read returns the next non-blank line without its terminator. io.EOF marks a clean close.
func (that *LineReader) Read() ([]byte, error) {
	for that.scanner.Scan() {
		line := bytes.TrimSpace(that.scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		out := make([]byte, len(line))
		copy(out, line)
		return out, nil
	}

	if err := that.scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read message: %w", err)
	}

	return nil, io.EOF
}

// WriteLine writes one message followed by a newline in a single write.
func WriteLine(w io.Writer, data []byte) error {
	line := make([]byte, 0, len(data)+1)
	line = append(line, data...)
	line = append(line, '\n')

	if _, err := w.Write(line); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}
