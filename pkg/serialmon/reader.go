package serialmon

import (
	"bytes"
	"unicode/utf8"
)

// MaxLineLength bounds how much unterminated input is held before it is flushed as
// a line of its own.
const MaxLineLength = 4096

const readChunkSize = 256

// Port is the subset of *serial.Port the monitor needs.
type Port interface {
	ReadyToRead() (uint32, error)
	Read(p []byte) (int, error)
	Close() error
}

// LineReader splits the byte stream of a Port on '\n'. Bytes after the last
// terminator stay buffered until the rest of the line arrives or Flush is called.
type LineReader struct {
	port  Port
	buf   []byte
	chunk []byte
}

func NewLineReader(port Port) *LineReader {
	return &LineReader{
		port:  port,
		chunk: make([]byte, readChunkSize),
	}
}

// Available polls the port for unread bytes without blocking.
func (lr *LineReader) Available() (uint32, error) {
	return lr.port.ReadyToRead()
}

// Buffered reports whether Next would return a line without touching the port.
func (lr *LineReader) Buffered() bool {
	return bytes.IndexByte(lr.buf, '\n') >= 0 || len(lr.buf) >= MaxLineLength
}

// Fill reads what the port has ready, stopping once a full line is buffered or no
// more bytes are immediately available.
func (lr *LineReader) Fill() error {
	for {
		n, err := lr.port.Read(lr.chunk)
		lr.buf = append(lr.buf, lr.chunk[:n]...)
		if err != nil {
			return err
		}
		if n == 0 || lr.Buffered() {
			return nil
		}
		ready, err := lr.port.ReadyToRead()
		if err != nil {
			return err
		}
		if ready == 0 {
			return nil
		}
	}
}

// Next pops the oldest complete line with its "\n" or "\r\n" terminator removed.
func (lr *LineReader) Next() ([]byte, bool) {
	end, skip := bytes.IndexByte(lr.buf, '\n'), 1
	if end < 0 {
		if len(lr.buf) < MaxLineLength {
			return nil, false
		}
		end, skip = runeCut(lr.buf, MaxLineLength), 0
	}

	line := make([]byte, end)
	copy(line, lr.buf[:end])
	lr.buf = append(lr.buf[:0], lr.buf[end+skip:]...)
	return bytes.TrimSuffix(line, []byte{'\r'}), true
}

// Pending reports whether any bytes, terminated or not, are buffered.
func (lr *LineReader) Pending() bool {
	return len(lr.buf) > 0
}

// Flush pops whatever is buffered as a line, terminator or not.
func (lr *LineReader) Flush() ([]byte, bool) {
	if len(lr.buf) == 0 {
		return nil, false
	}
	if line, ok := lr.Next(); ok {
		return line, true
	}
	line := make([]byte, len(lr.buf))
	copy(line, lr.buf)
	lr.buf = lr.buf[:0]
	return line, true
}

// runeCut moves limit back so it does not split a multi-byte character.
func runeCut(buf []byte, limit int) int {
	for i := limit - 1; i >= 0 && i >= limit-utf8.UTFMax; i-- {
		if !utf8.RuneStart(buf[i]) {
			continue
		}
		if utf8.FullRune(buf[i:limit]) {
			return limit
		}
		return i
	}
	return limit
}
