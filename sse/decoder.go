package sse

import (
	"bufio"
	"io"
	"strings"
)

// Decoder yields complete logical lines from a byte stream, regardless of
// how the transport fragments it. One Decoder is bound to one transport's
// lifetime; it is not restartable.
type Decoder struct {
	r   *bufio.Reader
	err error
}

// NewDecoder creates a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReaderSize(r, 32*1024)}
}

// Next returns the next complete line with its terminator stripped.
// It returns io.EOF when the underlying transport ends. A non-empty
// remainder without a trailing newline at that point is discarded: it is
// definitionally an incomplete line, and no protocol event spans a
// transport close.
func (d *Decoder) Next() (string, error) {
	if d.err != nil {
		return "", d.err
	}
	line, err := d.r.ReadString('\n')
	if err != nil {
		// Drop any unterminated remainder delivered alongside the error.
		d.err = err
		return "", err
	}
	return strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r"), nil
}
