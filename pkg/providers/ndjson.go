package providers

import (
	"bufio"
	"io"
)

// NDJSONDecoder frames a raw byte stream into newline-delimited JSON events,
// one object per line. An incomplete trailing line is held in the buffer
// across reads and flushed only if non-empty when the stream ends.
//
// Like SSEDecoder it works on bytes, so multi-byte UTF-8 sequences split
// across reads are reassembled before any text handling happens.
type NDJSONDecoder struct {
	r    *bufio.Reader
	done bool
}

// NewNDJSONDecoder creates a decoder over a raw response body.
func NewNDJSONDecoder(r io.Reader) *NDJSONDecoder {
	return &NDJSONDecoder{r: bufio.NewReaderSize(r, 64*1024)}
}

// Next returns the next complete line as one event. Empty lines are skipped.
// io.EOF reports the end of the stream.
func (d *NDJSONDecoder) Next() ([]byte, error) {
	if d.done {
		return nil, io.EOF
	}

	for {
		line, err := d.r.ReadBytes('\n')
		if err != nil {
			d.done = true
			if line = trimLineEnding(line); len(line) > 0 {
				// Flush the trailing partial line.
				return line, nil
			}
			if err == io.EOF {
				return nil, io.EOF
			}
			return nil, err
		}

		if line = trimLineEnding(line); len(line) > 0 {
			return line, nil
		}
	}
}
