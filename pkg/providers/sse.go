package providers

import (
	"bufio"
	"bytes"
	"io"
)

// doneSentinel is the literal SSE payload that terminates a stream. It is
// never parsed as JSON.
var doneSentinel = []byte("[DONE]")

// SSEDecoder frames a raw byte stream into Server-Sent Events. It operates on
// bytes and only converts complete frames, so multi-byte UTF-8 sequences split
// across network reads decode correctly, as do event separators split across
// reads.
type SSEDecoder struct {
	r    *bufio.Reader
	done bool
}

// NewSSEDecoder creates a decoder over a raw response body.
func NewSSEDecoder(r io.Reader) *SSEDecoder {
	return &SSEDecoder{r: bufio.NewReaderSize(r, 64*1024)}
}

// Next returns the next event's data payload: the concatenation of the
// event's `data:` lines, joined with newlines per the SSE spec. Non-data
// lines (comments, event names, ids) are skipped.
//
// A literal `[DONE]` payload and the end of the underlying stream both return
// io.EOF. A non-empty partial event pending when the stream ends is flushed
// as one final event before EOF is reported.
func (d *SSEDecoder) Next() ([]byte, error) {
	if d.done {
		return nil, io.EOF
	}

	var dataLines [][]byte
	for {
		line, err := d.r.ReadBytes('\n')
		if err != nil {
			// Flush whatever the truncated stream left behind.
			if line = trimLineEnding(line); len(line) > 0 {
				dataLines = appendDataLine(dataLines, line)
			}
			if len(dataLines) > 0 {
				return d.finishEvent(dataLines)
			}
			d.done = true
			if err == io.EOF {
				return nil, io.EOF
			}
			return nil, err
		}

		line = trimLineEnding(line)
		if len(line) == 0 {
			// Blank line ends the event, unless nothing accumulated yet.
			if len(dataLines) == 0 {
				continue
			}
			return d.finishEvent(dataLines)
		}
		if line[0] == ':' {
			continue
		}
		dataLines = appendDataLine(dataLines, line)
	}
}

func (d *SSEDecoder) finishEvent(dataLines [][]byte) ([]byte, error) {
	payload := bytes.Join(dataLines, []byte("\n"))
	if bytes.Equal(bytes.TrimSpace(payload), doneSentinel) {
		d.done = true
		return nil, io.EOF
	}
	return payload, nil
}

// appendDataLine appends the value of a `data:` line, ignoring other fields.
func appendDataLine(dst [][]byte, line []byte) [][]byte {
	if !bytes.HasPrefix(line, []byte("data:")) {
		return dst
	}
	val := line[len("data:"):]
	if len(val) > 0 && val[0] == ' ' {
		val = val[1:]
	}
	return append(dst, append([]byte(nil), val...))
}

func trimLineEnding(line []byte) []byte {
	return bytes.TrimRight(line, "\r\n")
}
