package client

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// sseEvent is one dispatched server-sent event. Lines that carry no SSE field
// (a bare JSON error body, for instance) are kept in Raw.
type sseEvent struct {
	Data    string
	HasData bool
	Raw     string
}

// sseDecoder reassembles events from a byte stream regardless of how reads are chunked.
type sseDecoder struct {
	r   *bufio.Reader
	eof bool
}

func newSSEDecoder(r io.Reader) *sseDecoder {
	return &sseDecoder{r: bufio.NewReader(r)}
}

// Next returns the next complete event. A trailing event without its blank-line
// terminator is still dispatched at end of input.
func (d *sseDecoder) Next() (sseEvent, error) {
	var (
		ev      sseEvent
		data    []string
		raw     []string
		pending bool
	)

	dispatch := func() sseEvent {
		ev.HasData = len(data) > 0
		ev.Data = strings.Join(data, "\n")
		ev.Raw = strings.Join(raw, "\n")
		return ev
	}

	for {
		if d.eof {
			if pending {
				return dispatch(), nil
			}
			return sseEvent{}, io.EOF
		}

		line, err := d.r.ReadString('\n')
		if err != nil {
			if !errors.Is(err, io.EOF) {
				return sseEvent{}, err
			}
			d.eof = true
			if line == "" {
				continue
			}
		}
		line = strings.TrimRight(line, "\r\n")

		if line == "" {
			if pending {
				return dispatch(), nil
			}
			continue
		}
		pending = true

		switch {
		case strings.HasPrefix(line, ":"):
			// comment
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		case strings.HasPrefix(line, "event:"), strings.HasPrefix(line, "id:"), strings.HasPrefix(line, "retry:"):
		default:
			raw = append(raw, line)
		}
	}
}
