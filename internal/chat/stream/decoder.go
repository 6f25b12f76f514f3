// Package stream decodes the model backend's chat response stream:
// free-form narrative text followed by an optional sentinel-delimited
// JSON payload carrying the structured recipe and related videos.
package stream

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/thaifoodie/chat-backend/internal/chat/normalize"
	"github.com/thaifoodie/chat-backend/internal/types"
)

// Sentinel separates streamed narrative text from the trailing JSON
// payload. It is not expected to occur in ordinary model text.
const Sentinel = "---DATA---"

var sentinelBytes = []byte(Sentinel)

// EventKind distinguishes the two decoder event types.
type EventKind int

const (
	// EventText carries an incremental piece of narrative text.
	EventText EventKind = iota
	// EventPayload carries the parsed structured payload. It is emitted
	// at most once, after the stream has ended.
	EventPayload
)

// Payload is the structured document that follows the sentinel.
type Payload struct {
	Recipe *types.Recipe `json:"recipe,omitempty"`
	Videos []types.Video `json:"videos,omitempty"`
}

// Event is one decoded stream event.
type Event struct {
	Kind    EventKind
	Text    string
	Payload *Payload
}

// Decoder incrementally decodes a single response stream. It does not
// retry; it decodes whatever stream it is handed exactly once.
type Decoder struct {
	r    io.Reader
	buf  []byte
	held []byte // pre-sentinel bytes held back (possible sentinel prefix, pending whitespace)
	tail []byte // post-sentinel payload bytes, buffered until stream end

	seenSentinel bool
	emittedText  bool
	eof          bool
	finished     bool
}

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r, buf: make([]byte, 4096)}
}

// Next returns the next decoded event. It returns io.EOF once the
// stream is exhausted and all events have been emitted. A payload that
// is not valid JSON is a fatal decode error for the turn.
func (d *Decoder) Next() (Event, error) {
	for {
		if d.finished {
			return Event{}, io.EOF
		}
		if d.eof {
			return d.finish()
		}

		n, err := d.r.Read(d.buf)
		if n > 0 {
			if ev, ok := d.consume(d.buf[:n]); ok {
				return ev, nil
			}
		}
		if err != nil {
			if err == io.EOF {
				d.eof = true
				continue
			}
			d.finished = true
			return Event{}, fmt.Errorf("read stream: %w", err)
		}
	}
}

// consume folds one chunk into the decoder state and reports whether a
// text event is ready.
func (d *Decoder) consume(chunk []byte) (Event, bool) {
	if d.seenSentinel {
		d.tail = append(d.tail, chunk...)
		return Event{}, false
	}

	work := append(d.held, chunk...)
	d.held = nil

	if idx := bytes.Index(work, sentinelBytes); idx >= 0 {
		d.seenSentinel = true
		d.tail = append(d.tail, work[idx+len(sentinelBytes):]...)
		if text := d.flushText(work[:idx], true); text != "" {
			return Event{Kind: EventText, Text: text}, true
		}
		return Event{}, false
	}

	// Hold back a suffix that could be the start of a sentinel split
	// across chunk boundaries, plus trailing whitespace that should not
	// be emitted unless more narrative text follows.
	cut := len(work) - sentinelPrefixLen(work)
	ws := cut
	for ws > 0 && isSpace(work[ws-1]) {
		ws--
	}
	d.held = append(d.held, work[ws:]...)
	if text := d.flushText(work[:ws], false); text != "" {
		return Event{Kind: EventText, Text: text}, true
	}
	return Event{}, false
}

// finish emits the terminal event once the underlying stream has ended.
func (d *Decoder) finish() (Event, error) {
	if !d.seenSentinel {
		if text := d.flushText(d.held, true); text != "" {
			d.held = nil
			return Event{Kind: EventText, Text: text}, nil
		}
		d.finished = true
		return Event{}, io.EOF
	}

	d.finished = true
	payload, err := parsePayload(d.tail)
	if err != nil {
		return Event{}, err
	}
	return Event{Kind: EventPayload, Payload: payload}, nil
}

// flushText prepares held narrative bytes for emission. Whitespace is
// trimmed only at the stream's emission boundaries, never mid-word.
func (d *Decoder) flushText(b []byte, final bool) string {
	s := string(b)
	if !d.emittedText {
		s = strings.TrimLeft(s, " \t\r\n")
	}
	if final {
		s = strings.TrimRight(s, " \t\r\n")
	}
	if s != "" {
		d.emittedText = true
	}
	return s
}

// parsePayload parses the buffered post-sentinel segment as one JSON
// document. Fence stripping and trailing-comma repair apply to this
// segment only; narrative text is never repaired.
func parsePayload(tail []byte) (*Payload, error) {
	text := normalize.StripFence(strings.TrimSpace(string(tail)))
	repaired := normalize.RepairTrailingCommas(text)

	var payload Payload
	if err := json.Unmarshal([]byte(repaired), &payload); err != nil {
		return nil, fmt.Errorf("decode payload after sentinel: %w", err)
	}
	return &payload, nil
}

func sentinelPrefixLen(work []byte) int {
	max := len(sentinelBytes) - 1
	if max > len(work) {
		max = len(work)
	}
	for k := max; k > 0; k-- {
		if bytes.HasSuffix(work, sentinelBytes[:k]) {
			return k
		}
	}
	return 0
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
