package sse

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/papercomputeco/partchat/pkg/logger"
	"github.com/papercomputeco/partchat/pkg/utils"
)

const (
	defaultMaxLineSize = 1024 * 1024
	defaultChunkSize   = 4 * 1024

	// maxEmptyReads mirrors bufio's tolerance for readers that keep returning
	// zero bytes without an error.
	maxEmptyReads = 100
)

var dataPrefix = []byte("data: ")

// Option configures a Decoder or Reader.
type Option func(*options)

type options struct {
	logger      *slog.Logger
	maxLineSize int
	chunkSize   int
}

func newOptions(opts []Option) *options {
	o := &options{
		logger:      logger.Nop(),
		maxLineSize: defaultMaxLineSize,
		chunkSize:   defaultChunkSize,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets the logger used for frame diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMaxLineSize caps the size of a single line. Lines longer than this are
// dropped in full, however the stream is chunked.
func WithMaxLineSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxLineSize = n
		}
	}
}

// WithChunkSize sets the size of the read buffer used by a Reader.
func WithChunkSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.chunkSize = n
		}
	}
}

// Decoder is the push side of the frame protocol: it is fed raw byte chunks
// with arbitrary boundaries and returns the events completed by each chunk.
//
// A Decoder holds the bytes of the current unterminated line between calls.
// Once a done event is decoded the Decoder stops consuming input and drops
// anything still buffered.
type Decoder struct {
	pending    []byte
	discarding bool
	done       bool
	discarded  int

	logger      *slog.Logger
	maxLineSize int
}

// NewDecoder returns an empty Decoder.
func NewDecoder(opts ...Option) *Decoder {
	o := newOptions(opts)
	return &Decoder{
		logger:      o.logger,
		maxLineSize: o.maxLineSize,
	}
}

// Feed appends chunk to the pending buffer and returns the events decoded
// from every line the chunk completed, in wire order. Empty chunks are
// accepted and yield nothing.
func (d *Decoder) Feed(chunk []byte) []Event {
	if d.done {
		return nil
	}

	d.pending = append(d.pending, chunk...)

	var events []Event
	start := 0
	for {
		i := bytes.IndexByte(d.pending[start:], '\n')
		if i < 0 {
			break
		}

		line := d.pending[start : start+i]
		start += i + 1

		if d.discarding {
			// Tail of an oversized line.
			d.discarding = false
			continue
		}

		if len(line) > d.maxLineSize {
			d.dropOversized(len(line))
			continue
		}

		ev, ok := d.decodeLine(line)
		if !ok {
			continue
		}

		events = append(events, ev)
		if ev.Kind == KindDone {
			d.finish()
			return events
		}
	}

	n := copy(d.pending, d.pending[start:])
	d.pending = d.pending[:n]

	if len(d.pending) > d.maxLineSize {
		if !d.discarding {
			d.dropOversized(len(d.pending))
		}
		d.pending = d.pending[:0]
		d.discarding = true
	}

	return events
}

// dropOversized counts a line longer than maxLineSize. A line is dropped
// whether its newline arrives in the chunk that crossed the limit or later.
func (d *Decoder) dropOversized(size int) {
	d.discarded++
	d.logger.Warn("dropping oversized frame",
		"size", size,
		"max", d.maxLineSize,
	)
}

// decodeLine returns the event carried by a complete line, if any.
func (d *Decoder) decodeLine(line []byte) (Event, bool) {
	line = bytes.TrimSuffix(line, []byte("\r"))

	payload, ok := bytes.CutPrefix(line, dataPrefix)
	if !ok {
		return Event{}, false
	}

	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		d.discarded++
		d.logger.Warn("discarding frame",
			"error", fmt.Errorf("%w: %w", ErrFrameDecode, err),
			"payload", utils.Truncate(string(payload), 120),
		)
		return Event{}, false
	}

	return ev, true
}

func (d *Decoder) finish() {
	d.done = true
	d.pending = nil
	d.discarding = false
}

// Done reports whether a done event has been decoded.
func (d *Decoder) Done() bool {
	return d.done
}

// Pending returns the number of buffered bytes belonging to an unterminated
// line.
func (d *Decoder) Pending() int {
	return len(d.pending)
}

// Discarded returns the number of data frames dropped because they could not
// be decoded or exceeded the maximum line size.
func (d *Decoder) Discarded() int {
	return d.discarded
}

// Reset returns the Decoder to its initial state so it can decode a new
// stream.
func (d *Decoder) Reset() {
	d.pending = d.pending[:0]
	d.discarding = false
	d.done = false
	d.discarded = 0
}
