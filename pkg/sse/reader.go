package sse

import (
	"context"
	"errors"
	"io"
	"log/slog"
)

// Reader is the pull side of the frame protocol. It reads chunks from a
// response body, feeds them to a Decoder and hands out events one at a time.
//
// ┌──────────────────┐
// │ source io.Reader │
// └──────────────────┘
// │  arbitrary chunks
// ▼
// ┌──────────────────┐
// │ Decoder.Feed()   │
// └──────────────────┘
// │  complete frames
// ▼
// ┌──────────────────┐
// │ Reader.Next()    │──▶ Event
// └──────────────────┘
//
// The sequence is single pass. It ends after a done event, or after exactly
// one synthetic error event when the source fails or runs dry before done.
type Reader struct {
	src    io.Reader
	closer io.Closer
	dec    *Decoder
	buf    []byte
	logger *slog.Logger

	queue    []Event
	failure  error
	finished bool
	closed   bool
}

// NewReader returns a Reader over src. If src is also an io.Closer it is
// closed by Reader.Close.
func NewReader(src io.Reader, opts ...Option) *Reader {
	o := newOptions(opts)

	r := &Reader{
		src:    src,
		dec:    NewDecoder(opts...),
		buf:    make([]byte, o.chunkSize),
		logger: o.logger,
	}
	if c, ok := src.(io.Closer); ok {
		r.closer = c
	}
	return r
}

// NewFailedReader returns a Reader for a stream that could not be opened. It
// yields a single synthetic error event carrying err.
func NewFailedReader(err error, opts ...Option) *Reader {
	o := newOptions(opts)
	return &Reader{
		dec:     NewDecoder(opts...),
		logger:  o.logger,
		failure: err,
	}
}

// Next returns the next event in wire order. It blocks only while waiting on
// the source. Next returns nil, nil once the sequence is exhausted, and a
// non-nil error only when ctx is done.
func (r *Reader) Next(ctx context.Context) (*Event, error) {
	emptyReads := 0

	for {
		if len(r.queue) > 0 {
			ev := r.queue[0]
			r.queue = r.queue[1:]
			return &ev, nil
		}

		if r.finished {
			return nil, nil
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if r.failure != nil {
			r.finished = true
			r.logger.Debug("stream failed", "error", r.failure)
			ev := TransportError(r.failure)
			return &ev, nil
		}

		n, err := r.src.Read(r.buf)
		if n > 0 {
			emptyReads = 0
			r.queue = append(r.queue, r.dec.Feed(r.buf[:n])...)
		} else if err == nil {
			emptyReads++
			if emptyReads >= maxEmptyReads {
				err = io.ErrNoProgress
			}
		}

		if r.dec.Done() {
			r.finished = true
			continue
		}

		if err == nil {
			continue
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		if errors.Is(err, io.EOF) {
			if tail := r.dec.Pending(); tail > 0 {
				r.logger.Debug("dropping unterminated line at end of stream", "bytes", tail)
			}
			err = ErrStreamTruncated
		}

		// Events already decoded from this read are handed out first.
		r.failure = err
	}
}

// Discarded returns the number of frames the underlying Decoder dropped.
func (r *Reader) Discarded() int {
	return r.dec.Discarded()
}

// Close releases the source. It is safe to call more than once and ends the
// sequence for any later call to Next.
func (r *Reader) Close() error {
	r.finished = true
	r.queue = nil

	if r.closed || r.closer == nil {
		r.closed = true
		return nil
	}

	r.closed = true
	return r.closer.Close()
}
