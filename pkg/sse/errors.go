package sse

import "errors"

var (
	// ErrFrameDecode marks a data frame whose JSON payload could not be decoded.
	ErrFrameDecode = errors.New("undecodable frame")

	// ErrStreamTruncated indicates the body ended before a done frame arrived.
	ErrStreamTruncated = errors.New("stream ended before done frame")
)
