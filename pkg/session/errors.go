package session

import "errors"

var (
	// ErrEmptyQuery is returned for queries that are blank after trimming.
	ErrEmptyQuery = errors.New("empty query")

	// ErrTurnInFlight is returned when a query is submitted while another
	// turn of the same session is still running.
	ErrTurnInFlight = errors.New("a turn is already in flight")
)
