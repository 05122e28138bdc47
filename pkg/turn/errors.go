package turn

import "errors"

var (
	// ErrTurnTerminal is returned when an event arrives for a turn that is
	// already done or errored.
	ErrTurnTerminal = errors.New("turn already terminal")

	// ErrUnknownKind is returned for events of a kind the reducer does not
	// understand.
	ErrUnknownKind = errors.New("unknown event kind")
)
