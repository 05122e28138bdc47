package turn

// Status is the lifecycle state of a Turn.
type Status int

const (
	// StatusPending is the state of a freshly submitted turn.
	StatusPending Status = iota

	// StatusThinking means the backend reported progress text but no content
	// is being shown for it.
	StatusThinking

	// StatusStreaming means content, products or a verdict are arriving.
	StatusStreaming

	// StatusDone is the terminal state of a successful turn.
	StatusDone

	// StatusErrored is the terminal state of a failed turn.
	StatusErrored
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusThinking:
		return "streaming-thinking"
	case StatusStreaming:
		return "streaming-content"
	case StatusDone:
		return "done"
	case StatusErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further event may change a turn in state s.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusErrored
}

// InFlight reports whether a turn in state s is still being built.
func (s Status) InFlight() bool {
	return !s.Terminal()
}
