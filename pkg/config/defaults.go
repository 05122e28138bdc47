package config

const (
	defaultBackendURL = "http://localhost:8000/api/v1"
	defaultTimeout    = "5m"

	defaultHistoryLimit = 5
	defaultGreeting     = "Hi! I'm your PartSelect assistant. I can help you with refrigerator and dishwasher parts."

	defaultEventsProvider = "nop"
	defaultEventsTopic    = "partchat.turns"
	defaultEventsWorkers  = 1
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Client: ClientConfig{
			BackendURL: defaultBackendURL,
			Timeout:    defaultTimeout,
		},
		Chat: ChatConfig{
			HistoryLimit: defaultHistoryLimit,
			Greeting:     defaultGreeting,
		},
		Events: EventsConfig{
			Provider: defaultEventsProvider,
			Topic:    defaultEventsTopic,
			Workers:  defaultEventsWorkers,
		},
	}
}
