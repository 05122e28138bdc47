package eventstreamutils

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/papercomputeco/partchat/pkg/eventstream"
	"github.com/papercomputeco/partchat/pkg/eventstream/kafka"
	"github.com/papercomputeco/partchat/pkg/eventstream/nop"
)

const (
	ProviderNop   = "nop"
	ProviderKafka = "kafka"
)

type NewPublisherOpts struct {
	ProviderType string
	Brokers      []string
	Topic        string
	WriteTimeout time.Duration
	Logger       *slog.Logger
}

func NewPublisher(o *NewPublisherOpts) (eventstream.Publisher, error) {
	switch o.ProviderType {
	case "", ProviderNop:
		return nop.NewPublisher(), nil
	case ProviderKafka:
		return kafka.NewPublisher(kafka.Config{
			Brokers:      o.Brokers,
			Topic:        o.Topic,
			WriteTimeout: o.WriteTimeout,
			Logger:       o.Logger,
		})
	default:
		return nil, fmt.Errorf("unsupported event stream provider: %s", o.ProviderType)
	}
}
