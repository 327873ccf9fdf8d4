// Package eventpublisher announces committed ledger entries to a message broker.
package eventpublisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/configpkg"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// Publisher sends EntryCreated events.
type Publisher interface {
	Publish(ctx context.Context, event domain.EntryCreated) error
	Close() error
}

const (
	// batchTimeout bounds how long a synchronous write waits for a batch to fill.
	batchTimeout = 10 * time.Millisecond

	// publishTimeout bounds a whole Publish call, retries included.
	publishTimeout = 2 * time.Second
	maxAttempts    = 3
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events as JSON messages keyed by the entry owner, so
// the events of one account stay ordered within a partition.
type KafkaPublisher struct {
	writer  messageWriter
	timeout time.Duration
}

// NewKafkaPublisher returns a KafkaPublisher writing to topic on brokers.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			BatchTimeout:           batchTimeout,
			WriteTimeout:           publishTimeout,
			MaxAttempts:            maxAttempts,
			AllowAutoTopicCreation: true,
		},
		timeout: publishTimeout,
	}
}

// Publish writes the event to the topic.
//
// The write is abandoned once the publisher timeout elapses, so a degraded
// broker delays the caller by at most that long.
func (p *KafkaPublisher) Publish(ctx context.Context, event domain.EntryCreated) error {
	l := zerolog.Ctx(ctx)

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	data, err := json.Marshal(event)
	if err != nil {
		l.Error().Err(err).Send()
		return err
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.Owner),
		Value: data,
	})
	if err != nil {
		l.Error().Err(err).Str("entry_id", event.EntryID.String()).Send()
		return err
	}

	return nil
}

// Close flushes pending messages and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher drops every event.
type NopPublisher struct{}

// Publish does nothing.
func (NopPublisher) Publish(context.Context, domain.EntryCreated) error { return nil }

// Close does nothing.
func (NopPublisher) Close() error { return nil }

// New returns a KafkaPublisher when brokers are configured and a NopPublisher otherwise.
func New(config configpkg.Config) Publisher {
	if len(config.KafkaBrokers) == 0 || config.KafkaBrokers[0] == "" {
		return NopPublisher{}
	}

	return NewKafkaPublisher(config.KafkaBrokers, config.KafkaTopic)
}
