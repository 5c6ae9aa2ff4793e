package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"wallet-ledger/config"

	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer is the subset of *kafka.Writer the producer needs.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Producer publishes JSON-encoded ledger events to a single topic.
type Producer struct {
	writer Writer
	topic  string
	log    zerolog.Logger
}

// NewProducer builds a synchronous producer. Delivery is acknowledged by the
// partition leader before Publish returns.
func NewProducer(cfg config.KafkaConfig, log zerolog.Logger) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are not configured")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka topic is not configured")
	}

	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 5 * time.Second
	}

	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireOne,
		WriteTimeout:           writeTimeout,
		AllowAutoTopicCreation: true,
	}

	return newProducer(w, cfg.Topic, log), nil
}

func newProducer(w Writer, topic string, log zerolog.Logger) *Producer {
	return &Producer{
		writer: w,
		topic:  topic,
		log:    log.With().Str("component", "kafka_producer").Str("topic", topic).Logger(),
	}
}

// Publish writes value as JSON under key.
func (p *Producer) Publish(ctx context.Context, key string, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := kafkago.Message{
		Key:   []byte(key),
		Value: payload,
		Time:  time.Now().UTC(),
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.Error().Err(err).Str("key", key).Msg("publish failed")
		return fmt.Errorf("publish to %s: %w", p.topic, err)
	}

	p.log.Debug().Str("key", key).Int("bytes", len(payload)).Msg("event published")
	return nil
}

func (p *Producer) Close() error {
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("close kafka writer for %s: %w", p.topic, err)
	}
	p.log.Info().Msg("kafka producer closed")
	return nil
}
