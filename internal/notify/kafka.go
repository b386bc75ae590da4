package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"reseller/internal/platform/config"
)

// KafkaPublisher produces events as JSON records keyed by partner so one
// partner's events stay ordered within a partition.
type KafkaPublisher struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

type KafkaOption func(*KafkaPublisher)

func WithKafkaLogger(logger *slog.Logger) KafkaOption {
	return func(p *KafkaPublisher) {
		p.logger = logger
	}
}

// NewKafkaPublisher connects to the brokers and, when configured, creates the
// topic if it does not exist yet.
func NewKafkaPublisher(ctx context.Context, cfg config.Kafka, opts ...KafkaOption) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka topic is required")
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ClientID(cfg.ClientID),
		kgo.DefaultProduceTopic(cfg.Topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	p := &KafkaPublisher{client: client, topic: cfg.Topic, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	if cfg.EnsureTopic {
		if err := p.ensureTopic(ctx, cfg.Partitions, cfg.Replications); err != nil {
			client.Close()
			return nil, err
		}
	}
	return p, nil
}

func (p *KafkaPublisher) ensureTopic(ctx context.Context, partitions int32, replications int16) error {
	if partitions <= 0 {
		partitions = 1
	}
	if replications <= 0 {
		replications = 1
	}
	adm := kadm.NewClient(p.client)
	resp, err := adm.CreateTopics(ctx, partitions, replications, nil, p.topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", p.topic, err)
	}
	for _, r := range resp {
		if r.Err != nil && !errors.Is(r.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", r.Topic, r.Err)
		}
	}
	p.logger.InfoContext(ctx, "kafka topic ready", "topic", p.topic, "partitions", partitions)
	return nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", event.Type, err)
	}
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.PartnerID),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		p.logger.ErrorContext(ctx, "publish notification failed",
			"event_type", string(event.Type),
			"event_id", event.ID,
			"error", err,
		)
		return fmt.Errorf("produce event %s: %w", event.Type, err)
	}
	return nil
}

// Ping checks broker connectivity.
func (p *KafkaPublisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx)
}

func (p *KafkaPublisher) Close() {
	p.client.Close()
}
