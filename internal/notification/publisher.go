package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/smallbiznis/storefront/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Publisher delivers serialized order events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, key string, payload []byte) error
}

type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, []byte) error { return nil }

// KafkaPublisher writes events to a single topic keyed by order number, so
// every event of an order lands on the same partition.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	log      *zap.Logger
}

func NewKafkaPublisher(producer sarama.SyncProducer, topic string, log *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic, log: log}
}

func (p *KafkaPublisher) Publish(ctx context.Context, key string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	partition, offset, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(payload),
	})
	if err != nil {
		return fmt.Errorf("publish to %s: %w", p.topic, err)
	}
	p.log.Debug("order event published",
		zap.String("topic", p.topic),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset),
	)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

const defaultKafkaSendTimeout = 5 * time.Second

// producerConfig bounds every network step by the send timeout so a stalled
// broker cannot hold a publish open indefinitely.
func producerConfig(cfg config.KafkaConfig) *sarama.Config {
	timeout := time.Duration(cfg.SendTimeout) * time.Second
	if timeout <= 0 {
		timeout = defaultKafkaSendTimeout
	}

	sc := sarama.NewConfig()
	sc.ClientID = cfg.ClientID
	sc.Net.DialTimeout = timeout
	sc.Net.ReadTimeout = timeout
	sc.Net.WriteTimeout = timeout
	sc.Metadata.Retry.Max = 1
	sc.Metadata.Retry.Backoff = 250 * time.Millisecond
	sc.Metadata.Timeout = timeout
	sc.Producer.RequiredAcks = sarama.WaitForAll
	sc.Producer.Retry.Max = 2
	sc.Producer.Retry.Backoff = 100 * time.Millisecond
	sc.Producer.Return.Successes = true
	sc.Producer.Timeout = timeout
	sc.Producer.Partitioner = sarama.NewHashPartitioner
	return sc
}

// NewPublisher returns a Kafka publisher when brokers are configured and a
// no-op publisher otherwise.
func NewPublisher(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (Publisher, error) {
	log = log.Named("notification.publisher")
	if !cfg.Kafka.Enabled() {
		log.Info("kafka brokers not set, order events are not published")
		return NoopPublisher{}, nil
	}

	producer, err := sarama.NewSyncProducer(cfg.Kafka.Brokers, producerConfig(cfg.Kafka))
	if err != nil {
		return nil, fmt.Errorf("start kafka producer: %w", err)
	}
	pub := NewKafkaPublisher(producer, cfg.Kafka.OrderTopic, log)

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Info("closing kafka producer")
			return pub.Close()
		},
	})
	log.Info("kafka producer connected",
		zap.Strings("brokers", cfg.Kafka.Brokers),
		zap.String("topic", cfg.Kafka.OrderTopic),
	)
	return pub, nil
}
