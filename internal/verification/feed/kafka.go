package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"verimint/internal/verification/models"
	"verimint/internal/verification/ports"
	id "verimint/pkg/domain"
)

// KafkaFeed consumes a CDC topic of profiles changes keyed by user id. Every
// replica reads the whole topic from the end; there is no consumer group
// because each process only serves its own sessions.
type KafkaFeed struct {
	hub    *Hub
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

type KafkaOption func(*KafkaFeed)

func WithKafkaLogger(logger *slog.Logger) KafkaOption {
	return func(f *KafkaFeed) {
		f.logger = logger
	}
}

func NewKafka(brokers []string, topic string, hub *Hub, opts ...KafkaOption) (*KafkaFeed, error) {
	f := &KafkaFeed{
		hub:    hub,
		topic:  topic,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ClientID("verimint"),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtEnd()),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}
	f.client = client
	return f, nil
}

// EnsureTopic creates the topic if it does not exist.
func (f *KafkaFeed) EnsureTopic(ctx context.Context) error {
	adm := kadm.NewClient(f.client)
	resps, err := adm.CreateTopics(ctx, 1, 1, nil, f.topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", f.topic, err)
	}
	for _, resp := range resps {
		if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", f.topic, resp.Err)
		}
	}
	return nil
}

func (f *KafkaFeed) Subscribe(ctx context.Context, userID id.UserID) (ports.Subscription, error) {
	return f.hub.Subscribe(ctx, userID)
}

// Run polls the topic until ctx ends, then closes the client.
func (f *KafkaFeed) Run(ctx context.Context) error {
	defer f.client.Close()
	for {
		fetches := f.client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			return nil
		}
		for _, fe := range fetches.Errors() {
			if errors.Is(fe.Err, context.Canceled) {
				continue
			}
			f.logger.WarnContext(ctx, "kafka fetch error",
				"topic", fe.Topic,
				"partition", fe.Partition,
				"error", fe.Err,
			)
			f.hub.PublishError(fe.Err)
		}
		fetches.EachRecord(func(rec *kgo.Record) {
			change, ok, err := Decode(rec.Value)
			if err != nil {
				f.logger.WarnContext(ctx, "dropping malformed change event",
					"topic", rec.Topic,
					"offset", rec.Offset,
					"error", err,
				)
				return
			}
			if ok {
				f.hub.Publish(change)
			}
		})
	}
}

// Publish produces change keyed by user id.
func (f *KafkaFeed) Publish(ctx context.Context, change models.StatusChange) error {
	payload, err := Encode(change)
	if err != nil {
		return err
	}
	rec := &kgo.Record{Topic: f.topic, Key: []byte(change.UserID.String()), Value: payload}
	if err := f.client.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return fmt.Errorf("produce change: %w", err)
	}
	return nil
}
