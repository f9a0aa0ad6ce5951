package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"

	"github.com/surajpaudel2/sports-ticketing/internal/domain"
	"github.com/surajpaudel2/sports-ticketing/pkg/logger"
)

// KafkaPublisher emits notifications as JSON records to a Kafka topic so
// downstream delivery workers can fan them out. Produce is asynchronous;
// delivery errors are logged by the produce callback.
type KafkaPublisher struct {
	client *kgo.Client
	topic  string
	log    *logger.Logger
}

// NewKafkaPublisher creates a Kafka-backed sender
func NewKafkaPublisher(brokers []string, clientID, topic string, log *logger.Logger) (*KafkaPublisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ClientID(clientID),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}
	return &KafkaPublisher{client: client, topic: topic, log: log}, nil
}

func (p *KafkaPublisher) Send(ctx context.Context, n domain.Notification) error {
	value, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	record := &kgo.Record{
		Topic: p.topic,
		// key by user so one user's notifications stay ordered
		Key:   []byte(strconv.FormatInt(n.UserID, 10)),
		Value: value,
	}

	p.client.Produce(ctx, record, func(r *kgo.Record, err error) {
		if err != nil {
			p.log.Error("kafka produce failed",
				zap.String("topic", p.topic),
				zap.String("type", string(n.Type)),
				zap.Error(err))
		}
	})
	return nil
}

// Close flushes pending records and shuts the client down
func (p *KafkaPublisher) Close(ctx context.Context) error {
	if err := p.client.Flush(ctx); err != nil {
		p.client.Close()
		return fmt.Errorf("failed to flush kafka producer: %w", err)
	}
	p.client.Close()
	return nil
}
