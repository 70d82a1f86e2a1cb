package kafka

import (
	"context"
	"encoding/json"

	"go-fieldpay/internal/events"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Publisher notifies downstream consumers that a payroll upload was
// finalized. The noop variant keeps the broker optional in local setups.
type Publisher interface {
	PublishUploadFinalized(ctx context.Context, event events.UploadFinalizedEvent) error
}

type noopPublisher struct{}

func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) PublishUploadFinalized(context.Context, events.UploadFinalizedEvent) error {
	return nil
}

type kafkaPublisher struct {
	writer *kafkago.Writer
	log    *zap.Logger
}

func NewPublisher(writer *kafkago.Writer, log *zap.Logger) Publisher {
	return &kafkaPublisher{writer: writer, log: log.Named("kafka.publisher")}
}

// NewWriter builds the shared writer for the upload lifecycle topic.
func NewWriter(brokers []string) *kafkago.Writer {
	return &kafkago.Writer{
		Addr:     kafkago.TCP(brokers...),
		Balancer: &kafkago.LeastBytes{},
	}
}

func (p *kafkaPublisher) PublishUploadFinalized(ctx context.Context, event events.UploadFinalizedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	err = p.writer.WriteMessages(ctx, kafkago.Message{
		Topic: events.UploadFinalizedTopic,
		Key:   []byte(event.UploadID),
		Value: payload,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	})
	if err != nil {
		p.log.Error("publish upload finalized failed",
			zap.String("upload_id", event.UploadID),
			zap.Error(err),
		)
		return err
	}
	p.log.Info("upload finalized event published",
		zap.String("upload_id", event.UploadID),
		zap.String("period", event.PeriodLabel),
	)
	return nil
}
