package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/geohazard-map-service/internal/config"
	"github.com/couchcryptid/geohazard-map-service/internal/domain"
)

// Writer produces messages to a Kafka topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch publishes one notice per rendered map to the sink topic in a
// single WriteMessages call. Notices are keyed by event ID so re-renders of
// the same event land on the same partition.
func (w *Writer) LoadBatch(ctx context.Context, products []domain.MapProduct) error {
	if len(products) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(products))
	for i := range products {
		msg, err := serializeToMessage(products[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write map notices: %w", err)
	}
	w.logger.Debug("map notices published", "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a MapProduct into a Kafka message.
func serializeToMessage(product domain.MapProduct) (kafkago.Message, error) {
	data, err := json.Marshal(product)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize map product: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(product.EventID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "event_id", Value: []byte(product.EventID)},
			{Key: "rendered_at", Value: []byte(product.RenderedAt.Format(time.RFC3339))},
		},
	}, nil
}
