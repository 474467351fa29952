package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"yarmarka/pkg/logger"
	"yarmarka/pkg/metrics"
	"yarmarka/reviews-service/internal/app/reviews/entity"
	"yarmarka/reviews-service/internal/app/reviews/service"

	"github.com/segmentio/kafka-go"
)

// ProductConsumer читает события PRODUCT_* из Kafka и применяет их
// к read-model товаров в MongoDB
type ProductConsumer struct {
	reader    *kafka.Reader
	reviewSvc service.ReviewServiceInterface
	topic     string
	groupID   string
	stopChan  chan struct{}
	doneChan  chan struct{}
}

// NewProductConsumer создает новый Kafka consumer топика product_events
func NewProductConsumer(
	brokers []string,
	topic string,
	groupID string,
	reviewSvc service.ReviewServiceInterface,
) *ProductConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		StartOffset:    kafka.FirstOffset, // read-model строится с начала топика
		CommitInterval: time.Second,
		ReadBackoffMin: 100 * time.Millisecond,
		ReadBackoffMax: 1 * time.Second,
	})

	return &ProductConsumer{
		reader:    reader,
		reviewSvc: reviewSvc,
		topic:     topic,
		groupID:   groupID,
		stopChan:  make(chan struct{}),
		doneChan:  make(chan struct{}),
	}
}

// Start запускает consumer в отдельной горутине
func (c *ProductConsumer) Start(ctx context.Context) {
	logger.Info().
		Str("topic", c.topic).
		Str("group", c.groupID).
		Msg("Starting product events consumer")

	go c.consume(ctx)
}

// Stop останавливает consumer и дожидается завершения обработки
func (c *ProductConsumer) Stop() {
	logger.Info().Msg("Stopping product events consumer...")
	close(c.stopChan)
	<-c.doneChan
	c.reader.Close()
	logger.Info().Msg("Product events consumer stopped")
}

// consume читает и обрабатывает сообщения из Kafka
func (c *ProductConsumer) consume(ctx context.Context) {
	defer close(c.doneChan)

	for {
		select {
		case <-c.stopChan:
			return
		default:
			readCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			message, err := c.reader.FetchMessage(readCtx)
			cancel()

			if err != nil {
				if ctx.Err() != nil {
					return
				}
				// Таймаут ожидания сообщений - обычное состояние пустого топика
				continue
			}

			if err := c.processMessage(ctx, message); err != nil {
				metrics.KafkaErrors.WithLabelValues("reviews-service", c.topic, "consume").Inc()
				logger.Error().
					Err(err).
					Int64("offset", message.Offset).
					Msg("Error processing product event")
				// Offset не коммитим - сообщение будет обработано повторно
				continue
			}

			if err := c.reader.CommitMessages(ctx, message); err != nil {
				logger.Error().Err(err).Msg("Error committing message")
			}
		}
	}
}

// processMessage обрабатывает одно сообщение из Kafka
// Применение события идемпотентно (upsert/delete), поэтому повторная
// доставка безопасна
func (c *ProductConsumer) processMessage(ctx context.Context, message kafka.Message) error {
	var event entity.ProductEvent
	if err := json.Unmarshal(message.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal product event: %w", err)
	}

	logger.Debug().
		Str("event_type", event.EventType).
		Str("product_id", event.ProductID).
		Int64("offset", message.Offset).
		Msg("Received product event")

	if err := c.reviewSvc.ApplyProductEvent(ctx, &event); err != nil {
		return fmt.Errorf("failed to apply product event: %w", err)
	}

	metrics.RecordKafkaMessageConsumed("reviews-service", c.topic, c.groupID)

	return nil
}
