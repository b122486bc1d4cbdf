package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/chefwise/chefwise-api/pkg/logger"
	"github.com/segmentio/kafka-go"
)

// Топики событий подписки
const (
	TopicSubscriptionUpdated   = "subscription.updated"
	TopicSubscriptionCancelled = "subscription.cancelled"
)

// Producer публикует события об изменении подписки
type Producer interface {
	Publish(ctx context.Context, topic, key string, payload interface{}) error
	Close() error
}

// KafkaProducer реализация Producer поверх kafka-go
type KafkaProducer struct {
	writer *kafka.Writer
	log    *logger.Logger
}

// NewProducer создает продюсера
func NewProducer(brokers []string, log *logger.Logger) *KafkaProducer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		WriteTimeout: 15 * time.Second,
	}

	return &KafkaProducer{writer: writer, log: log}
}

// Publish сериализует payload в JSON и отправляет в топик
func (p *KafkaProducer) Publish(ctx context.Context, topic, key string, payload interface{}) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
	})
	if err != nil {
		return err
	}

	p.log.Debugw("Published event", "topic", topic, "key", key)

	return nil
}

// Close закрывает writer
func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}

// NopProducer заглушка на случай запуска без Kafka
type NopProducer struct{}

// Publish ничего не делает
func (NopProducer) Publish(ctx context.Context, topic, key string, payload interface{}) error {
	return nil
}

// Close ничего не делает
func (NopProducer) Close() error { return nil }
