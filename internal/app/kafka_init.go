package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"

	"github.com/nikitaegorov/storefront/internal/messaging/kafka"
)

// orderEventsGroupID — consumer group журнала событий заказов.
const orderEventsGroupID = "storefront-order-events-audit"

// initKafkaProducer инициализирует Kafka producer если brokers не пустой.
// Возвращает nil, nil если brokers пустой или если произошла ошибка.
func initKafkaProducer(brokers string, logger *log.Entry) (*kafka.Producer, error) {
	if brokers == "" {
		return nil, nil
	}

	brokerList := strings.Split(brokers, ",")
	producer, err := kafka.NewProducer(brokerList)
	if err != nil {
		logger.WithError(err).Warn("failed to create kafka producer, continuing without kafka")
		return nil, err
	}

	logger.WithField("brokers", brokerList).Info("kafka producer initialized")
	return producer, nil
}

// initOrderEventsConsumer запускает consumer-группу, которая читает topic
// событий заказов и пишет каждое событие в журнал. Сообщения, не прошедшие
// обработку после retry, уходят в DLQ через producer.
// Возвращает nil, nil если brokers пустой или producer не инициализирован.
func initOrderEventsConsumer(ctx context.Context, brokers string, producer *kafka.Producer, logger *log.Entry) (*kafka.Consumer, error) {
	if brokers == "" || producer == nil {
		return nil, nil
	}

	brokerList := strings.Split(brokers, ",")
	consumer, err := kafka.NewConsumerWithDLQ(
		brokerList,
		orderEventsGroupID,
		[]string{kafka.TopicOrderEvents},
		orderEventAuditHandler(logger.WithField("component", "order-events-audit")),
		producer,
		3,
	)
	if err != nil {
		logger.WithError(err).Warn("failed to create kafka consumer, continuing without event audit")
		return nil, err
	}

	if err := consumer.Start(ctx); err != nil {
		return nil, err
	}
	return consumer, nil
}

// orderEventAuditHandler разбирает outbox-конверт и вложенный OrderEvent.
// Ошибка разбора возвращается наверх: consumer отправит сообщение в DLQ.
func orderEventAuditHandler(logger *log.Entry) kafka.MessageHandler {
	return func(ctx context.Context, message *sarama.ConsumerMessage) error {
		var envelope struct {
			ID        string          `json:"id"`
			EventType string          `json:"event_type"`
			Payload   json.RawMessage `json:"payload"`
		}
		if err := json.Unmarshal(message.Value, &envelope); err != nil {
			return fmt.Errorf("decode outbox envelope: %w", err)
		}

		var event kafka.OrderEvent
		if len(envelope.Payload) > 0 {
			if err := json.Unmarshal(envelope.Payload, &event); err != nil {
				return fmt.Errorf("decode order event %s: %w", envelope.ID, err)
			}
		}

		logger.WithFields(log.Fields{
			"event":     envelope.EventType,
			"tenant_id": event.TenantID,
			"order_id":  event.OrderID,
			"status":    event.Status,
		}).Info("order event consumed")
		return nil
	}
}

// stopConsumer останавливает consumer событий заказов если он не nil.
func stopConsumer(consumer *kafka.Consumer, logger *log.Entry) {
	if consumer == nil {
		return
	}
	if err := consumer.Stop(); err != nil {
		logger.WithError(err).Warn("failed to stop kafka consumer")
	}
}

// closeKafka закрывает Kafka producer если он не nil.
func closeKafka(producer *kafka.Producer, logger *log.Entry) {
	if producer == nil {
		return
	}

	if err := producer.Close(); err != nil {
		logger.WithError(err).Warn("failed to close kafka producer")
	} else {
		logger.Info("kafka producer closed")
	}
}
