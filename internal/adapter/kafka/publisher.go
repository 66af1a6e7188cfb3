// Package kafka publishes alert escalations to a sink topic for downstream
// notifiers. The publisher is optional; when disabled the session simply has
// no escalation sink.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/weather-shield/internal/domain"
)

// Publisher produces alert messages to a Kafka topic. It implements
// session.AlertPublisher.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the alert sink topic.
func NewPublisher(brokers []string, topic string, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// PublishAlerts serializes and publishes the active alert set in a single
// WriteMessages call. An empty set publishes nothing.
func (p *Publisher) PublishAlerts(ctx context.Context, location string, alerts []domain.Alert) error {
	if len(alerts) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(alerts))
	for i := range alerts {
		msg, err := serializeToMessage(location, alerts[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	p.logger.Debug("publishing alert escalation", "location", location, "alerts", len(alerts))
	return p.writer.WriteMessages(ctx, msgs...)
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// escalation is the wire form of one published alert.
type escalation struct {
	Location string       `json:"location"`
	Alert    domain.Alert `json:"alert"`
}

// serializeToMessage marshals one alert into a Kafka message keyed by alert ID.
func serializeToMessage(location string, alert domain.Alert) (kafkago.Message, error) {
	data, err := json.Marshal(escalation{Location: location, Alert: alert})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize alert: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(alert.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "severity", Value: []byte(alert.Severity.String())},
			{Key: "hazard_type", Value: []byte(alert.Type)},
		},
	}, nil
}
