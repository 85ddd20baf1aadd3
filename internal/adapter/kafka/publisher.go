// Package kafka publishes finished assessments to a Kafka topic, one
// message per site, keyed by site id so downstream consumers see each
// site's runs in order.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/flight-triage/internal/config"
	"github.com/couchcryptid/flight-triage/internal/observability"
	"github.com/couchcryptid/flight-triage/internal/report"
)

// Publisher produces site reports to the sink topic.
// It implements pipeline.Publisher.
type Publisher struct {
	writer  *kafkago.Writer
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewPublisher creates a Kafka producer for the configured sink topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger, metrics: metrics}
}

// Publish serializes every site report in the document and writes them in a
// single WriteMessages call.
func (p *Publisher) Publish(ctx context.Context, doc report.Document) error {
	if len(doc.Sites) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(doc.Sites))
	for i := range doc.Sites {
		msg, err := serializeToMessage(doc, doc.Sites[i])
		if err != nil {
			p.metrics.PublishErrors.Inc()
			return err
		}
		msgs[i] = msg
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		p.metrics.PublishErrors.Inc()
		return fmt.Errorf("publish assessments: %w", err)
	}
	p.metrics.AssessmentsPublished.Add(float64(len(msgs)))
	p.logger.Info("published assessments", "topic", p.writer.Topic, "count", len(msgs))
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals one site report into a Kafka message.
func serializeToMessage(doc report.Document, site report.SiteReport) (kafkago.Message, error) {
	data, err := json.Marshal(site)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize site report: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(site.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "status", Value: []byte(site.Status)},
			{Key: "target_date", Value: []byte(doc.TargetDate)},
			{Key: "run_id", Value: []byte(doc.RunID)},
		},
	}, nil
}
