// Package events publishes pipeline results and audit events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"convi-text-pipeline/internal/models"
	"convi-text-pipeline/internal/observability/metrics"
)

// messageWriter is the part of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes session turns, analytics and audit events to separate topics.
// Every method is failure tolerant: errors are logged and reported as a
// boolean, never returned.
type Publisher struct {
	writerTurns     messageWriter
	writerAnalytics messageWriter
	writerAudit     messageWriter
	principal       string
	topicTurns      string
	topicAnalytics  string
	topicAudit      string
	enabled         bool
	metrics         *metrics.Metrics
}

// Config holds Kafka publisher configuration.
type Config struct {
	Brokers        []string
	TopicTurns     string
	TopicAnalytics string
	TopicAudit     string
	Principal      string
	Enabled        bool
}

// New creates a Kafka publisher with one writer per topic.
func New(cfg *Config) *Publisher {
	m := metrics.DefaultMetrics

	if cfg == nil {
		log.Info().Msg("Kafka disabled (nil config), using log-only mode")
		return &Publisher{metrics: m}
	}

	p := &Publisher{
		principal:      cfg.Principal,
		topicTurns:     cfg.TopicTurns,
		topicAnalytics: cfg.TopicAnalytics,
		topicAudit:     cfg.TopicAudit,
		metrics:        m,
	}

	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		log.Info().Msg("Kafka disabled, using log-only mode")
		return p
	}

	// Longer dial timeout for DNS resolution in Kubernetes
	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}
	transport := &kafka.Transport{
		Dial: dialer.DialFunc,
	}

	newWriter := func(topic string) *kafka.Writer {
		return &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			BatchTimeout: 10 * time.Millisecond,
			WriteTimeout: 10 * time.Second,
			RequiredAcks: kafka.RequireOne,
			Transport:    transport,
		}
	}

	p.writerTurns = newWriter(cfg.TopicTurns)
	p.writerAnalytics = newWriter(cfg.TopicAnalytics)
	p.writerAudit = newWriter(cfg.TopicAudit)
	p.enabled = true

	log.Info().
		Strs("brokers", cfg.Brokers).
		Str("topicTurns", cfg.TopicTurns).
		Str("topicAnalytics", cfg.TopicAnalytics).
		Str("topicAudit", cfg.TopicAudit).
		Str("principal", cfg.Principal).
		Msg("Kafka publisher initialized")

	return p
}

// SaveTurns persists the processed turns of a session.
func (p *Publisher) SaveTurns(ctx context.Context, sessionId string, turns []models.ProcessedTurn) bool {
	rec := models.TurnsRecord{
		EventType: models.EventTurnsSaved,
		SessionID: sessionId,
		Timestamp: time.Now().UnixMilli(),
		Turns:     turns,
	}
	return p.publish(ctx, p.writerTurns, p.topicTurns, models.EventTurnsSaved, sessionId, rec) == nil
}

// SaveAnalytics persists a structured analytics record for a session.
func (p *Publisher) SaveAnalytics(ctx context.Context, sessionId string, analysis any) bool {
	rec := models.AnalyticsRecord{
		EventType: models.EventAnalyticsSaved,
		SessionID: sessionId,
		Timestamp: time.Now().UnixMilli(),
		Analysis:  analysis,
	}
	return p.publish(ctx, p.writerAnalytics, p.topicAnalytics, models.EventAnalyticsSaved, sessionId, rec) == nil
}

// LogEvent appends an entry to the session's audit log.
func (p *Publisher) LogEvent(ctx context.Context, sessionId, event, detail string) {
	ev := models.AuditEvent{
		EventType: models.EventAudit,
		SessionID: sessionId,
		Timestamp: time.Now().UnixMilli(),
		Event:     event,
		Detail:    detail,
	}
	p.publish(ctx, p.writerAudit, p.topicAudit, event, sessionId, ev)
}

// Enabled reports whether messages are written to Kafka.
func (p *Publisher) Enabled() bool {
	return p.enabled
}

func (p *Publisher) publish(ctx context.Context, writer messageWriter, topic, eventType, key string, event any) error {
	start := time.Now()

	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("Failed to marshal event")
		p.metrics.RecordSinkPublish(topic, eventType, err, time.Since(start).Seconds())
		return err
	}

	log.Debug().
		Str("principal", p.principal).
		Str("topic", topic).
		Str("key", key).
		Str("eventType", eventType).
		Int("bytes", len(payload)).
		Msg("Publishing event")

	if !p.enabled || writer == nil {
		p.metrics.RecordSinkPublish(topic, eventType, nil, time.Since(start).Seconds())
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte(eventType)},
			{Key: "principal", Value: []byte(p.principal)},
		},
	}

	if err := writer.WriteMessages(ctx, msg); err != nil {
		log.Error().
			Err(err).
			Str("topic", topic).
			Str("key", key).
			Msg("Failed to write to Kafka")
		p.metrics.RecordSinkPublish(topic, eventType, err, time.Since(start).Seconds())
		return err
	}

	p.metrics.RecordSinkPublish(topic, eventType, nil, time.Since(start).Seconds())
	return nil
}

// Close closes all Kafka writers.
func (p *Publisher) Close() error {
	var err error
	for name, w := range map[string]messageWriter{
		"turns":     p.writerTurns,
		"analytics": p.writerAnalytics,
		"audit":     p.writerAudit,
	} {
		if w == nil {
			continue
		}
		if e := w.Close(); e != nil {
			log.Error().Err(e).Str("writer", name).Msg("Error closing Kafka writer")
			err = e
		}
	}
	return err
}
