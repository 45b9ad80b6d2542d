// Package feed publishes finished run results to Kafka so downstream
// dashboards can track strategy benchmarks without touching the output
// files. The publisher is optional: with no brokers configured it becomes
// a no-op and the run stays fully offline.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/Jincan-LI-HUB/2026-MCM-Simulation-Problem-B/internal/evaluate"
)

// Record is one published summary row, tagged with its run.
type Record struct {
	RunID       string           `json:"runId"`
	GeneratedAt time.Time        `json:"generatedAt"`
	Summary     evaluate.Summary `json:"summary"`
}

// Publisher writes summary rows to the results topic.
type Publisher struct {
	brokers []string
	topic   string
	runID   string
	lg      *slog.Logger
	writer  *kafka.Writer
}

// New builds a publisher. With no brokers it returns a disabled publisher
// whose Publish is a no-op, so callers never need to branch.
func New(brokers []string, topic string, lg *slog.Logger) *Publisher {
	p := &Publisher{
		brokers: brokers,
		topic:   topic,
		runID:   uuid.NewString(),
		lg:      lg,
	}
	if len(brokers) == 0 || topic == "" {
		lg.Info("results feed disabled", "reason", "no brokers configured")
		return p
	}

	p.ensureTopic(context.Background())
	p.writer = &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{}, // partition by strategy key
		RequiredAcks: kafka.RequireAll,
	}
	lg.Info("results feed enabled", "topic", topic, "runId", p.runID)
	return p
}

// RunID identifies this process run in published records.
func (p *Publisher) RunID() string { return p.runID }

// Enabled reports whether Publish will actually write anywhere.
func (p *Publisher) Enabled() bool { return p.writer != nil }

// ensureTopic creates the results topic if the cluster does not have it.
// Kafka may return an error when it already exists; that is logged and
// ignored.
func (p *Publisher) ensureTopic(ctx context.Context) {
	conn, err := kafka.DialContext(ctx, "tcp", p.brokers[0])
	if err != nil {
		p.lg.Warn("topic ensure failed", "broker", p.brokers[0], "error", err)
		return
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		p.lg.Warn("topic ensure failed", "error", err)
		return
	}
	c, err := kafka.DialContext(ctx, "tcp", fmt.Sprintf("%s:%d", controller.Host, controller.Port))
	if err != nil {
		p.lg.Warn("topic ensure failed", "error", err)
		return
	}
	defer c.Close()

	cfg := kafka.TopicConfig{Topic: p.topic, NumPartitions: 1, ReplicationFactor: 1}
	if err := c.CreateTopics(cfg); err != nil {
		p.lg.Warn("CreateTopics returned non-nil", "error", err)
	}
}

// Publish writes one record per summary row, keyed by strategy so rows of
// the same strategy land on the same partition.
func (p *Publisher) Publish(ctx context.Context, rows []evaluate.Summary) error {
	if p.writer == nil || len(rows) == 0 {
		return nil
	}

	now := time.Now()
	msgs := make([]kafka.Message, 0, len(rows))
	for _, row := range rows {
		if row.N == 0 {
			continue // empty groups carry NaN metrics and nothing to report
		}
		b, err := json.Marshal(Record{RunID: p.runID, GeneratedAt: now, Summary: row})
		if err != nil {
			return fmt.Errorf("feed: marshal summary: %w", err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(row.Strategy),
			Value: b,
			Time:  now,
			Headers: []kafka.Header{
				{Key: "runId", Value: []byte(p.runID)},
			},
		})
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("feed: write results: %w", err)
	}
	p.lg.Info("results published", "rows", len(msgs), "topic", p.topic)
	return nil
}

// Close releases the underlying writer.
func (p *Publisher) Close() {
	if p.writer == nil {
		return
	}
	_ = p.writer.Close()
	p.lg.Info("results writer closed", "topic", p.topic)
}
