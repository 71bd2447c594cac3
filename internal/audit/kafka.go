// Package audit publishes ingestion cycle reports to Kafka for downstream consumers.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"quote-tracker/internal/ingest"
)

//go:generate mockgen -destination=mock_writer_test.go -package=audit_test . MessageWriter

// MessageWriter is satisfied by *kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Config struct {
	Brokers      []string
	Topic        string
	BatchTimeout time.Duration
}

type Publisher struct {
	writer MessageWriter
	log    *zap.Logger
}

func NewKafkaWriter(cfg Config) *kafka.Writer {
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = 50 * time.Millisecond
	}
	return &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		BatchTimeout:           cfg.BatchTimeout,
	}
}

func NewPublisher(writer MessageWriter, log *zap.Logger) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{writer: writer, log: log}
}

// Report implements ingest.Reporter. Skipped cycles are published too so
// consumers can tell a cooldown from an outage.
func (p *Publisher) Report(ctx context.Context, report ingest.CycleReport) error {
	value, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal cycle report: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(report.StartedAt.UnixNano(), 10)),
		Value: value,
		Time:  report.FinishedAt,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish cycle report: %w", err)
	}
	p.log.Debug("cycle report published", zap.Int("results", len(report.Results)))
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
