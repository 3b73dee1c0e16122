package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/schwartzgroup/daymet-aggregation/internal/config"
	"github.com/schwartzgroup/daymet-aggregation/internal/domain"
)

// maxBatch caps the messages handed to one WriteMessages call.
const maxBatch = 500

// messageWriter is the subset of *kafkago.Writer used by WavePublisher.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// WavePublisher produces one message per detected wave to the wave topic.
// It implements pipeline.WaveLoader.
type WavePublisher struct {
	writer messageWriter
	logger *slog.Logger
}

// NewWavePublisher creates a Kafka producer for the configured wave topic.
func NewWavePublisher(cfg *config.Config, logger *slog.Logger) *WavePublisher {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaWaveTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &WavePublisher{writer: w, logger: logger}
}

func (p *WavePublisher) Name() string { return "kafka" }

// LoadWaves publishes the summaries in batches. Messages are keyed by
// location so the waves of one location stay ordered within a partition.
func (p *WavePublisher) LoadWaves(ctx context.Context, waves []domain.WaveSummary) error {
	for start := 0; start < len(waves); start += maxBatch {
		end := min(start+maxBatch, len(waves))
		msgs := make([]kafkago.Message, 0, end-start)
		for i := start; i < end; i++ {
			msg, err := serializeToMessage(waves[i])
			if err != nil {
				return err
			}
			msgs = append(msgs, msg)
		}
		if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
			return fmt.Errorf("publish waves: %w", err)
		}
		p.logger.Debug("waves published", "count", len(msgs))
	}
	return nil
}

func (p *WavePublisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals a WaveSummary into a Kafka message.
func serializeToMessage(wave domain.WaveSummary) (kafkago.Message, error) {
	data, err := json.Marshal(wave)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize wave %d: %w", wave.WaveID, err)
	}
	return kafkago.Message{
		Key:   []byte(wave.Location),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "extreme", Value: []byte(wave.Label)},
			{Key: "run_id", Value: []byte(wave.RunID)},
			{Key: "detected_at", Value: []byte(wave.DetectedAt.Format(time.RFC3339))},
		},
	}, nil
}
