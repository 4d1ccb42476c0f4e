// Package kafka publishes extracted observations to a sink topic so
// downstream analysis systems can consume growth data as it is produced.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/plateworks/od600-etl/internal/config"
	"github.com/plateworks/od600-etl/internal/domain"
)

// Writer produces observation messages to a Kafka topic.
// It implements pipeline.ObservationSink.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishTable serializes every observation of one processed export and
// publishes them in a single WriteMessages call. Messages are keyed by well
// so a consumer partitions growth curves, not cycles.
func (w *Writer) PublishTable(ctx context.Context, sourceFile string, table domain.Table) error {
	if len(table.Observations) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(table.Observations))
	for i, obs := range table.Observations {
		msg, err := serializeToMessage(sourceFile, obs)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	w.logger.Debug("publishing observations", "file", sourceFile, "count", len(msgs))
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals one observation into a Kafka message.
func serializeToMessage(sourceFile string, obs domain.Observation) (kafkago.Message, error) {
	data, err := json.Marshal(obs)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize observation %s: %w", obs.Well, err)
	}
	return kafkago.Message{
		Key:   []byte(obs.Well),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "source_file", Value: []byte(sourceFile)},
			{Key: "time_s", Value: []byte(strconv.FormatFloat(obs.TimeS, 'g', -1, 64))},
		},
	}, nil
}
