//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/plateworks/od600-etl/internal/adapter/kafka"
	"github.com/plateworks/od600-etl/internal/config"
	"github.com/plateworks/od600-etl/internal/domain"
)

const testSinkTopic = "test-od600-observations"

func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx,
		"confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("od600-test-cluster"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	ctrlConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrlConn.Close()

	require.NoError(t, ctrlConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// TestObservationSinkRoundTrip verifies that a processed table published via
// kafka.Writer arrives intact on the sink topic: one message per observation,
// keyed by well, with source-file provenance headers.
func TestObservationSinkRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSinkTopic)

	cfg := &config.Config{
		KafkaEnabled:   true,
		KafkaBrokers:   []string{broker},
		KafkaSinkTopic: testSinkTopic,
	}

	glucose := "glucose"
	table := domain.Table{
		Annotated: true,
		Observations: []domain.Observation{
			{Well: "A1", TimeS: 0, TimeH: 0, OD: 0.1, Condition: &glucose},
			{Well: "A1", TimeS: 3600, TimeH: 1, OD: 0.15, Condition: &glucose},
			{Well: "B2", TimeS: 0, TimeH: 0, OD: 0.3},
		},
	}

	writer := kafka.NewWriter(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(func() { _ = writer.Close() })

	require.NoError(t, writer.PublishTable(ctx, "run42.csv", table))

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	var received []kafkago.Message
	for len(received) < len(table.Observations) {
		readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
		msg, err := consumer.ReadMessage(readCtx)
		readCancel()
		require.NoError(t, err, "read from sink topic")
		received = append(received, msg)
	}

	assert.Equal(t, "A1", string(received[0].Key))

	var obs domain.Observation
	require.NoError(t, json.Unmarshal(received[0].Value, &obs))
	assert.Equal(t, "A1", obs.Well)
	assert.Equal(t, 0.1, obs.OD)
	require.NotNil(t, obs.Condition)
	assert.Equal(t, "glucose", *obs.Condition)

	headers := make(map[string]string, len(received[0].Headers))
	for _, h := range received[0].Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "run42.csv", headers["source_file"])
	assert.Equal(t, "0", headers["time_s"])

	// The unannotated observation keeps its condition absent end to end.
	var last domain.Observation
	require.NoError(t, json.Unmarshal(received[2].Value, &last))
	assert.Equal(t, "B2", last.Well)
	assert.Nil(t, last.Condition)
}

// TestPublishEmptyTable verifies that an empty table produces no messages and
// no error, so watch mode can publish unconditionally.
func TestPublishEmptyTable(t *testing.T) {
	cfg := &config.Config{
		KafkaEnabled:   true,
		KafkaBrokers:   []string{"localhost:0"}, // never dialed
		KafkaSinkTopic: testSinkTopic,
	}

	writer := kafka.NewWriter(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(func() { _ = writer.Close() })

	require.NoError(t, writer.PublishTable(context.Background(), "empty.csv", domain.Table{}))
}
