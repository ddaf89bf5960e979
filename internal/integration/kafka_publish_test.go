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
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	kafkaadapter "github.com/mbouzas/arousa-etl/internal/adapter/kafka"
	"github.com/mbouzas/arousa-etl/internal/domain"
	"github.com/mbouzas/arousa-etl/internal/observability"
)

const testTopic = "arousa-observations-test"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node Kafka in a container and returns its broker
// address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	ctr, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("arousa-test-cluster"))
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err, "start kafka container")

	brokers, err := ctr.Brokers(ctx)
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

// TestPublishObservations round-trips unified records through a real broker
// and verifies keys, headers, and payload survive intact.
func TestPublishObservations(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	metrics := observability.NewMetricsForTesting()
	writer := kafkaadapter.NewWriter([]string{broker}, testTopic, discardLogger(), metrics)
	t.Cleanup(func() { _ = writer.Close() })

	ts := time.Date(2022, 3, 1, 12, 30, 0, 0, time.UTC)
	recs := []domain.Record{
		{
			StationID:   "ribeira",
			StationName: "ribeira",
			Lat:         42.551633,
			Lon:         -8.946442,
			HasCoords:   true,
			Time:        ts,
			Fields:      map[string]float64{"salinity_1_5m": 35.2, "temperature_1_5m": 14.0},
			SourceFile:  "ribeira.csv",
			ProcessedAt: ts.Add(time.Hour),
		},
		{
			StationID:   "cortegada",
			Time:        ts,
			Fields:      map[string]float64{"salinity_3m": 30.5},
			ProcessedAt: ts.Add(time.Hour),
		},
	}
	require.NoError(t, writer.Load(ctx, recs, nil))

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	byStation := make(map[string]kafkago.Message, len(recs))
	for range recs {
		readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
		msg, err := consumer.ReadMessage(readCtx)
		readCancel()
		require.NoError(t, err, "read published observation")

		var got domain.Record
		require.NoError(t, json.Unmarshal(msg.Value, &got))
		byStation[got.StationID] = msg
	}

	ribeira, ok := byStation["ribeira"]
	require.True(t, ok, "ribeira record published")
	assert.Equal(t, []byte(recs[0].ID()), ribeira.Key)

	headers := make(map[string]string, len(ribeira.Headers))
	for _, h := range ribeira.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "ribeira", headers["station"])
	_, err := time.Parse(time.RFC3339, headers["processed_at"])
	assert.NoError(t, err, "processed_at header is RFC3339")

	var got domain.Record
	require.NoError(t, json.Unmarshal(ribeira.Value, &got))
	assert.Equal(t, 35.2, got.Fields["salinity_1_5m"])
	assert.True(t, got.Time.Equal(ts))

	// Republishing produces identical keys, so compacted topics dedupe.
	require.NoError(t, writer.Load(ctx, recs[:1], nil))
	readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
	again, err := consumer.ReadMessage(readCtx)
	readCancel()
	require.NoError(t, err)
	assert.Equal(t, ribeira.Key, again.Key)
}
