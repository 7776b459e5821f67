package producers

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockKafkaWriter is shared across package test files - defined in event_publisher_test.go

func TestDLTProducer_Publish(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := context.Background()

	t.Run("SuccessfulPublishToDLT", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		producer := &DLTProducer{logger: logger, writer: mockWriter}

		key := []byte("transfer-1")
		value := []byte(`{"originalTopic":"transfer-validation"}`)
		header := kafka.Header{Key: "error-category", Value: []byte("UNKNOWN")}

		mockWriter.On("WriteMessages", ctx, mock.MatchedBy(func(msgs []kafka.Message) bool {
			if len(msgs) != 1 {
				return false
			}
			msg := msgs[0]
			if msg.Topic != "transfer-validation-dlt" {
				return false
			}
			if string(msg.Key) != "transfer-1" || string(msg.Value) != string(value) {
				return false
			}
			return len(msg.Headers) == 1 && msg.Headers[0].Key == "error-category"
		})).Return(nil).Once()

		err := producer.Publish(ctx, "transfer-validation", key, value, header)
		require.NoError(t, err)
		mockWriter.AssertExpectations(t)
	})

	t.Run("PublishReturnsErrorOnWriterError", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		producer := &DLTProducer{logger: logger, writer: mockWriter}

		writerError := errors.New("kafka DLT write error")
		mockWriter.On("WriteMessages", ctx, mock.AnythingOfType("[]kafka.Message")).Return(writerError).Once()

		err := producer.Publish(ctx, "transfer-execution", []byte("k"), []byte("v"))
		require.Error(t, err)
		assert.ErrorIs(t, err, writerError)
		assert.Contains(t, err.Error(), "transfer-execution-dlt")
		mockWriter.AssertExpectations(t)
	})

	t.Run("Close", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		producer := &DLTProducer{logger: logger, writer: mockWriter}

		mockWriter.On("Close").Return(nil).Once()
		require.NoError(t, producer.Close())
		mockWriter.AssertExpectations(t)
	})
}
