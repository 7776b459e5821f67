package errorhandling

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/banking-transfer-saga/internal/domain/account"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// MockAttemptStore implements retry.Store
type MockAttemptStore struct {
	mock.Mock
}

func (m *MockAttemptStore) Get(ctx context.Context, groupID, topic string, partition int, offset int64) (int, error) {
	args := m.Called(ctx, groupID, topic, partition, offset)
	return args.Int(0), args.Error(1)
}

func (m *MockAttemptStore) Increment(ctx context.Context, groupID, topic string, partition int, offset int64) (int, error) {
	args := m.Called(ctx, groupID, topic, partition, offset)
	return args.Int(0), args.Error(1)
}

func (m *MockAttemptStore) Clear(ctx context.Context, groupID, topic string, partition int, offset int64) error {
	args := m.Called(ctx, groupID, topic, partition, offset)
	return args.Error(0)
}

// MockDLTPublisher implements producers.DeadLetterPublisher
type MockDLTPublisher struct {
	mock.Mock
}

func (m *MockDLTPublisher) Publish(ctx context.Context, originalTopic string, key []byte, value []byte, headers ...kafka.Header) error {
	args := m.Called(ctx, originalTopic, key, value, headers)
	return args.Error(0)
}

func (m *MockDLTPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

const testGroup = "banking-system"

func testMessage() kafka.Message {
	return kafka.Message{
		Topic:     "transfer-validation",
		Partition: 0,
		Offset:    42,
		Key:       []byte("transfer-1"),
		Value:     []byte(`{"transferId":"transfer-1"}`),
	}
}

func newHandlerUnderTest(attempts *MockAttemptStore, publisher *MockDLTPublisher) (*Handler, *Stats) {
	logger := newTestLogger()
	stats := NewStats()
	deadLetter := NewDeadLetterService(logger, publisher, stats)
	return NewHandler(logger, NewClassifier(), deadLetter, attempts), stats
}

func TestHandler_BusinessErrorDeadLettersImmediately(t *testing.T) {
	ctx := context.Background()
	attempts := new(MockAttemptStore)
	publisher := new(MockDLTPublisher)
	handler, stats := newHandlerUnderTest(attempts, publisher)

	msg := testMessage()
	procErr := account.ErrInsufficientFunds{}

	attempts.On("Get", ctx, testGroup, msg.Topic, msg.Partition, msg.Offset).Return(0, nil).Once()
	publisher.On("Publish", ctx, msg.Topic, msg.Key, mock.Anything, mock.Anything).Return(nil).Once()
	attempts.On("Clear", ctx, testGroup, msg.Topic, msg.Partition, msg.Offset).Return(nil).Once()

	acked := false
	shouldRetry, err := handler.HandleError(ctx, msg, procErr, testGroup, func(context.Context) error {
		acked = true
		return nil
	})

	require.NoError(t, err)
	assert.False(t, shouldRetry, "business errors are final")
	assert.True(t, acked, "dead-lettered messages must be acknowledged")
	assert.Equal(t, int64(1), stats.Total())
	assert.Equal(t, int64(1), stats.ByCategory()[CategoryBusinessValidation])
	attempts.AssertExpectations(t)
	publisher.AssertExpectations(t)
	attempts.AssertNotCalled(t, "Increment", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandler_TransientErrorAsksForAnotherAttempt(t *testing.T) {
	ctx := context.Background()
	attempts := new(MockAttemptStore)
	publisher := new(MockDLTPublisher)
	handler, stats := newHandlerUnderTest(attempts, publisher)

	msg := testMessage()
	procErr := &pgconn.PgError{Code: "08006"}

	attempts.On("Get", ctx, testGroup, msg.Topic, msg.Partition, msg.Offset).Return(0, nil).Once()
	attempts.On("Increment", ctx, testGroup, msg.Topic, msg.Partition, msg.Offset).Return(1, nil).Once()

	acked := false
	shouldRetry, err := handler.HandleError(ctx, msg, procErr, testGroup, func(context.Context) error {
		acked = true
		return nil
	})

	require.NoError(t, err)
	assert.True(t, shouldRetry, "caller must re-invoke the handler on the same message")
	assert.False(t, acked, "retryable messages must not be acknowledged")
	assert.Zero(t, stats.Total())
	attempts.AssertExpectations(t)
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandler_TransientErrorExhaustsBudget(t *testing.T) {
	ctx := context.Background()
	attempts := new(MockAttemptStore)
	publisher := new(MockDLTPublisher)
	handler, stats := newHandlerUnderTest(attempts, publisher)

	msg := testMessage()
	procErr := &pgconn.PgError{Code: "08006"}

	// Five retries already consumed: the sixth failure dead-letters
	attempts.On("Get", ctx, testGroup, msg.Topic, msg.Partition, msg.Offset).Return(5, nil).Once()
	publisher.On("Publish", ctx, msg.Topic, msg.Key, mock.Anything, mock.Anything).Return(nil).Once()
	attempts.On("Clear", ctx, testGroup, msg.Topic, msg.Partition, msg.Offset).Return(nil).Once()

	acked := false
	shouldRetry, err := handler.HandleError(ctx, msg, procErr, testGroup, func(context.Context) error {
		acked = true
		return nil
	})

	require.NoError(t, err)
	assert.False(t, shouldRetry)
	assert.True(t, acked)
	assert.Equal(t, int64(1), stats.ByCategory()[CategoryTechnicalTransient])
	attempts.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestHandler_DLTPublishFailureLeavesMessageUnacked(t *testing.T) {
	ctx := context.Background()
	attempts := new(MockAttemptStore)
	publisher := new(MockDLTPublisher)
	handler, stats := newHandlerUnderTest(attempts, publisher)

	msg := testMessage()
	procErr := account.ErrAccountNotFound{AccountNumber: "ACC-9999"}
	publishErr := errors.New("broker unavailable")

	attempts.On("Get", ctx, testGroup, msg.Topic, msg.Partition, msg.Offset).Return(0, nil).Once()
	publisher.On("Publish", ctx, msg.Topic, msg.Key, mock.Anything, mock.Anything).Return(publishErr).Once()

	acked := false
	shouldRetry, err := handler.HandleError(ctx, msg, procErr, testGroup, func(context.Context) error {
		acked = true
		return nil
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, publishErr)
	assert.False(t, shouldRetry)
	assert.False(t, acked, "message must stay uncommitted when the dead-letter publish fails")
	assert.Zero(t, stats.Total())
	attempts.AssertNotCalled(t, "Clear", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandler_AttemptStoreFailureAssumesFirstFailure(t *testing.T) {
	ctx := context.Background()
	attempts := new(MockAttemptStore)
	publisher := new(MockDLTPublisher)
	handler, _ := newHandlerUnderTest(attempts, publisher)

	msg := testMessage()
	procErr := errors.New("something odd happened") // UNKNOWN, one retry

	attempts.On("Get", ctx, testGroup, msg.Topic, msg.Partition, msg.Offset).Return(0, errors.New("store down")).Once()
	attempts.On("Increment", ctx, testGroup, msg.Topic, msg.Partition, msg.Offset).Return(1, nil).Once()

	shouldRetry, err := handler.HandleError(ctx, msg, procErr, testGroup, func(context.Context) error {
		t.Fatal("must not ack when retrying")
		return nil
	})

	require.NoError(t, err)
	assert.True(t, shouldRetry)
	attempts.AssertExpectations(t)
}

func TestHandler_CanceledContextAbortsBackoff(t *testing.T) {
	attempts := new(MockAttemptStore)
	publisher := new(MockDLTPublisher)
	handler, _ := newHandlerUnderTest(attempts, publisher)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	msg := testMessage()
	procErr := &pgconn.PgError{Code: "08006"}

	attempts.On("Get", ctx, testGroup, msg.Topic, msg.Partition, msg.Offset).Return(0, nil).Once()
	attempts.On("Increment", ctx, testGroup, msg.Topic, msg.Partition, msg.Offset).Return(1, nil).Once()

	shouldRetry, err := handler.HandleError(ctx, msg, procErr, testGroup, func(context.Context) error {
		t.Fatal("must not ack on shutdown")
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, shouldRetry)
}
