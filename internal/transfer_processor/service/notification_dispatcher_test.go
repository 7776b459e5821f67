package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banking-transfer-saga/internal/domain/transfer"
)

type recordingNotifier struct {
	mu    sync.Mutex
	sent  map[string]string // account number -> message
	fails map[string]error  // account number -> error to return
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{
		sent:  make(map[string]string),
		fails: make(map[string]error),
	}
}

func (n *recordingNotifier) Send(_ context.Context, accountNumber string, message string, _ transfer.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err, ok := n.fails[accountNumber]; ok {
		return err
	}
	n.sent[accountNumber] = message
	return nil
}

func completedEvent(t *testing.T) transfer.Event {
	t.Helper()
	tr := pendingTransfer(t, "ACC-1001", "ACC-1002", 250)
	return transfer.EventFrom(tr)
}

func TestDispatcher_NotifiesBothParties(t *testing.T) {
	notifier := newRecordingNotifier()
	dispatcher, err := NewPooledNotificationDispatcher(newTestLogger(), notifier, 4)
	require.NoError(t, err)
	defer dispatcher.Shutdown()

	err = dispatcher.Dispatch(context.Background(), completedEvent(t))
	require.NoError(t, err)

	assert.Len(t, notifier.sent, 2)
	assert.Contains(t, notifier.sent["ACC-1001"], "You sent 250")
	assert.Contains(t, notifier.sent["ACC-1001"], "ACC-1002")
	assert.Contains(t, notifier.sent["ACC-1002"], "You received 250")
	assert.Contains(t, notifier.sent["ACC-1002"], "ACC-1001")
}

func TestDispatcher_PropagatesDeliveryFailure(t *testing.T) {
	notifier := newRecordingNotifier()
	notifier.fails["ACC-1002"] = errors.New("push gateway unavailable")
	dispatcher, err := NewPooledNotificationDispatcher(newTestLogger(), notifier, 4)
	require.NoError(t, err)
	defer dispatcher.Shutdown()

	err = dispatcher.Dispatch(context.Background(), completedEvent(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "push gateway unavailable")

	// The other delivery still went out
	assert.Contains(t, notifier.sent, "ACC-1001")
}

func TestDispatcher_ConcurrentDispatches(t *testing.T) {
	notifier := newRecordingNotifier()
	dispatcher, err := NewPooledNotificationDispatcher(newTestLogger(), notifier, 2)
	require.NoError(t, err)
	defer dispatcher.Shutdown()

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = dispatcher.Dispatch(context.Background(), completedEvent(t))
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
}
