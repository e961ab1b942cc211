package logging

import (
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileLoggerWritesAndReaderReadsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.tlog")

	fl, err := NewFileLogger(path)
	require.NoError(t, err)

	fl.Log(Event{Timestamp: time.Now(), ConnectionID: "a", Category: CategoryState})
	fl.Log(Event{Timestamp: time.Now(), ConnectionID: "b", Category: CategoryError})
	require.NoError(t, fl.Close())

	r, err := NewReader(path)
	require.NoError(t, err)
	defer r.Close()

	first, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "a", first.ConnectionID)

	second, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "b", second.ConnectionID)

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestFileLoggerIgnoresLogAfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.tlog")
	fl, err := NewFileLogger(path)
	require.NoError(t, err)
	require.NoError(t, fl.Close())

	assert.NotPanics(t, func() {
		fl.Log(Event{Timestamp: time.Now()})
	})
	assert.NoError(t, fl.Close(), "Close must be idempotent")
}

func TestFilteredReaderAppliesFilter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.tlog")
	fl, err := NewFileLogger(path)
	require.NoError(t, err)
	fl.Log(Event{Timestamp: time.Now(), ConnectionID: "a", Category: CategoryState})
	fl.Log(Event{Timestamp: time.Now(), ConnectionID: "b", Category: CategoryError})
	require.NoError(t, fl.Close())

	wantCategory := CategoryError
	r, err := NewFilteredReader(path, Filter{Category: &wantCategory})
	require.NoError(t, err)
	defer r.Close()

	event, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "b", event.ConnectionID)

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestFilteredFileLoggerDropsNonMatchingEventsBeforeWriting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.tlog")

	wantCategory := CategoryError
	fl, err := NewFilteredFileLogger(path, Filter{Category: &wantCategory})
	require.NoError(t, err)

	fl.Log(Event{Timestamp: time.Now(), ConnectionID: "a", Category: CategoryMessage})
	fl.Log(Event{Timestamp: time.Now(), ConnectionID: "b", Category: CategoryError})
	fl.Log(Event{Timestamp: time.Now(), ConnectionID: "c", Category: CategoryState})
	require.NoError(t, fl.Close())

	r, err := NewReader(path)
	require.NoError(t, err)
	defer r.Close()

	event, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "b", event.ConnectionID, "only the error-category event should have reached disk")

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

type mockLogger struct {
	events []Event
}

func (m *mockLogger) Log(event Event) {
	m.events = append(m.events, event)
}

func TestMultiLoggerCallsAll(t *testing.T) {
	mock1, mock2, mock3 := &mockLogger{}, &mockLogger{}, &mockLogger{}
	multi := NewMultiLogger(mock1, mock2, mock3)

	event := Event{
		Timestamp:    time.Now(),
		ConnectionID: "conn-123",
		Direction:    DirectionIn,
		Layer:        LayerTransport,
		Category:     CategoryMessage,
	}
	multi.Log(event)

	for _, mock := range []*mockLogger{mock1, mock2, mock3} {
		require.Len(t, mock.events, 1)
		assert.Equal(t, "conn-123", mock.events[0].ConnectionID)
	}
}

func TestMultiLoggerEmptyListDoesNotPanic(t *testing.T) {
	multi := NewMultiLogger()
	assert.NotPanics(t, func() {
		multi.Log(Event{Timestamp: time.Now()})
	})
}

func TestNoopLoggerDiscards(t *testing.T) {
	var l Logger = NoopLogger{}
	assert.NotPanics(t, func() {
		l.Log(Event{Timestamp: time.Now()})
	})
}
