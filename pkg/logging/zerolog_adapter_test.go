package logging

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traintastic/traintastic-go/pkg/wire"
)

func TestZerologAdapterWritesStateChange(t *testing.T) {
	var buf bytes.Buffer
	zl := zerolog.New(&buf)
	adapter := NewZerologAdapter(zl)

	adapter.Log(Event{
		Timestamp:    time.Now(),
		ConnectionID: "conn-1",
		Category:     CategoryState,
		StateChange: &StateChangeEvent{
			Entity:   StateEntitySession,
			OldState: "authenticating",
			NewState: "authenticated",
		},
	})

	out := buf.String()
	assert.True(t, strings.Contains(out, "conn-1"))
	assert.True(t, strings.Contains(out, "authenticated"))
}

func TestZerologAdapterWritesMessage(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewZerologAdapter(zerolog.New(&buf))

	adapter.Log(Event{
		Timestamp: time.Now(),
		Category:  CategoryMessage,
		Message: &MessageEvent{
			Command:   wire.CommandGetObject,
			Flags:     wire.FlagResponse,
			RequestID: 7,
		},
	})

	require.NotEmpty(t, buf.String())
	assert.Contains(t, buf.String(), "GetObject")
}

func TestZerologAdapterSatisfiesLogger(t *testing.T) {
	var _ Logger = (*ZerologAdapter)(nil)
}
