package logging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traintastic/traintastic-go/pkg/wire"
)

func TestEventRoundTripsThroughCBOR(t *testing.T) {
	pt := 5 * time.Millisecond
	event := Event{
		Timestamp:    time.Now().UTC(),
		ConnectionID: "conn-1",
		Direction:    DirectionOut,
		Layer:        LayerWire,
		Category:     CategoryMessage,
		LocalRole:    RoleServer,
		RemoteAddr:   "127.0.0.1:9000",
		Username:     "alice",
		Message: &MessageEvent{
			Command:        wire.CommandObjectSetProperty,
			Flags:          wire.FlagRequest,
			RequestID:      42,
			ProcessingTime: &pt,
		},
	}

	data, err := EncodeEvent(event)
	require.NoError(t, err)

	decoded, err := DecodeEvent(data)
	require.NoError(t, err)

	assert.Equal(t, event.ConnectionID, decoded.ConnectionID)
	assert.Equal(t, event.Direction, decoded.Direction)
	assert.Equal(t, event.Layer, decoded.Layer)
	assert.Equal(t, event.Username, decoded.Username)
	require.NotNil(t, decoded.Message)
	assert.Equal(t, event.Message.Command, decoded.Message.Command)
	assert.Equal(t, event.Message.RequestID, decoded.Message.RequestID)
	require.NotNil(t, decoded.Message.ProcessingTime)
	assert.Equal(t, pt, *decoded.Message.ProcessingTime)
}

func TestDecodeEventRejectsGarbage(t *testing.T) {
	_, err := DecodeEvent([]byte{0xff, 0xff, 0xff})
	assert.Error(t, err)
}
