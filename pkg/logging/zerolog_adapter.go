package logging

import "github.com/rs/zerolog"

// ZerologAdapter writes protocol events to a zerolog.Logger. Useful
// during development when protocol events should show up alongside
// the rest of the server's console output.
type ZerologAdapter struct {
	logger zerolog.Logger
}

// NewZerologAdapter creates a ZerologAdapter writing to logger.
func NewZerologAdapter(logger zerolog.Logger) *ZerologAdapter {
	return &ZerologAdapter{logger: logger}
}

// Log writes the event at debug level.
func (a *ZerologAdapter) Log(event Event) {
	e := a.logger.Debug().
		Str("conn_id", event.ConnectionID).
		Str("direction", event.Direction.String()).
		Str("layer", event.Layer.String()).
		Str("category", event.Category.String())

	if event.Username != "" {
		e = e.Str("username", event.Username)
	}
	if event.KernelID != "" {
		e = e.Str("kernel_id", event.KernelID)
	}

	switch {
	case event.Frame != nil:
		e = e.Int("frame_size", event.Frame.Size).Bool("truncated", event.Frame.Truncated)
	case event.Message != nil:
		e = e.Str("command", event.Message.Command.String()).
			Str("flags", event.Message.Flags.String()).
			Uint16("request_id", event.Message.RequestID)
		if event.Message.ProcessingTime != nil {
			e = e.Dur("processing_time", *event.Message.ProcessingTime)
		}
	case event.StateChange != nil:
		e = e.Str("entity", event.StateChange.Entity.String()).
			Str("old_state", event.StateChange.OldState).
			Str("new_state", event.StateChange.NewState)
		if event.StateChange.Reason != "" {
			e = e.Str("reason", event.StateChange.Reason)
		}
	case event.ControlMsg != nil:
		e = e.Str("ctrl_type", event.ControlMsg.Type.String())
	case event.Error != nil:
		e = e.Str("error_layer", event.Error.Layer.String()).
			Str("error_msg", event.Error.Message).
			Str("error_context", event.Error.Context)
		if event.Error.Code != nil {
			e = e.Int("error_code", *event.Error.Code)
		}
	}

	e.Msg("protocol")
}

var _ Logger = (*ZerologAdapter)(nil)
