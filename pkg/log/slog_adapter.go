package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes protocol events to an slog.Logger.
// Useful for development when you want to see protocol events in console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger at Debug level.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("conn_id", event.ConnectionID),
		slog.String("direction", event.Direction.String()),
		slog.String("endpoint", event.Endpoint.String()),
		slog.String("category", event.Category.String()),
	}

	if event.DeviceID != "" {
		attrs = append(attrs, slog.String("device_id", event.DeviceID))
	}

	switch {
	case event.Packet != nil:
		attrs = append(attrs,
			slog.String("packet", event.Packet.Kind.String()),
			slog.Int("size", event.Packet.Size),
		)
		if event.Packet.Topic != "" {
			attrs = append(attrs, slog.String("topic", event.Packet.Topic))
		}
		if event.Packet.PacketID != 0 {
			attrs = append(attrs, slog.Uint64("packet_id", uint64(event.Packet.PacketID)))
		}
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.String("old_state", event.StateChange.OldState),
			slog.String("new_state", event.StateChange.NewState),
		)
		if event.StateChange.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.StateChange.Reason))
		}
	case event.Provisioning != nil:
		attrs = append(attrs, slog.String("status", event.Provisioning.Status))
		if event.Provisioning.OperationID != "" {
			attrs = append(attrs, slog.String("operation_id", event.Provisioning.OperationID))
		}
		if event.Provisioning.RetryAfter != 0 {
			attrs = append(attrs, slog.Uint64("retry_after", uint64(event.Provisioning.RetryAfter)))
		}
		if event.Provisioning.AssignedHub != "" {
			attrs = append(attrs, slog.String("assigned_hub", event.Provisioning.AssignedHub))
		}
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("error_msg", event.Error.Message),
			slog.String("error_context", event.Error.Context),
		)
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "protocol", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
