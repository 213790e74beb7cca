package log

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingLogger struct {
	events []Event
}

func (r *recordingLogger) Log(event Event) {
	r.events = append(r.events, event)
}

func TestNoopLogger(t *testing.T) {
	// Must not panic as a zero value.
	var l NoopLogger
	l.Log(Event{ConnectionID: "x"})
}

func TestMultiLoggerFansOut(t *testing.T) {
	first := &recordingLogger{}
	second := &recordingLogger{}
	multi := NewMultiLogger(first, second, NoopLogger{})

	multi.Log(Event{ConnectionID: "conn-1"})
	multi.Log(Event{ConnectionID: "conn-2"})

	assert.Len(t, first.events, 2)
	assert.Len(t, second.events, 2)
	assert.Equal(t, "conn-1", first.events[0].ConnectionID)
}

func TestSlogAdapter(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	adapter := NewSlogAdapter(slog.New(handler))

	adapter.Log(Event{
		ConnectionID: "conn-hub",
		Direction:    DirectionOut,
		Endpoint:     EndpointHub,
		Category:     CategoryPacket,
		DeviceID:     "mydevice",
		Packet:       &PacketEvent{Kind: PacketSubscribe, Topic: "$iothub/methods/POST/#", PacketID: 3},
	})

	out := buf.String()
	assert.Contains(t, out, "conn_id=conn-hub")
	assert.Contains(t, out, "packet=SUBSCRIBE")
	assert.Contains(t, out, "device_id=mydevice")

	buf.Reset()
	adapter.Log(Event{
		ConnectionID: "conn-dps",
		Category:     CategoryState,
		StateChange:  &StateChangeEvent{OldState: "started", NewState: "connecting_to_dps"},
	})
	assert.Contains(t, buf.String(), "new_state=connecting_to_dps")
}
