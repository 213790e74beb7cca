package transport

import "errors"

// ErrTransport is returned when an MQTT operation cannot be started.
// Failures of operations already in flight are reported through the
// EventSink instead.
var ErrTransport = errors.New("transport: mqtt operation failed")

// Message is an inbound MQTT application message.
type Message struct {
	// Topic is the full topic the message arrived on.
	Topic string

	// Payload is the message body. The slice is only valid for the
	// duration of the OnMQTTMessageReceived call.
	Payload []byte
}

// EventSink receives transport events. The device client implements it.
//
// Implementations must return quickly; a Conn may deliver events from its
// own network goroutine.
type EventSink interface {
	// OnMQTTConnected reports that the CONNACK was received.
	OnMQTTConnected()

	// OnMQTTDisconnected reports that the connection was lost or that an
	// in-flight operation failed. err describes the cause when known;
	// implementations wrap ErrTransport when a connect, subscribe or
	// publish failed, as opposed to an established session dropping.
	OnMQTTDisconnected(err error)

	// OnMQTTSubscribed reports that the subscription started with the
	// given packet id was granted.
	OnMQTTSubscribed(packetID uint16)

	// OnMQTTPublished reports that the publish started with the given
	// packet id completed.
	OnMQTTPublished(packetID uint16)

	// OnMQTTMessageReceived delivers an inbound message.
	OnMQTTMessageReceived(msg Message)
}

// Conn is a single MQTT session. All methods start the operation and
// return without waiting for the broker. Implementations must not invoke
// the EventSink synchronously from within Subscribe or Publish; the caller
// may hold locks the sink needs.
// Implemented by pahoConn.
type Conn interface {
	// Disconnect tears the session down. No events are delivered after
	// Disconnect returns.
	Disconnect() error

	// Subscribe starts a subscription to filter and returns the packet
	// id that the matching OnMQTTSubscribed event will carry.
	Subscribe(filter string, qos byte) (uint16, error)

	// Publish starts sending payload to topic and returns the packet id
	// that the matching OnMQTTPublished event will carry.
	Publish(topic string, payload []byte, qos byte) (uint16, error)
}

// Provider opens MQTT sessions. The device client holds one Provider for
// its whole lifetime and opens a fresh Conn per endpoint: once for
// provisioning, then again for each hub session.
// Implemented by PahoProvider.
type Provider interface {
	// Connect starts a session described by opts and returns immediately.
	// The outcome arrives at sink as OnMQTTConnected or
	// OnMQTTDisconnected, never synchronously from within Connect.
	Connect(opts ConnectOptions, sink EventSink) (Conn, error)
}
