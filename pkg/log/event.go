package log

import "time"

// Event represents a protocol log event captured by the device client.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// ConnectionID uniquely identifies the MQTT session (UUID). A device
	// run produces at least two sessions: provisioning and hub.
	ConnectionID string `cbor:"2,keyasint"`

	// Direction indicates message flow.
	Direction Direction `cbor:"3,keyasint"`

	// Endpoint is the service the session talks to.
	Endpoint Endpoint `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// DeviceID is the device identifier (populated once known; for
	// provisioned devices that is after assignment).
	DeviceID string `cbor:"6,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Packet       *PacketEvent       `cbor:"7,keyasint,omitempty"`  // MQTT traffic
	StateChange  *StateChangeEvent  `cbor:"8,keyasint,omitempty"`  // Client state machine
	Provisioning *ProvisioningEvent `cbor:"9,keyasint,omitempty"`  // DPS milestones
	Error        *ErrorEventData    `cbor:"10,keyasint,omitempty"` // Errors
}

// Direction indicates the direction of message flow.
type Direction uint8

const (
	// DirectionIn indicates an incoming message.
	DirectionIn Direction = 0
	// DirectionOut indicates an outgoing message.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Endpoint indicates which service a session is connected to.
type Endpoint uint8

const (
	// EndpointDPS is the Device Provisioning Service.
	EndpointDPS Endpoint = 0
	// EndpointHub is an IoT hub.
	EndpointHub Endpoint = 1
)

// String returns the endpoint name.
func (e Endpoint) String() string {
	switch e {
	case EndpointDPS:
		return "DPS"
	case EndpointHub:
		return "HUB"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryPacket indicates MQTT traffic (publish, subscribe, message).
	CategoryPacket Category = 0
	// CategoryState indicates a state machine transition.
	CategoryState Category = 1
	// CategoryProvisioning indicates a DPS milestone.
	CategoryProvisioning Category = 2
	// CategoryError indicates an error event.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryPacket:
		return "PACKET"
	case CategoryState:
		return "STATE"
	case CategoryProvisioning:
		return "PROVISIONING"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// PacketEvent captures one MQTT packet.
type PacketEvent struct {
	// Kind of packet.
	Kind PacketKind `cbor:"1,keyasint"`

	// Topic is the publish topic or subscription filter, empty for
	// connection-level packets.
	Topic string `cbor:"2,keyasint,omitempty"`

	// Size is the payload size in bytes.
	Size int `cbor:"3,keyasint,omitempty"`

	// QoS is the requested quality of service.
	QoS uint8 `cbor:"4,keyasint,omitempty"`

	// PacketID correlates an operation with its acknowledgement.
	PacketID uint16 `cbor:"5,keyasint,omitempty"`
}

// PacketKind indicates the type of MQTT packet.
type PacketKind uint8

const (
	// PacketConnect is a connection attempt.
	PacketConnect PacketKind = 0
	// PacketConnAck is a completed connection.
	PacketConnAck PacketKind = 1
	// PacketDisconnect is a connection teardown or loss.
	PacketDisconnect PacketKind = 2
	// PacketSubscribe is an outbound subscription request.
	PacketSubscribe PacketKind = 3
	// PacketSubAck is a granted subscription.
	PacketSubAck PacketKind = 4
	// PacketPublish is an outbound application message.
	PacketPublish PacketKind = 5
	// PacketPubAck is a completed publish.
	PacketPubAck PacketKind = 6
	// PacketMessage is an inbound application message.
	PacketMessage PacketKind = 7
)

// String returns the packet kind name.
func (k PacketKind) String() string {
	switch k {
	case PacketConnect:
		return "CONNECT"
	case PacketConnAck:
		return "CONNACK"
	case PacketDisconnect:
		return "DISCONNECT"
	case PacketSubscribe:
		return "SUBSCRIBE"
	case PacketSubAck:
		return "SUBACK"
	case PacketPublish:
		return "PUBLISH"
	case PacketPubAck:
		return "PUBACK"
	case PacketMessage:
		return "MESSAGE"
	default:
		return "UNKNOWN"
	}
}

// StateChangeEvent captures a client state machine transition.
type StateChangeEvent struct {
	// OldState is the previous state (may be empty).
	OldState string `cbor:"1,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"2,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"3,keyasint,omitempty"`
}

// ProvisioningEvent captures a Device Provisioning Service milestone.
type ProvisioningEvent struct {
	// OperationID is the registration operation being tracked.
	OperationID string `cbor:"1,keyasint,omitempty"`

	// Status is the operation status reported by the service.
	Status string `cbor:"2,keyasint"`

	// RetryAfter is the polling delay in seconds, when suggested.
	RetryAfter uint32 `cbor:"3,keyasint,omitempty"`

	// AssignedHub is the hub FQDN, once assigned.
	AssignedHub string `cbor:"4,keyasint,omitempty"`

	// AssignedDeviceID is the device id, once assigned.
	AssignedDeviceID string `cbor:"5,keyasint,omitempty"`
}

// ErrorEventData captures errors at any point of the client lifecycle.
type ErrorEventData struct {
	// Message is the error message.
	Message string `cbor:"1,keyasint"`

	// Context describes what operation was being performed.
	Context string `cbor:"2,keyasint,omitempty"`
}
