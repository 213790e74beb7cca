package log

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodePacketEvent(t *testing.T) {
	event := Event{
		Timestamp:    time.Date(2026, 3, 14, 9, 26, 53, 589793238, time.UTC),
		ConnectionID: "b7c6f7e0-1c2d-4a5e-9f00-000000000001",
		Direction:    DirectionOut,
		Endpoint:     EndpointHub,
		Category:     CategoryPacket,
		DeviceID:     "mydevice",
		Packet: &PacketEvent{
			Kind:     PacketPublish,
			Topic:    "devices/mydevice/messages/events/",
			Size:     42,
			PacketID: 7,
		},
	}

	data, err := EncodeEvent(event)
	require.NoError(t, err)

	decoded, err := DecodeEvent(data)
	require.NoError(t, err)

	assert.True(t, event.Timestamp.Equal(decoded.Timestamp))
	assert.Equal(t, event.ConnectionID, decoded.ConnectionID)
	assert.Equal(t, event.Direction, decoded.Direction)
	assert.Equal(t, event.Endpoint, decoded.Endpoint)
	assert.Equal(t, event.Category, decoded.Category)
	assert.Equal(t, event.DeviceID, decoded.DeviceID)
	require.NotNil(t, decoded.Packet)
	assert.Equal(t, *event.Packet, *decoded.Packet)
	assert.Nil(t, decoded.StateChange)
}

func TestEncodeDecodeStateChangeEvent(t *testing.T) {
	event := Event{
		Timestamp:    time.Now().UTC(),
		ConnectionID: "b7c6f7e0-1c2d-4a5e-9f00-000000000002",
		Direction:    DirectionIn,
		Endpoint:     EndpointDPS,
		Category:     CategoryState,
		StateChange: &StateChangeEvent{
			OldState: "connecting_to_dps",
			NewState: "connected_to_dps",
		},
	}

	data, err := EncodeEvent(event)
	require.NoError(t, err)

	decoded, err := DecodeEvent(data)
	require.NoError(t, err)
	require.NotNil(t, decoded.StateChange)
	assert.Equal(t, *event.StateChange, *decoded.StateChange)
}

func TestEncodeDecodeProvisioningEvent(t *testing.T) {
	event := Event{
		Timestamp:    time.Now().UTC(),
		ConnectionID: "b7c6f7e0-1c2d-4a5e-9f00-000000000003",
		Direction:    DirectionIn,
		Endpoint:     EndpointDPS,
		Category:     CategoryProvisioning,
		Provisioning: &ProvisioningEvent{
			OperationID:      "4.d0a671905ea5b2c8.42d78160",
			Status:           "assigned",
			AssignedHub:      "contoso.azure-devices.net",
			AssignedDeviceID: "mydevice",
		},
	}

	data, err := EncodeEvent(event)
	require.NoError(t, err)

	decoded, err := DecodeEvent(data)
	require.NoError(t, err)
	require.NotNil(t, decoded.Provisioning)
	assert.Equal(t, *event.Provisioning, *decoded.Provisioning)
}

func TestDecodeGarbage(t *testing.T) {
	_, err := DecodeEvent([]byte{0xff, 0x00, 0x13})
	assert.Error(t, err)
}

func TestEnumStrings(t *testing.T) {
	assert.Equal(t, "IN", DirectionIn.String())
	assert.Equal(t, "OUT", DirectionOut.String())
	assert.Equal(t, "DPS", EndpointDPS.String())
	assert.Equal(t, "HUB", EndpointHub.String())
	assert.Equal(t, "PACKET", CategoryPacket.String())
	assert.Equal(t, "PROVISIONING", CategoryProvisioning.String())
	assert.Equal(t, "SUBACK", PacketSubAck.String())
	assert.Equal(t, "UNKNOWN", PacketKind(99).String())
}
