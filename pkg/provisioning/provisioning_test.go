package provisioning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterPayload(t *testing.T) {
	body, err := RegisterPayload("mydevice", "dtmi:com:example:Thermostat;1")
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"registrationId":"mydevice","payload":{"modelId":"dtmi:com:example:Thermostat;1"}}`,
		string(body))
}

func TestRegisterPayloadWithoutModelID(t *testing.T) {
	body, err := RegisterPayload("mydevice", "")
	require.NoError(t, err)
	assert.JSONEq(t, `{"registrationId":"mydevice"}`, string(body))
}

func TestParseResponseAssigning(t *testing.T) {
	resp, err := ParseResponse([]byte(
		`{"operationId":"4.d0a671905ea5b2c8.42d78160","status":"assigning"}`))
	require.NoError(t, err)
	assert.True(t, resp.Pending())
	assert.False(t, resp.Assigned())
	assert.Equal(t, "4.d0a671905ea5b2c8.42d78160", resp.OperationID)
}

func TestParseResponseAssigned(t *testing.T) {
	resp, err := ParseResponse([]byte(`{
		"operationId": "4.d0a671905ea5b2c8.42d78160",
		"status": "assigned",
		"registrationState": {
			"assignedHub": "contoso.azure-devices.net",
			"deviceId": "mydevice",
			"status": "assigned",
			"substatus": "initialAssignment"
		}
	}`))
	require.NoError(t, err)
	assert.True(t, resp.Assigned())
	assert.Equal(t, "contoso.azure-devices.net", resp.RegistrationState.AssignedHub)
	assert.Equal(t, "mydevice", resp.RegistrationState.DeviceID)
}

func TestParseResponseFailed(t *testing.T) {
	resp, err := ParseResponse([]byte(`{"operationId":"4.abc","status":"failed"}`))
	require.NoError(t, err)
	assert.False(t, resp.Pending())
	assert.False(t, resp.Assigned())
}

func TestParseResponseMalformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `this is not json`},
		{"missing status", `{"operationId":"4.abc"}`},
		{"pending without operation id", `{"status":"assigning"}`},
		{"assigned without hub", `{"operationId":"4.abc","status":"assigned","registrationState":{"deviceId":"mydevice"}}`},
		{"assigned without device id", `{"operationId":"4.abc","status":"assigned","registrationState":{"assignedHub":"contoso.azure-devices.net"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseResponse([]byte(tt.body))
			assert.ErrorIs(t, err, ErrProtocol)
		})
	}
}
