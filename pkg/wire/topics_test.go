package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDPSTopics(t *testing.T) {
	assert.Equal(t, "$dps/registrations/PUT/iotdps-register/?$rid=1", DPSRegisterTopic())
	assert.Equal(t,
		"$dps/registrations/GET/iotdps-get-operationstatus/?$rid=1&operationId=4.d0a671905ea5b2c8.42d78160-4c78-479e-8be7-61d5e55dac0d",
		DPSQueryTopic("4.d0a671905ea5b2c8.42d78160-4c78-479e-8be7-61d5e55dac0d"))
}

func TestDPSCredentials(t *testing.T) {
	assert.Equal(t,
		"0ne000FFA42/registrations/mydevice/api-version=2019-03-31",
		DPSUsername("0ne000FFA42", "mydevice"))
	assert.Equal(t,
		"0ne000FFA42/registrations/mydevice",
		DPSResourceURI("0ne000FFA42", "mydevice"))
}

func TestHubUsername(t *testing.T) {
	got := HubUsername("contoso.azure-devices.net", "mydevice", "c%2F1.1.0", "dtmi:com:example:Thermostat;1")
	assert.Equal(t,
		"contoso.azure-devices.net/mydevice/?api-version=2020-09-30"+
			"&DeviceClientType=c%252F1.1.0&model-id=dtmi%3Acom%3Aexample%3AThermostat%3B1",
		got)
}

func TestHubUsernameWithoutModelID(t *testing.T) {
	got := HubUsername("contoso.azure-devices.net", "mydevice", "aziot-go", "")
	assert.Equal(t,
		"contoso.azure-devices.net/mydevice/?api-version=2020-09-30&DeviceClientType=aziot-go",
		got)
	assert.NotContains(t, got, "model-id")
}

func TestHubTopics(t *testing.T) {
	assert.Equal(t, "contoso.azure-devices.net/devices/mydevice",
		HubResourceURI("contoso.azure-devices.net", "mydevice"))
	assert.Equal(t, "devices/mydevice/messages/events/", TelemetryTopic("mydevice"))
	assert.Equal(t, "$iothub/twin/GET/?$rid=7", TwinGetTopic(7))
	assert.Equal(t, "$iothub/twin/PATCH/properties/reported/?$rid=12", ReportedPropertiesTopic(12))
	assert.Equal(t, "$iothub/methods/res/200/?$rid=42", CommandResponseTopic(200, "42"))
}
