package wire

import (
	"fmt"
	"net/url"
)

// Service endpoints and protocol versions.
const (
	// DPSEndpoint is the global Device Provisioning Service hostname.
	DPSEndpoint = "global.azure-devices-provisioning.net"

	// MQTTPort is the TLS MQTT port used by DPS and IoT Hub.
	MQTTPort = 8883

	DPSAPIVersion = "2019-03-31"
	HubAPIVersion = "2020-09-30"
)

// MQTT quality-of-service levels.
const (
	QoSAtMostOnce  byte = 0
	QoSAtLeastOnce byte = 1
)

// ComponentSeparator splits a Plug and Play component name from a command
// name in a method topic segment.
const ComponentSeparator = "*"

// Subscription filters.
const (
	DPSResponsesFilter       = "$dps/registrations/res/#"
	CommandsFilter           = "$iothub/methods/POST/#"
	TwinResponsesFilter      = "$iothub/twin/res/#"
	WritablePropertiesFilter = "$iothub/twin/PATCH/properties/desired/#"
)

// dpsRequestID is the request id placed on DPS register and query topics.
// DPS correlates on the operation id, so a single fixed rid suffices.
const dpsRequestID = "1"

// DPSRegisterTopic returns the topic a device publishes its registration
// request to.
func DPSRegisterTopic() string {
	return "$dps/registrations/PUT/iotdps-register/?$rid=" + dpsRequestID
}

// DPSQueryTopic returns the topic used to poll the status of a pending
// registration operation.
func DPSQueryTopic(operationID string) string {
	return "$dps/registrations/GET/iotdps-get-operationstatus/?$rid=" +
		dpsRequestID + "&operationId=" + url.QueryEscape(operationID)
}

// DPSUsername returns the MQTT username for a DPS connection. The MQTT
// client id for DPS is the registration id itself.
func DPSUsername(idScope, registrationID string) string {
	return idScope + "/registrations/" + registrationID + "/api-version=" + DPSAPIVersion
}

// DPSResourceURI returns the resource a DPS SAS token is scoped to.
func DPSResourceURI(idScope, registrationID string) string {
	return idScope + "/registrations/" + registrationID
}

// HubUsername returns the MQTT username for an IoT Hub connection. The
// model id segment is omitted when modelID is empty. The MQTT client id
// for a hub connection is the device id.
func HubUsername(hubFQDN, deviceID, userAgent, modelID string) string {
	u := hubFQDN + "/" + deviceID + "/?api-version=" + HubAPIVersion +
		"&DeviceClientType=" + url.QueryEscape(userAgent)
	if modelID != "" {
		u += "&model-id=" + url.QueryEscape(modelID)
	}
	return u
}

// HubResourceURI returns the resource a hub SAS token is scoped to.
func HubResourceURI(hubFQDN, deviceID string) string {
	return hubFQDN + "/devices/" + deviceID
}

// TelemetryTopic returns the device-to-cloud event topic.
func TelemetryTopic(deviceID string) string {
	return "devices/" + deviceID + "/messages/events/"
}

// TwinGetTopic returns the topic that requests the full twin document.
func TwinGetTopic(requestID uint32) string {
	return fmt.Sprintf("$iothub/twin/GET/?$rid=%d", requestID)
}

// ReportedPropertiesTopic returns the topic a reported-properties patch is
// published to.
func ReportedPropertiesTopic(requestID uint32) string {
	return fmt.Sprintf("$iothub/twin/PATCH/properties/reported/?$rid=%d", requestID)
}

// CommandResponseTopic returns the topic a command result is published to.
// The request id must be the one parsed from the incoming command topic.
func CommandResponseTopic(status int, requestID string) string {
	return fmt.Sprintf("$iothub/methods/res/%d/?$rid=%s", status, requestID)
}
