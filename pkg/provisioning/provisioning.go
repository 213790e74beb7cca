// Package provisioning builds and parses the JSON bodies the Device
// Provisioning Service exchanges with a device over MQTT.
package provisioning

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

// ErrProtocol is returned when a service response cannot be understood.
var ErrProtocol = errors.New("provisioning: malformed service response")

// DefaultRetryAfterSeconds is the polling delay applied when the service
// does not suggest one.
const DefaultRetryAfterSeconds = 3

// Registration operation statuses reported by the service.
const (
	StatusUnassigned = "unassigned"
	StatusAssigning  = "assigning"
	StatusAssigned   = "assigned"
	StatusFailed     = "failed"
	StatusDisabled   = "disabled"
)

type registerRequest struct {
	RegistrationID string          `json:"registrationId"`
	Payload        *registerCustom `json:"payload,omitempty"`
}

type registerCustom struct {
	ModelID string `json:"modelId"`
}

// RegisterPayload builds the body of a registration request. The modelId
// custom property announces the Plug and Play model of the device and is
// omitted when modelID is empty.
func RegisterPayload(registrationID, modelID string) ([]byte, error) {
	req := registerRequest{RegistrationID: registrationID}
	if modelID != "" {
		req.Payload = &registerCustom{ModelID: modelID}
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding register request: %w", err)
	}
	return body, nil
}

// RegistrationState is the assignment the service settled on.
type RegistrationState struct {
	AssignedHub string `json:"assignedHub"`
	DeviceID    string `json:"deviceId"`
}

// Response is the body of a DPS registration or operation-status response.
type Response struct {
	OperationID       string            `json:"operationId"`
	Status            string            `json:"status"`
	RegistrationState RegistrationState `json:"registrationState"`
}

// Pending reports whether the operation is still being processed and must
// be polled again.
func (r Response) Pending() bool {
	return r.Status == StatusAssigning || r.Status == StatusUnassigned
}

// Assigned reports whether the device was assigned to a hub.
func (r Response) Assigned() bool {
	return r.Status == StatusAssigned
}

// ParseResponse decodes a response body. An assigned response must carry
// the hub FQDN and device id; a pending one must carry the operation id.
func ParseResponse(body []byte) (Response, error) {
	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return Response{}, fmt.Errorf("%w: %w", ErrProtocol, err)
	}
	if resp.Status == "" {
		return Response{}, fmt.Errorf("%w: missing status", ErrProtocol)
	}
	if resp.Pending() && resp.OperationID == "" {
		return Response{}, fmt.Errorf("%w: pending response without operation id", ErrProtocol)
	}
	if resp.Assigned() && (resp.RegistrationState.AssignedHub == "" || resp.RegistrationState.DeviceID == "") {
		return Response{}, fmt.Errorf("%w: assigned response without hub assignment", ErrProtocol)
	}
	return resp, nil
}
