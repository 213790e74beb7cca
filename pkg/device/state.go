package device

// state is the fine-grained client state. Hosts only see the coarse
// Status; the full state appears in debug and protocol logs.
type state uint8

const (
	stateNotInitialized state = iota
	stateInitialized
	stateStarted
	stateConnectingToDPS
	stateConnectedToDPS
	stateSubscribingToDPS
	stateSubscribedToDPS
	stateProvisioningQuerying
	stateProvisioningWaiting
	stateProvisioned
	stateConnectingToHub
	stateConnectedToHub
	stateSubscribingToCommands
	stateSubscribedToCommands
	stateSubscribingToProperties
	stateSubscribedToProperties
	stateSubscribingToWritableProperties
	stateReady
	stateRefreshingSAS
	stateError
)

// String returns the state name.
func (s state) String() string {
	switch s {
	case stateNotInitialized:
		return "not_initialized"
	case stateInitialized:
		return "initialized"
	case stateStarted:
		return "started"
	case stateConnectingToDPS:
		return "connecting_to_dps"
	case stateConnectedToDPS:
		return "connected_to_dps"
	case stateSubscribingToDPS:
		return "subscribing_to_dps"
	case stateSubscribedToDPS:
		return "subscribed_to_dps"
	case stateProvisioningQuerying:
		return "provisioning_querying"
	case stateProvisioningWaiting:
		return "provisioning_waiting"
	case stateProvisioned:
		return "provisioned"
	case stateConnectingToHub:
		return "connecting_to_hub"
	case stateConnectedToHub:
		return "connected_to_hub"
	case stateSubscribingToCommands:
		return "subscribing_to_commands"
	case stateSubscribedToCommands:
		return "subscribed_to_commands"
	case stateSubscribingToProperties:
		return "subscribing_to_properties"
	case stateSubscribedToProperties:
		return "subscribed_to_properties"
	case stateSubscribingToWritableProperties:
		return "subscribing_to_writable_properties"
	case stateReady:
		return "ready"
	case stateRefreshingSAS:
		return "refreshing_sas"
	case stateError:
		return "error"
	default:
		return "unknown"
	}
}

// provisioningPhase reports whether a transport loss in this state is
// fatal. Losing the broker mid-provisioning leaves no assignment to fall
// back to, so the client does not retry on its own.
func (s state) provisioningPhase() bool {
	return s >= stateConnectingToDPS && s <= stateProvisioningWaiting
}

// Status is the coarse connection status reported to hosts.
type Status uint8

const (
	// StatusDisconnected indicates the client is idle: created, stopped,
	// or dropped from the hub.
	StatusDisconnected Status = iota

	// StatusConnecting indicates provisioning or hub session
	// establishment is in progress.
	StatusConnecting

	// StatusConnected indicates the client is ready for telemetry,
	// commands and property exchange.
	StatusConnected

	// StatusError indicates a fatal failure. The client stays here until
	// Stop and Start are called.
	StatusError
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusDisconnected:
		return "DISCONNECTED"
	case StatusConnecting:
		return "CONNECTING"
	case StatusConnected:
		return "CONNECTED"
	case StatusError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// status maps the fine-grained state to the coarse Status.
func (s state) status() Status {
	switch {
	case s == stateReady:
		return StatusConnected
	case s == stateError:
		return StatusError
	case s >= stateStarted && s <= stateRefreshingSAS:
		return StatusConnecting
	default:
		return StatusDisconnected
	}
}
