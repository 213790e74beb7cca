package device

import (
	"errors"
	"log/slog"

	"github.com/aziot-protocol/aziot-go/pkg/log"
	"github.com/aziot-protocol/aziot-go/pkg/sas"
	"github.com/aziot-protocol/aziot-go/pkg/transport"
)

// Client errors.
var (
	// ErrInvalidConfig is returned when the configuration is unusable.
	ErrInvalidConfig = errors.New("device: invalid configuration")

	// ErrNotConnected is returned by send operations outside the ready
	// state. Nothing is transmitted.
	ErrNotConnected = errors.New("device: not connected")

	// ErrAlreadyStarted is returned by Start on a running client.
	ErrAlreadyStarted = errors.New("device: already started")

	// ErrNotStarted is returned by Stop on a client that is not running.
	ErrNotStarted = errors.New("device: not started")
)

// Clock returns the current time in unix seconds. It exists so hosts with
// an external time source (NTP on constrained hardware, fake clocks in
// tests) can inject it; nil means the system clock.
type Clock func() uint32

// Command is a direct method or Plug and Play command invocation received
// from the hub.
type Command struct {
	// Component is the Plug and Play component the command addresses,
	// empty for the default component.
	Component string

	// Name is the command name.
	Name string

	// RequestID identifies the invocation. Pass it to
	// SendCommandResponse unchanged.
	RequestID string

	// Payload is the request body. Valid only for the duration of the
	// callback; copy it to retain it.
	Payload []byte
}

// Callbacks are the application hooks the client invokes. All three hooks
// are required; a client with a missing hook would silently discard command
// invocations or twin traffic, so Validate rejects it. Hooks run on the
// goroutine that delivered the underlying transport event, after the client
// has released its internal lock: calling send operations from a hook is
// safe, calling Stop or DoWork is not. Hooks must not block.
type Callbacks struct {
	// OnCommandReceived is invoked for each command invocation. The
	// application is expected to answer with SendCommandResponse.
	OnCommandReceived func(cmd Command)

	// OnPropertiesReceived is invoked with a full twin document after
	// the initial snapshot request, and with a desired-property patch
	// whenever the service pushes one.
	OnPropertiesReceived func(payload []byte)

	// OnPropertiesUpdateCompleted is invoked when the hub acknowledges a
	// reported-properties update sent with SendPropertiesUpdate.
	OnPropertiesUpdateCompleted func(requestID uint32, status int)
}

// Config configures a Client. The zero value is not usable; at minimum a
// transport, a data buffer and either hub or provisioning identity must be
// set.
type Config struct {
	// UserAgent identifies the client in the hub connection, e.g.
	// "aziot-go/1.0.0 (linux)".
	UserAgent string

	// UseProvisioning selects zero-touch provisioning through DPS. When
	// true, DPSIDScope and DPSRegistrationID are required and HubFQDN
	// and DeviceID are learned from the assignment. When false, HubFQDN
	// and DeviceID are required.
	UseProvisioning bool

	// HubFQDN is the IoT hub hostname, e.g. "contoso.azure-devices.net".
	HubFQDN string

	// DeviceID is the hub device identity.
	DeviceID string

	// DPSIDScope is the provisioning service ID scope, e.g. "0ne000FFA42".
	DPSIDScope string

	// DPSRegistrationID is the device registration id at DPS.
	DPSRegistrationID string

	// DeviceKey is the base64-encoded symmetric key used for SAS
	// authentication. Exactly one of DeviceKey and DeviceCertificate
	// must be configured.
	DeviceKey string

	// DeviceCertificate and DeviceCertificateKey hold the device X509
	// certificate and private key in PEM form. When set, SAS generation
	// is skipped entirely and the TLS client certificate authenticates
	// the device. Mutually exclusive with DeviceKey.
	DeviceCertificate    []byte
	DeviceCertificateKey []byte

	// ModelID is the Plug and Play model announced to DPS and the hub,
	// e.g. "dtmi:com:example:Thermostat;1". Optional.
	ModelID string

	// DataBuffer backs the client's credential arena. Every derived
	// string (assigned hub FQDN, device id, MQTT username, SAS token)
	// is carved out of it, and the client fails with
	// arena.ErrBufferTooSmall when it does not fit. Size it for
	// fqdn + deviceID + clientID + username + 2 passwords; 2048 bytes
	// is comfortable for typical identities.
	DataBuffer []byte

	// Transport opens MQTT sessions.
	Transport transport.Provider

	// Crypto supplies HMAC-SHA256 and base64 for SAS generation. Nil
	// means sas.StdCrypto.
	Crypto sas.Crypto

	// Clock supplies unix time for token expiry and DPS polling. Nil
	// means the system clock.
	Clock Clock

	// SASTokenLifetimeMinutes is the validity window of generated
	// tokens. Zero means sas.DefaultLifetimeMinutes.
	SASTokenLifetimeMinutes uint32

	// Callbacks are the application hooks.
	Callbacks Callbacks

	// Logger enables debug logging. May be nil.
	Logger *slog.Logger

	// ProtocolLogger captures the machine-readable event trace. Nil
	// disables capture.
	ProtocolLogger log.Logger
}

// Validate checks the configuration for basic correctness.
func (c *Config) Validate() error {
	if c.UserAgent == "" {
		return errors.Join(ErrInvalidConfig, errors.New("user agent is required"))
	}
	if c.Transport == nil {
		return errors.Join(ErrInvalidConfig, errors.New("transport is required"))
	}
	if len(c.DataBuffer) == 0 {
		return errors.Join(ErrInvalidConfig, errors.New("data buffer is required"))
	}
	if c.UseProvisioning {
		if c.DPSIDScope == "" || c.DPSRegistrationID == "" {
			return errors.Join(ErrInvalidConfig, errors.New("provisioning requires an id scope and registration id"))
		}
	} else {
		if c.HubFQDN == "" || c.DeviceID == "" {
			return errors.Join(ErrInvalidConfig, errors.New("direct connection requires a hub FQDN and device id"))
		}
	}
	hasCert := len(c.DeviceCertificate) > 0
	hasCertKey := len(c.DeviceCertificateKey) > 0
	if hasCert != hasCertKey {
		return errors.Join(ErrInvalidConfig, errors.New("device certificate and key must be set together"))
	}
	if c.DeviceKey == "" && !hasCert {
		return errors.Join(ErrInvalidConfig, errors.New("either a device key or a device certificate is required"))
	}
	if c.DeviceKey != "" && hasCert {
		return errors.Join(ErrInvalidConfig, errors.New("device key and device certificate are mutually exclusive"))
	}
	if c.Callbacks.OnCommandReceived == nil ||
		c.Callbacks.OnPropertiesReceived == nil ||
		c.Callbacks.OnPropertiesUpdateCompleted == nil {
		return errors.Join(ErrInvalidConfig, errors.New("all three callbacks are required"))
	}
	return nil
}

// usesCertificate reports whether X509 authentication is configured.
func (c *Config) usesCertificate() bool {
	return len(c.DeviceCertificate) > 0
}
