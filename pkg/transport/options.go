package transport

import (
	"fmt"
	"time"
)

// DefaultKeepAlive is the MQTT keep-alive interval applied when
// ConnectOptions leaves KeepAlive zero.
const DefaultKeepAlive = 30 * time.Second

// ConnectOptions describes one MQTT session.
type ConnectOptions struct {
	// Host is the broker hostname, without port.
	Host string

	// Port is the broker TLS port, typically wire.MQTTPort.
	Port int

	// ClientID is the MQTT client identifier.
	ClientID string

	// Username is the MQTT username.
	Username string

	// Password is the SAS token, or empty when authenticating with a
	// client certificate.
	Password string

	// Certificate and CertificateKey hold the device X509 certificate
	// and its private key in PEM form. Both must be set together; when
	// set, Password is ignored by the broker.
	Certificate    []byte
	CertificateKey []byte

	// KeepAlive is the MQTT keep-alive interval. Zero means
	// DefaultKeepAlive.
	KeepAlive time.Duration

	// InsecureSkipVerify disables server certificate verification.
	// Only for testing against local brokers.
	InsecureSkipVerify bool
}

// UsesCertificate reports whether the session authenticates with an X509
// client certificate instead of a SAS token.
func (o ConnectOptions) UsesCertificate() bool {
	return len(o.Certificate) > 0
}

// Validate checks that the options describe a usable session.
func (o ConnectOptions) Validate() error {
	if o.Host == "" {
		return fmt.Errorf("%w: host is required", ErrTransport)
	}
	if o.Port <= 0 || o.Port > 65535 {
		return fmt.Errorf("%w: invalid port %d", ErrTransport, o.Port)
	}
	if o.ClientID == "" {
		return fmt.Errorf("%w: client id is required", ErrTransport)
	}
	if o.Username == "" {
		return fmt.Errorf("%w: username is required", ErrTransport)
	}
	if len(o.Certificate) > 0 != (len(o.CertificateKey) > 0) {
		return fmt.Errorf("%w: certificate and key must be set together", ErrTransport)
	}
	if !o.UsesCertificate() && o.Password == "" {
		return fmt.Errorf("%w: either a password or a client certificate is required", ErrTransport)
	}
	return nil
}
