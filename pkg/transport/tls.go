package transport

import (
	"crypto/tls"
	"fmt"
)

// NewClientTLSConfig creates the TLS configuration for a broker session.
// Azure endpoints require TLS 1.2 or later; the system root pool verifies
// the server. When the options carry a device certificate it is loaded as
// the client credential for X509 authentication.
func NewClientTLSConfig(opts ConnectOptions) (*tls.Config, error) {
	tlsConfig := &tls.Config{
		MinVersion: tls.VersionTLS12,
		ServerName: opts.Host,

		// For testing only
		InsecureSkipVerify: opts.InsecureSkipVerify,
	}

	if opts.UsesCertificate() {
		cert, err := tls.X509KeyPair(opts.Certificate, opts.CertificateKey)
		if err != nil {
			return nil, fmt.Errorf("%w: loading device certificate: %w", ErrTransport, err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	return tlsConfig, nil
}
