package transport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validOptions() ConnectOptions {
	return ConnectOptions{
		Host:     "contoso.azure-devices.net",
		Port:     8883,
		ClientID: "mydevice",
		Username: "contoso.azure-devices.net/mydevice/?api-version=2020-09-30",
		Password: "SharedAccessSignature sr=...",
	}
}

func TestConnectOptionsValidate(t *testing.T) {
	assert.NoError(t, validOptions().Validate())

	tests := []struct {
		name   string
		mutate func(*ConnectOptions)
	}{
		{"missing host", func(o *ConnectOptions) { o.Host = "" }},
		{"zero port", func(o *ConnectOptions) { o.Port = 0 }},
		{"port out of range", func(o *ConnectOptions) { o.Port = 70000 }},
		{"missing client id", func(o *ConnectOptions) { o.ClientID = "" }},
		{"missing username", func(o *ConnectOptions) { o.Username = "" }},
		{"no credential at all", func(o *ConnectOptions) { o.Password = "" }},
		{"certificate without key", func(o *ConnectOptions) {
			o.Certificate = []byte("cert")
		}},
		{"key without certificate", func(o *ConnectOptions) {
			o.Password = ""
			o.CertificateKey = []byte("key")
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := validOptions()
			tt.mutate(&opts)
			assert.ErrorIs(t, opts.Validate(), ErrTransport)
		})
	}
}

func TestConnectOptionsCertificateAuth(t *testing.T) {
	opts := validOptions()
	opts.Password = ""
	opts.Certificate = []byte("cert")
	opts.CertificateKey = []byte("key")

	assert.True(t, opts.UsesCertificate())
	assert.NoError(t, opts.Validate())
}

func TestConnectOptionsKeepAliveDefault(t *testing.T) {
	assert.Equal(t, 30*time.Second, DefaultKeepAlive)
}

func TestNewClientTLSConfig(t *testing.T) {
	cfg, err := NewClientTLSConfig(validOptions())
	assert.NoError(t, err)
	assert.Equal(t, "contoso.azure-devices.net", cfg.ServerName)
	assert.Empty(t, cfg.Certificates)

	opts := validOptions()
	opts.Certificate = []byte("not a pem block")
	opts.CertificateKey = []byte("also not a pem block")
	_, err = NewClientTLSConfig(opts)
	assert.ErrorIs(t, err, ErrTransport)
}
