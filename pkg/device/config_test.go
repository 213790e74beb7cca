package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validHubConfig() Config {
	return Config{
		UserAgent:  "aziot-go/1.0.0",
		HubFQDN:    "contoso.azure-devices.net",
		DeviceID:   "mydevice",
		DeviceKey:  testDeviceKey,
		DataBuffer: make([]byte, 1024),
		Transport:  &mockProvider{},
		Callbacks:  noopCallbacks(),
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:   "valid direct hub",
			mutate: func(*Config) {},
		},
		{
			name: "valid provisioning",
			mutate: func(c *Config) {
				c.UseProvisioning = true
				c.HubFQDN = ""
				c.DeviceID = ""
				c.DPSIDScope = "0ne000FFA42"
				c.DPSRegistrationID = "mydevice"
			},
		},
		{
			name: "valid certificate auth",
			mutate: func(c *Config) {
				c.DeviceKey = ""
				c.DeviceCertificate = []byte("cert")
				c.DeviceCertificateKey = []byte("key")
			},
		},
		{
			name:    "missing user agent",
			mutate:  func(c *Config) { c.UserAgent = "" },
			wantErr: true,
		},
		{
			name:    "missing transport",
			mutate:  func(c *Config) { c.Transport = nil },
			wantErr: true,
		},
		{
			name:    "missing data buffer",
			mutate:  func(c *Config) { c.DataBuffer = nil },
			wantErr: true,
		},
		{
			name:    "missing hub identity",
			mutate:  func(c *Config) { c.DeviceID = "" },
			wantErr: true,
		},
		{
			name: "provisioning without id scope",
			mutate: func(c *Config) {
				c.UseProvisioning = true
				c.DPSRegistrationID = "mydevice"
			},
			wantErr: true,
		},
		{
			name: "certificate without key",
			mutate: func(c *Config) {
				c.DeviceKey = ""
				c.DeviceCertificate = []byte("cert")
			},
			wantErr: true,
		},
		{
			name:    "no credentials at all",
			mutate:  func(c *Config) { c.DeviceKey = "" },
			wantErr: true,
		},
		{
			name: "both key and certificate",
			mutate: func(c *Config) {
				c.DeviceCertificate = []byte("cert")
				c.DeviceCertificateKey = []byte("key")
			},
			wantErr: true,
		},
		{
			name:    "missing all callbacks",
			mutate:  func(c *Config) { c.Callbacks = Callbacks{} },
			wantErr: true,
		},
		{
			name:    "missing command callback",
			mutate:  func(c *Config) { c.Callbacks.OnCommandReceived = nil },
			wantErr: true,
		},
		{
			name:    "missing properties callback",
			mutate:  func(c *Config) { c.Callbacks.OnPropertiesReceived = nil },
			wantErr: true,
		},
		{
			name:    "missing update completion callback",
			mutate:  func(c *Config) { c.Callbacks.OnPropertiesUpdateCompleted = nil },
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validHubConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestNewClientRejectsInvalidConfig(t *testing.T) {
	_, err := NewClient(Config{})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
