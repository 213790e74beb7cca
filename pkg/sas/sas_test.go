package sas

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Base64 of "my-symmetric-device-key-32bytes!".
const testDeviceKey = "bXktc3ltbWV0cmljLWRldmljZS1rZXktMzJieXRlcyE="

func TestGenerateHubToken(t *testing.T) {
	token, err := Generate(StdCrypto{}, testDeviceKey,
		"contoso.azure-devices.net/devices/mydevice", 1700003600)
	require.NoError(t, err)
	assert.Equal(t,
		"SharedAccessSignature sr=contoso.azure-devices.net%2Fdevices%2Fmydevice"+
			"&sig=UUWj8Q1LuXAkaEaMQLJ3spGTCJwlSf9%2B9e%2FIdY6zYwQ%3D&se=1700003600",
		token)
}

func TestGenerateDPSToken(t *testing.T) {
	token, err := Generate(StdCrypto{}, testDeviceKey,
		"0ne000FFA42/registrations/mydevice", 1700003600)
	require.NoError(t, err)
	assert.Equal(t,
		"SharedAccessSignature sr=0ne000FFA42%2Fregistrations%2Fmydevice"+
			"&sig=KvNbdvZYXl%2BBTb21fEBFD6bnwzmdZnHBM9jRSoIqycc%3D&se=1700003600",
		token)
}

func TestGenerateDeterministic(t *testing.T) {
	first, err := Generate(StdCrypto{}, testDeviceKey, "host/devices/d", 1000)
	require.NoError(t, err)
	second, err := Generate(StdCrypto{}, testDeviceKey, "host/devices/d", 1000)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	shifted, err := Generate(StdCrypto{}, testDeviceKey, "host/devices/d", 1001)
	require.NoError(t, err)
	assert.NotEqual(t, first, shifted)
}

func TestGenerateBadKey(t *testing.T) {
	_, err := Generate(StdCrypto{}, "not!base64**", "host/devices/d", 1000)
	assert.ErrorIs(t, err, ErrCrypto)
}

type failingCrypto struct {
	StdCrypto
}

func (failingCrypto) HMACSHA256(key, data []byte) ([]byte, error) {
	return nil, errors.New("hardware unavailable")
}

func TestGenerateCryptoFailure(t *testing.T) {
	_, err := Generate(failingCrypto{}, testDeviceKey, "host/devices/d", 1000)
	assert.ErrorIs(t, err, ErrCrypto)
}

func TestNeedsRefresh(t *testing.T) {
	tests := []struct {
		name   string
		now    uint32
		expiry uint32
		want   bool
	}{
		{"fresh", 1000, 2000, false},
		{"just outside threshold", 1000, 1031, false},
		{"on threshold", 1000, 1030, true},
		{"inside threshold", 1000, 1010, true},
		{"already expired", 2000, 1000, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NeedsRefresh(tt.now, tt.expiry))
		})
	}
}
