package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDPSResponseTopic(t *testing.T) {
	tests := []struct {
		name  string
		topic string
		want  DPSResponse
		ok    bool
	}{
		{
			name:  "accepted with retry-after",
			topic: "$dps/registrations/res/202/?$rid=1&retry-after=3",
			want:  DPSResponse{Status: 202, RequestID: "1", RetryAfter: 3},
			ok:    true,
		},
		{
			name:  "assigned without retry-after",
			topic: "$dps/registrations/res/200/?$rid=1",
			want:  DPSResponse{Status: 200, RequestID: "1"},
			ok:    true,
		},
		{
			name:  "error status",
			topic: "$dps/registrations/res/401/?$rid=1",
			want:  DPSResponse{Status: 401, RequestID: "1"},
			ok:    true,
		},
		{
			name:  "not a dps topic",
			topic: "$iothub/twin/res/200/?$rid=1",
			ok:    false,
		},
		{
			name:  "malformed status",
			topic: "$dps/registrations/res/abc/?$rid=1",
			ok:    false,
		},
		{
			name:  "missing query separator",
			topic: "$dps/registrations/res/200",
			ok:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDPSResponseTopic(tt.topic)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestParseCommandTopic(t *testing.T) {
	cmd, ok := ParseCommandTopic("$iothub/methods/POST/reboot/?$rid=5")
	require.True(t, ok)
	assert.Equal(t, Command{Name: "reboot", RequestID: "5"}, cmd)

	cmd, ok = ParseCommandTopic("$iothub/methods/POST/thermostat1*getMaxMinReport/?$rid=8")
	require.True(t, ok)
	assert.Equal(t, "thermostat1", cmd.Component)
	assert.Equal(t, "getMaxMinReport", cmd.Name)
	assert.Equal(t, "8", cmd.RequestID)

	_, ok = ParseCommandTopic("$iothub/methods/POST//?$rid=5")
	assert.False(t, ok)

	_, ok = ParseCommandTopic("devices/mydevice/messages/events/")
	assert.False(t, ok)
}

func TestParseTwinResponseTopic(t *testing.T) {
	resp, ok := ParseTwinResponseTopic("$iothub/twin/res/200/?$rid=3")
	require.True(t, ok)
	assert.Equal(t, TwinResponse{Status: 200, RequestID: "3"}, resp)
	assert.False(t, resp.IsError())

	resp, ok = ParseTwinResponseTopic("$iothub/twin/res/204/?$rid=4&$version=6")
	require.True(t, ok)
	assert.Equal(t, "6", resp.Version)

	resp, ok = ParseTwinResponseTopic("$iothub/twin/res/429/?$rid=9")
	require.True(t, ok)
	assert.True(t, resp.IsError())

	_, ok = ParseTwinResponseTopic("$iothub/twin/PATCH/properties/desired/?$version=2")
	assert.False(t, ok)
}

func TestIsWritablePropertyTopic(t *testing.T) {
	assert.True(t, IsWritablePropertyTopic("$iothub/twin/PATCH/properties/desired/?$version=2"))
	assert.False(t, IsWritablePropertyTopic("$iothub/twin/res/200/?$rid=3"))
}
