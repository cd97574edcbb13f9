package options

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidateAddress(t *testing.T) {
	tests := []struct {
		addr    string
		wantErr bool
	}{
		{addr: ":9100"},
		{addr: "127.0.0.1:9100"},
		{addr: "0.0.0.0:0"},
		{addr: "9100", wantErr: true},
		{addr: "127.0.0.1:http", wantErr: true},
		{addr: "127.0.0.1:70000", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			err := ValidateAddress(tt.addr)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestWLANOptions(t *testing.T) {
	o := NewWLANOptions()
	assert.Empty(t, o.Validate())
	assert.Equal(t, 15*time.Second, o.TimeoutDuration())

	o.SSID = ""
	o.Timeout = 0
	assert.Len(t, o.Validate(), 2)
}

func TestMonitorOptions(t *testing.T) {
	o := NewMonitorOptions()
	assert.Empty(t, o.Validate())

	o.BaseURL = "wienerlinien"
	assert.Len(t, o.Validate(), 1)
}

func TestDisplayOptions(t *testing.T) {
	o := NewDisplayOptions()
	assert.True(t, o.Enabled())
	assert.Empty(t, o.Validate())

	o.Echo = false
	assert.False(t, o.Enabled())

	o.Framebuffer = "/run/panel/frame.png"
	assert.True(t, o.Enabled())
	assert.Empty(t, o.Validate())

	o.Framebuffer = "/run/panel/frame"
	assert.Len(t, o.Validate(), 1)
}

func TestNTPOptions(t *testing.T) {
	o := NewNTPOptions()
	assert.Empty(t, o.Validate())

	o.Timeout = 0
	assert.Len(t, o.Validate(), 1)

	o.Server = ""
	assert.Empty(t, o.Validate())
}

func TestMetricsOptions(t *testing.T) {
	o := NewMetricsOptions()
	assert.False(t, o.Enabled())
	assert.Empty(t, o.Validate())

	o.Addr = ":9100"
	assert.True(t, o.Enabled())
	assert.Empty(t, o.Validate())

	o.Addr = "nope"
	assert.Len(t, o.Validate(), 1)
}

func TestMqttOptions(t *testing.T) {
	o := NewMqttOptions()
	assert.Empty(t, o.Validate())

	cfg := o.ToClientConfig()
	assert.Equal(t, o.Broker, cfg.BrokerURL)
	assert.Equal(t, uint16(60), cfg.KeepAlive)

	o.Broker = "localhost 1883"
	assert.NotEmpty(t, o.Validate())
}

func TestHALOptions(t *testing.T) {
	o := NewHALOptions()
	assert.False(t, o.Mock)
	assert.Equal(t, "/dev/watchdog", o.WatchdogDevice)
	assert.Empty(t, o.Validate())
}
