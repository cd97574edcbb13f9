package options

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"
)

var (
	_ IOptions = (*DisplayOptions)(nil)
	_ IOptions = (*NTPOptions)(nil)
)

// DisplayOptions selects the sinks a rendered frame is committed to.
type DisplayOptions struct {
	// Framebuffer is the PNG file each committed frame is written to. Empty disables it.
	Framebuffer string `json:"framebuffer" mapstructure:"framebuffer"`

	// MQTT mirrors committed frames to the broker configured by MqttOptions.
	MQTT bool `json:"mqtt" mapstructure:"mqtt"`

	// Echo logs every committed text run.
	Echo bool `json:"echo" mapstructure:"echo"`
}

func NewDisplayOptions() *DisplayOptions {
	return &DisplayOptions{Echo: true}
}

// Enabled reports whether at least one sink is configured.
func (o *DisplayOptions) Enabled() bool {
	return o.Framebuffer != "" || o.MQTT || o.Echo
}

func (o *DisplayOptions) Validate() []error {
	if o == nil || o.Framebuffer == "" {
		return nil
	}
	if filepath.Ext(o.Framebuffer) != ".png" {
		return []error{fmt.Errorf("display.framebuffer %q must end in .png", o.Framebuffer)}
	}
	return nil
}

func (o *DisplayOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Framebuffer, "display.framebuffer", o.Framebuffer, "Write every committed frame to this PNG file.")
	fs.BoolVar(&o.MQTT, "display.mqtt", o.MQTT, "Mirror committed frames to the MQTT broker.")
	fs.BoolVar(&o.Echo, "display.echo", o.Echo, "Log every committed text line.")
}

// NTPOptions configures the one-time clock synchronization at startup.
type NTPOptions struct {
	// Server is the NTP host. Empty disables the sync.
	Server  string        `json:"server" mapstructure:"server"`
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
}

func NewNTPOptions() *NTPOptions {
	return &NTPOptions{
		Server:  "pool.ntp.org",
		Timeout: 5 * time.Second,
	}
}

func (o *NTPOptions) Validate() []error {
	if o == nil || o.Server == "" {
		return nil
	}
	if o.Timeout <= 0 {
		return []error{fmt.Errorf("ntp.timeout must be positive, got %s", o.Timeout)}
	}
	return nil
}

func (o *NTPOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Server, "ntp.server", o.Server, "NTP server used to set the clock at startup. Empty disables it.")
	fs.DurationVar(&o.Timeout, "ntp.timeout", o.Timeout, "Timeout of the NTP query.")
}
