package options

import (
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*WLANOptions)(nil)

// WLANOptions holds the wireless credentials and association timeout.
type WLANOptions struct {
	SSID     string `json:"ssid" mapstructure:"ssid" validate:"required"`
	Password string `json:"password" mapstructure:"password"`

	// Timeout is the association timeout in seconds.
	Timeout int `json:"timeout" mapstructure:"timeout" validate:"gt=0"`

	// Interface is the network interface the radio is bound to.
	Interface string `json:"interface" mapstructure:"interface" validate:"required"`
}

func NewWLANOptions() *WLANOptions {
	return &WLANOptions{
		SSID:      "YourSSID",
		Password:  "YourPassword",
		Timeout:   15,
		Interface: "wlan0",
	}
}

// TimeoutDuration returns Timeout as a time.Duration.
func (o *WLANOptions) TimeoutDuration() time.Duration {
	return time.Duration(o.Timeout) * time.Second
}

func (o *WLANOptions) Validate() []error {
	if o == nil {
		return nil
	}
	return ValidateStruct(o)
}

func (o *WLANOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.SSID, "wlan.ssid", o.SSID, "SSID of the wireless network.")
	fs.StringVar(&o.Password, "wlan.password", o.Password, "Password of the wireless network.")
	fs.IntVar(&o.Timeout, "wlan.timeout", o.Timeout, "Association timeout in seconds.")
	fs.StringVar(&o.Interface, "wlan.interface", o.Interface, "Wireless network interface.")
}
