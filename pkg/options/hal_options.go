package options

import (
	"github.com/spf13/pflag"
)

var _ IOptions = (*HALOptions)(nil)

// HALOptions selects the device adapters.
type HALOptions struct {
	// Mock runs on simulated radio, watchdog and power devices.
	Mock bool `json:"mock" mapstructure:"mock"`

	// WatchdogDevice is the watchdog character device. Empty runs without one.
	WatchdogDevice string `json:"watchdog-device" mapstructure:"watchdog-device"`
}

func NewHALOptions() *HALOptions {
	return &HALOptions{
		WatchdogDevice: "/dev/watchdog",
	}
}

func (o *HALOptions) Validate() []error {
	return nil
}

func (o *HALOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.BoolVar(&o.Mock, "hal.mock", o.Mock, "Use simulated radio, watchdog and power devices.")
	fs.StringVar(&o.WatchdogDevice, "hal.watchdog-device", o.WatchdogDevice, "Watchdog device. Empty runs without a hardware watchdog.")
}
