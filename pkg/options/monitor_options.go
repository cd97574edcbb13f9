package options

import (
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*MonitorOptions)(nil)

// DefaultMonitorURL is the Wiener Linien realtime monitor endpoint.
const DefaultMonitorURL = "https://www.wienerlinien.at/ogd_realtime/monitor"

// MonitorOptions configures access to the transit authority's departure monitor.
type MonitorOptions struct {
	BaseURL string        `json:"base-url" mapstructure:"base-url" validate:"required,url"`
	Timeout time.Duration `json:"timeout" mapstructure:"timeout" validate:"gt=0"`
}

func NewMonitorOptions() *MonitorOptions {
	return &MonitorOptions{
		BaseURL: DefaultMonitorURL,
		Timeout: 10 * time.Second,
	}
}

func (o *MonitorOptions) Validate() []error {
	if o == nil {
		return nil
	}
	return ValidateStruct(o)
}

func (o *MonitorOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.BaseURL, "monitor.base-url", o.BaseURL, "Departure monitor endpoint, queried with ?rbl=<stop id>.")
	fs.DurationVar(&o.Timeout, "monitor.timeout", o.Timeout, "Timeout of a single departure request.")
}
