package options

import (
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*MetricsOptions)(nil)

// MetricsOptions configures the optional health and prometheus HTTP endpoint.
type MetricsOptions struct {
	// Addr is the listen address. Empty disables the endpoint.
	Addr string `json:"addr" mapstructure:"addr"`

	// ShutdownTimeout bounds the graceful shutdown of the endpoint.
	ShutdownTimeout time.Duration `json:"shutdown-timeout" mapstructure:"shutdown-timeout"`
}

// NewMetricsOptions returns options with the endpoint disabled.
func NewMetricsOptions() *MetricsOptions {
	return &MetricsOptions{
		Addr:            "",
		ShutdownTimeout: 5 * time.Second,
	}
}

// Enabled reports whether an address was configured.
func (o *MetricsOptions) Enabled() bool {
	return o != nil && o.Addr != ""
}

// Validate is used to parse and validate the parameters entered by the user at
// the command line when the program starts.
func (o *MetricsOptions) Validate() []error {
	if !o.Enabled() {
		return nil
	}

	errors := []error{}

	if err := ValidateAddress(o.Addr); err != nil {
		errors = append(errors, err)
	}

	return errors
}

// AddFlags adds flags for the metrics endpoint to the specified FlagSet.
func (o *MetricsOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Addr, "metrics.addr", o.Addr, "Listen address for /healthz, /readyz and /metrics. Empty disables it.")
	fs.DurationVar(&o.ShutdownTimeout, "metrics.shutdown-timeout", o.ShutdownTimeout, "Timeout for shutting the metrics endpoint down.")
}
