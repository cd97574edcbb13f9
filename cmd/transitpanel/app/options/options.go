package options

import (
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/spf13/pflag"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	cliflag "k8s.io/component-base/cli/flag"

	"github.com/autopeer-io/transitpanel/internal/panel"
	"github.com/autopeer-io/transitpanel/internal/transit"
	"github.com/autopeer-io/transitpanel/pkg/app"
	"github.com/autopeer-io/transitpanel/pkg/log"
	"github.com/autopeer-io/transitpanel/pkg/options"
)

// PanelOptions is the option tree of the departure panel.
type PanelOptions struct {
	// WatchdogInterval is the hardware watchdog timeout in milliseconds.
	WatchdogInterval int `json:"wdt_interval" mapstructure:"wdt_interval"`
	// StationIDs lists the stops shown on the panel, in display order.
	StationIDs []string `json:"station_ids" mapstructure:"station_ids"`
	// UpdateInterval is the pause between two refreshes in seconds.
	UpdateInterval int `json:"update_interval" mapstructure:"update_interval"`
	// Timezone is the IANA zone the panel timestamp is printed in.
	Timezone string `json:"timezone" mapstructure:"timezone"`

	WLANOptions    *options.WLANOptions    `json:"wlan" mapstructure:"wlan"`
	MonitorOptions *options.MonitorOptions `json:"monitor" mapstructure:"monitor"`
	DisplayOptions *options.DisplayOptions `json:"display" mapstructure:"display"`
	NTPOptions     *options.NTPOptions     `json:"ntp" mapstructure:"ntp"`
	HALOptions     *options.HALOptions     `json:"hal" mapstructure:"hal"`
	MqttOptions    *options.MqttOptions    `json:"mqtt" mapstructure:"mqtt"`
	MetricsOptions *options.MetricsOptions `json:"metrics" mapstructure:"metrics"`
	Log            *log.Options            `json:"log" mapstructure:"log"`

	location *time.Location
}

var _ app.NamedFlagSetOptions = (*PanelOptions)(nil)

func NewPanelOptions() *PanelOptions {
	return &PanelOptions{
		WatchdogInterval: 6000,
		StationIDs:       []string{"1444", "1478"},
		UpdateInterval:   60,
		Timezone:         "Europe/Vienna",
		WLANOptions:      options.NewWLANOptions(),
		MonitorOptions:   options.NewMonitorOptions(),
		DisplayOptions:   options.NewDisplayOptions(),
		NTPOptions:       options.NewNTPOptions(),
		HALOptions:       options.NewHALOptions(),
		MqttOptions:      options.NewMqttOptions(),
		MetricsOptions:   options.NewMetricsOptions(),
		Log:              log.NewOptions(),
	}
}

func (o *PanelOptions) Flags() cliflag.NamedFlagSets {
	fss := cliflag.NamedFlagSets{}
	o.addPanelFlags(fss.FlagSet("panel"))
	o.WLANOptions.AddFlags(fss.FlagSet("wlan"))
	o.MonitorOptions.AddFlags(fss.FlagSet("monitor"))
	o.DisplayOptions.AddFlags(fss.FlagSet("display"))
	o.NTPOptions.AddFlags(fss.FlagSet("ntp"))
	o.HALOptions.AddFlags(fss.FlagSet("hal"))
	o.MqttOptions.AddFlags(fss.FlagSet("mqtt"))
	o.MetricsOptions.AddFlags(fss.FlagSet("metrics"))
	o.Log.AddFlags(fss.FlagSet("log"))
	return fss
}

func (o *PanelOptions) addPanelFlags(fs *pflag.FlagSet) {
	fs.IntVar(&o.WatchdogInterval, "wdt_interval", o.WatchdogInterval, "Hardware watchdog timeout in milliseconds.")
	fs.StringSliceVar(&o.StationIDs, "station_ids", o.StationIDs, "Stop ids (RBL numbers) shown on the panel, in order.")
	fs.IntVar(&o.UpdateInterval, "update_interval", o.UpdateInterval, "Seconds between two refreshes. 60 or more suspends the board in between.")
	fs.StringVar(&o.Timezone, "timezone", o.Timezone, "Time zone of the panel timestamp.")
}

// Complete resolves the timezone.
func (o *PanelOptions) Complete() error {
	if o.Timezone == "" {
		o.location = time.Local
		return nil
	}
	loc, err := time.LoadLocation(o.Timezone)
	if err != nil {
		return fmt.Errorf("unknown timezone %q: %w", o.Timezone, err)
	}
	o.location = loc
	return nil
}

func (o *PanelOptions) Validate() error {
	errs := []error{}
	if o.WatchdogInterval <= 0 {
		errs = append(errs, fmt.Errorf("wdt_interval must be positive, got %d", o.WatchdogInterval))
	}
	if o.UpdateInterval <= 0 {
		errs = append(errs, fmt.Errorf("update_interval must be positive, got %d", o.UpdateInterval))
	}
	for i, id := range o.StationIDs {
		if id == "" {
			errs = append(errs, fmt.Errorf("station_ids[%d] is empty", i))
		}
	}
	errs = append(errs, o.WLANOptions.Validate()...)
	errs = append(errs, o.MonitorOptions.Validate()...)
	errs = append(errs, o.DisplayOptions.Validate()...)
	errs = append(errs, o.NTPOptions.Validate()...)
	errs = append(errs, o.HALOptions.Validate()...)
	if o.DisplayOptions.MQTT {
		errs = append(errs, o.MqttOptions.Validate()...)
	}
	errs = append(errs, o.MetricsOptions.Validate()...)
	errs = append(errs, o.Log.Validate()...)
	return utilerrors.NewAggregate(errs)
}

func (o *PanelOptions) Config() (*panel.Config, error) {
	loc := o.location
	if loc == nil {
		if err := o.Complete(); err != nil {
			return nil, err
		}
		loc = o.location
	}

	ids := make([]transit.StopID, len(o.StationIDs))
	for i, id := range o.StationIDs {
		ids[i] = transit.StopID(id)
	}

	return &panel.Config{
		StationIDs:       ids,
		UpdateInterval:   time.Duration(o.UpdateInterval) * time.Second,
		WatchdogInterval: time.Duration(o.WatchdogInterval) * time.Millisecond,
		Location:         loc,
		WLANOptions:      o.WLANOptions,
		MonitorOptions:   o.MonitorOptions,
		DisplayOptions:   o.DisplayOptions,
		NTPOptions:       o.NTPOptions,
		HALOptions:       o.HALOptions,
		MqttOptions:      o.MqttOptions,
		MetricsOptions:   o.MetricsOptions,
	}, nil
}
