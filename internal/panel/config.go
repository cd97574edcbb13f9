package panel

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/denisbrodbeck/machineid"
	"k8s.io/utils/clock"

	"github.com/autopeer-io/transitpanel/internal/panel/core"
	"github.com/autopeer-io/transitpanel/internal/panel/display"
	"github.com/autopeer-io/transitpanel/internal/panel/hal"
	"github.com/autopeer-io/transitpanel/internal/transit"
	"github.com/autopeer-io/transitpanel/pkg/log"
	"github.com/autopeer-io/transitpanel/pkg/mqtt"
	mqtttopic "github.com/autopeer-io/transitpanel/pkg/mqtt/topic"
	"github.com/autopeer-io/transitpanel/pkg/options"
)

// appID salts the machine id so the published device id cannot be mapped back to it.
const appID = "transitpanel"

// Config is the validated runtime configuration of a panel.
type Config struct {
	StationIDs       []transit.StopID
	UpdateInterval   time.Duration
	WatchdogInterval time.Duration
	Location         *time.Location

	WLANOptions    *options.WLANOptions
	MonitorOptions *options.MonitorOptions
	DisplayOptions *options.DisplayOptions
	NTPOptions     *options.NTPOptions
	HALOptions     *options.HALOptions
	MqttOptions    *options.MqttOptions
	MetricsOptions *options.MetricsOptions
}

// StatusMessage is the retained online flag of a panel.
type StatusMessage struct {
	DeviceID string `json:"deviceId"`
	Online   bool   `json:"online"`
	Reason   string `json:"reason,omitempty"`
}

// NewFetcher returns the departure client described by the monitor options.
func (cfg *Config) NewFetcher(wd core.Watchdog) *transit.Client {
	return transit.NewClient(cfg.MonitorOptions.BaseURL,
		transit.WithTimeout(cfg.MonitorOptions.Timeout),
		transit.WithWatchdog(wd),
		transit.WithLogger(log.Logr().WithName("transit")),
	)
}

// NewRunner wires devices, sinks and servers into a Runner.
func (cfg *Config) NewRunner() (*Runner, error) {
	clk := clock.RealClock{}

	devices := hal.Open(hal.Config{
		Mock:            cfg.HALOptions.Mock,
		Interface:       cfg.WLANOptions.Interface,
		WatchdogDevice:  cfg.HALOptions.WatchdogDevice,
		WatchdogTimeout: cfg.WatchdogInterval,
		Clock:           clk,
	})

	r := &Runner{devices: devices}

	var sinks display.Multi
	if cfg.DisplayOptions.Framebuffer != "" {
		sinks = append(sinks, display.NewFramebuffer(cfg.DisplayOptions.Framebuffer))
	}
	if cfg.DisplayOptions.Echo {
		sinks = append(sinks, &display.Echo{})
	}
	if cfg.DisplayOptions.MQTT {
		id := deviceID()
		client, builder, err := cfg.initMqttClientAndTopicBuilder(id)
		if err != nil {
			_ = devices.Close()
			return nil, fmt.Errorf("failed to init mqtt client: %w", err)
		}
		r.mqtt, r.deviceID, r.statusTopic = client, id, builder.Status(id)
		sinks = append(sinks, display.NewMirror(client, builder.Frame(id), id, clk))
	}

	var syncer core.TimeSyncer
	if cfg.NTPOptions.Server != "" {
		syncer = hal.NewNTPSyncer(cfg.NTPOptions.Server, cfg.NTPOptions.Timeout)
	}

	metrics := NewMetrics(cfg.UpdateInterval, len(cfg.StationIDs))

	devs := Devices{
		Radio:    devices.Radio,
		Watchdog: devices.Watchdog,
		Power:    devices.Power,
		Syncer:   syncer,
		Fetcher:  cfg.NewFetcher(devices.Watchdog),
		Clock:    clk,
		Metrics:  metrics,
	}
	if len(sinks) > 0 {
		devs.Display = sinks
	}

	r.panel = New(Settings{
		StationIDs:      cfg.StationIDs,
		UpdateInterval:  cfg.UpdateInterval,
		WatchdogTimeout: cfg.WatchdogInterval,
		SSID:            cfg.WLANOptions.SSID,
		Password:        cfg.WLANOptions.Password,
		ConnectTimeout:  cfg.WLANOptions.TimeoutDuration(),
		Location:        cfg.Location,
	}, devs)

	if cfg.MetricsOptions.Enabled() {
		r.server = NewServer(cfg.MetricsOptions.Addr, cfg.MetricsOptions.ShutdownTimeout, metrics, r.panel.Online)
	}
	return r, nil
}

func (cfg *Config) initMqttClientAndTopicBuilder(id string) (mqtt.Client, *mqtttopic.TopicBuilder, error) {
	topicBuilder := mqtttopic.NewTopicBuilder(cfg.MqttOptions.TopicRoot)

	mqttConfig := cfg.MqttOptions.ToClientConfig()
	if mqttConfig.ClientID == "" {
		mqttConfig.ClientID = fmt.Sprintf("transitpanel-%s", id)
	}

	// No timestamp in the payload: the broker's reception time is authoritative.
	offlinePayload, _ := json.Marshal(StatusMessage{
		DeviceID: id,
		Online:   false,
		Reason:   "UnexpectedDisconnect",
	})

	mqttConfig.WillTopic = topicBuilder.Status(id)
	mqttConfig.WillPayload = offlinePayload
	mqttConfig.WillQoS = 1
	mqttConfig.WillRetain = true

	mqttClient, err := mqtt.NewClient(mqttConfig)
	if err != nil {
		return nil, nil, err
	}
	return mqttClient, topicBuilder, nil
}

// deviceID derives a stable identifier from the machine id, falling back to the hostname.
func deviceID() string {
	id, err := machineid.ProtectedID(appID)
	if err == nil && id != "" {
		return id[:16]
	}
	log.Warn("Machine id unavailable, using hostname as device id", "error", err)
	host, _ := os.Hostname()
	if host == "" {
		host = "unknown"
	}
	return host
}
