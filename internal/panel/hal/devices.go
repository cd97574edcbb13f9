package hal

import (
	"time"

	"k8s.io/utils/clock"

	"github.com/autopeer-io/transitpanel/internal/panel/core"
	"github.com/autopeer-io/transitpanel/pkg/log"
)

// WatchdogDevice is a watchdog that must be released on shutdown.
type WatchdogDevice interface {
	core.Watchdog
	Close() error
}

// Config selects and parameterizes the device adapters.
type Config struct {
	// Mock replaces every adapter with its simulated counterpart.
	Mock bool

	// Interface is the wireless network interface.
	Interface string

	// WatchdogDevice is the watchdog character device. Empty runs without one.
	WatchdogDevice  string
	WatchdogTimeout time.Duration

	Clock clock.Clock
}

// Devices bundles the device adapters the panel runs on.
type Devices struct {
	Radio    core.Radio
	Watchdog WatchdogDevice
	Power    core.Power
}

// Open builds the adapters for the current platform. A watchdog device that
// cannot be opened is reported and replaced by a logging stand-in.
func Open(cfg Config) *Devices {
	if cfg.Clock == nil {
		cfg.Clock = clock.RealClock{}
	}
	if cfg.Mock {
		log.Info("Using simulated devices")
		return &Devices{
			Radio:    NewMockRadio(),
			Watchdog: LogWatchdog{},
			Power:    ClockPower{Clock: cfg.Clock},
		}
	}

	radio, power := platformDevices(cfg)
	d := &Devices{Radio: radio, Power: power, Watchdog: LogWatchdog{}}

	if cfg.WatchdogDevice != "" {
		wd, err := OpenWatchdog(cfg.WatchdogDevice, cfg.WatchdogTimeout)
		if err != nil {
			log.Error(err, "Running without hardware watchdog")
		} else {
			d.Watchdog = wd
		}
	}
	return d
}

// Close releases the watchdog.
func (d *Devices) Close() error {
	return d.Watchdog.Close()
}
