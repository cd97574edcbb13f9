//go:build !linux

package hal

import (
	"fmt"
	"time"

	"github.com/autopeer-io/transitpanel/internal/panel/core"
	"github.com/autopeer-io/transitpanel/pkg/log"
)

// OpenWatchdog is unsupported off Linux.
func OpenWatchdog(path string, _ time.Duration) (WatchdogDevice, error) {
	return nil, fmt.Errorf("watchdog device %s is only supported on linux", path)
}

func platformDevices(cfg Config) (core.Radio, core.Power) {
	return NewMockRadio(), ClockPower{Clock: cfg.Clock}
}

func setSystemTime(t time.Time) error {
	log.Info("[HAL-Mock] Would set system time", "time", t)
	return nil
}
