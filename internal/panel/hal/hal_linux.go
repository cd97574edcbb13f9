//go:build linux

package hal

import (
	"fmt"
	"math"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"github.com/autopeer-io/transitpanel/internal/panel/core"
	"github.com/autopeer-io/transitpanel/pkg/log"
)

// watchdogMagicClose disarms the watchdog when written before close.
const watchdogMagicClose = "V"

var _ WatchdogDevice = (*DeviceWatchdog)(nil)

// DeviceWatchdog is the kernel watchdog device.
type DeviceWatchdog struct {
	f *os.File
}

// OpenWatchdog opens path and programs timeout, rounded up to whole seconds.
func OpenWatchdog(path string, timeout time.Duration) (WatchdogDevice, error) {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("open watchdog %s: %w", path, err)
	}

	secs := int(math.Ceil(timeout.Seconds()))
	if secs < 1 {
		secs = 1
	}
	if err := unix.IoctlSetPointerInt(int(f.Fd()), unix.WDIOC_SETTIMEOUT, secs); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("set watchdog timeout to %ds: %w", secs, err)
	}

	log.Info("Hardware watchdog armed", "device", path, "timeoutSeconds", secs)
	return &DeviceWatchdog{f: f}, nil
}

func (w *DeviceWatchdog) Feed() {
	if _, err := w.f.Write([]byte{0}); err != nil {
		log.Error(err, "Failed to feed watchdog")
	}
}

// Close disarms the watchdog and releases the device.
func (w *DeviceWatchdog) Close() error {
	_, _ = w.f.WriteString(watchdogMagicClose)
	return w.f.Close()
}

func platformDevices(cfg Config) (core.Radio, core.Power) {
	return NewNmcliRadio(cfg.Interface, nil), NewRTCWakePower(nil)
}

func setSystemTime(t time.Time) error {
	tv := unix.NsecToTimeval(t.UnixNano())
	return unix.Settimeofday(&tv)
}
