package hal

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/autopeer-io/transitpanel/internal/panel/core"
	"github.com/autopeer-io/transitpanel/pkg/log"
)

var _ core.Power = (*RTCWakePower)(nil)

// RTCWakePower suspends to RAM and arms the RTC alarm to wake the device up.
type RTCWakePower struct {
	run Runner
}

func NewRTCWakePower(run Runner) *RTCWakePower {
	if run == nil {
		run = execRunner
	}
	return &RTCWakePower{run: run}
}

// Suspend blocks until the RTC alarm fires after d, rounded up to whole seconds.
func (p *RTCWakePower) Suspend(ctx context.Context, d time.Duration) error {
	secs := int(math.Ceil(d.Seconds()))
	if secs < 1 {
		secs = 1
	}
	log.Info("Entering power-saving sleep", "seconds", secs)
	_, err := p.run(ctx, "rtcwake", "-m", "mem", "-s", strconv.Itoa(secs))
	return err
}
