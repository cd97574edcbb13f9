package hal

import (
	"context"
	"fmt"
	"time"

	"github.com/beevik/ntp"

	"github.com/autopeer-io/transitpanel/internal/panel/core"
	"github.com/autopeer-io/transitpanel/pkg/log"
)

var _ core.TimeSyncer = (*NTPSyncer)(nil)

// ClockSyncError reports a failed clock synchronization.
type ClockSyncError struct {
	Server string
	Err    error
}

func (e *ClockSyncError) Error() string {
	return fmt.Sprintf("sync clock with %s: %v", e.Server, e.Err)
}

func (e *ClockSyncError) Unwrap() error { return e.Err }

type queryFunc func(host string, opts ntp.QueryOptions) (*ntp.Response, error)

// NTPSyncer sets the system clock from an NTP server.
type NTPSyncer struct {
	server  string
	timeout time.Duration

	query   queryFunc
	setTime func(time.Time) error
	now     func() time.Time
}

func NewNTPSyncer(server string, timeout time.Duration) *NTPSyncer {
	return &NTPSyncer{
		server:  server,
		timeout: timeout,
		query:   ntp.QueryWithOptions,
		setTime: setSystemTime,
		now:     time.Now,
	}
}

// Sync queries the server once and applies the measured offset.
func (s *NTPSyncer) Sync(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return &ClockSyncError{Server: s.server, Err: err}
	}

	log.Info("Synchronizing time with NTP server", "server", s.server)
	resp, err := s.query(s.server, ntp.QueryOptions{Timeout: s.timeout})
	if err != nil {
		return &ClockSyncError{Server: s.server, Err: err}
	}
	if err := resp.Validate(); err != nil {
		return &ClockSyncError{Server: s.server, Err: err}
	}

	corrected := s.now().Add(resp.ClockOffset)
	if err := s.setTime(corrected); err != nil {
		return &ClockSyncError{Server: s.server, Err: fmt.Errorf("set system time: %w", err)}
	}

	log.Info("Local time after synchronization", "time", corrected, "offset", resp.ClockOffset)
	return nil
}
