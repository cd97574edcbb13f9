package panel

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/looplab/fsm"
	"k8s.io/utils/clock"

	"github.com/autopeer-io/transitpanel/internal/panel/core"
	"github.com/autopeer-io/transitpanel/internal/panel/render"
	"github.com/autopeer-io/transitpanel/internal/panel/wlan"
	"github.com/autopeer-io/transitpanel/internal/transit"
	"github.com/autopeer-io/transitpanel/pkg/log"
)

// ErrConnectivity is returned by Run when the initial WLAN connection fails.
var ErrConnectivity = errors.New("wlan connection failed")

// Fetcher retrieves the raw departure response of a stop.
type Fetcher interface {
	FetchRaw(ctx context.Context, stopID transit.StopID) (transit.RawResponse, error)
}

// Settings are the immutable refresh parameters.
type Settings struct {
	StationIDs     []transit.StopID
	UpdateInterval time.Duration

	// WatchdogTimeout bounds every wait between two feeds.
	WatchdogTimeout time.Duration

	SSID           string
	Password       string
	ConnectTimeout time.Duration

	Location *time.Location
}

// Devices are the collaborators the panel drives. Display and Syncer may be nil.
type Devices struct {
	Radio    core.Radio
	Watchdog core.Watchdog
	Display  core.Display
	Power    core.Power
	Syncer   core.TimeSyncer
	Fetcher  Fetcher
	Clock    clock.Clock
	Metrics  *Metrics
}

// Panel is the refresh loop of the departure board.
type Panel struct {
	settings Settings

	wlan     *wlan.Manager
	fetcher  Fetcher
	renderer *render.Renderer
	watchdog core.Watchdog
	power    core.Power
	syncer   core.TimeSyncer
	clock    clock.Clock
	metrics  *Metrics

	machine *fsm.FSM
	model   *transit.Model
}

func New(s Settings, d Devices) *Panel {
	if d.Clock == nil {
		d.Clock = clock.RealClock{}
	}
	if d.Watchdog == nil {
		d.Watchdog = core.NopWatchdog{}
	}
	if d.Metrics == nil {
		d.Metrics = NewMetrics(s.UpdateInterval, len(s.StationIDs))
	}
	if s.Location == nil {
		s.Location = time.Local
	}

	p := &Panel{
		settings: s,
		wlan: wlan.NewManager(d.Radio, d.Watchdog, d.Clock,
			wlan.WithCredentials(s.SSID, s.Password, s.ConnectTimeout)),
		fetcher:  d.Fetcher,
		watchdog: d.Watchdog,
		power:    d.Power,
		syncer:   d.Syncer,
		clock:    d.Clock,
		metrics:  d.Metrics,
		model:    transit.NewModel(),
	}
	if d.Display != nil {
		p.renderer = render.NewRenderer(d.Display)
	}
	p.machine = newMachine()
	return p
}

// Online reports the last known WLAN state. It is safe for concurrent use.
func (p *Panel) Online() bool {
	return p.wlan.Online()
}

// State returns the current refresh loop state.
func (p *Panel) State() string {
	return p.machine.Current()
}

// Run connects, synchronizes the clock once and then refreshes the board until
// ctx is canceled. Only a failed initial connection is returned as an error.
func (p *Panel) Run(ctx context.Context) error {
	log.Info("Starting transitpanel", "stations", p.settings.StationIDs,
		"updateInterval", p.settings.UpdateInterval, "watchdogTimeout", p.settings.WatchdogTimeout)
	p.watchdog.Feed()

	if !p.wlan.Connect(ctx, p.settings.SSID, p.settings.Password, p.settings.ConnectTimeout) {
		return fmt.Errorf("%w: ssid %q", ErrConnectivity, p.settings.SSID)
	}
	p.metrics.setConnected(true)
	addr, _ := p.wlan.Address()
	log.Info("WLAN is connected", "address", addr)

	if p.renderer != nil {
		if err := p.renderer.Splash(); err != nil {
			log.Error(err, "Failed to draw splash screen")
		}
	}

	p.watchdog.Feed()
	p.syncClock(ctx)

	for {
		if ctx.Err() != nil {
			log.Info("Refresh loop stopped")
			return nil
		}
		p.RunCycle(ctx)
	}
}

func (p *Panel) syncClock(ctx context.Context) {
	if p.syncer == nil {
		return
	}
	if err := p.syncer.Sync(ctx); err != nil {
		log.Error(err, "Error syncing time, keeping local clock")
	}
	p.watchdog.Feed()
}

func (p *Panel) now() string {
	return render.FormatTime(p.clock.Now().In(p.settings.Location))
}
