package panel

import (
	"context"
	"time"

	"github.com/looplab/fsm"

	fsmutil "github.com/autopeer-io/transitpanel/internal/pkg/util/fsm"
	"github.com/autopeer-io/transitpanel/internal/transit"
	"github.com/autopeer-io/transitpanel/pkg/log"
)

// Refresh loop states.
const (
	StateInitializing         = "initializing"
	StateEnsuringConnectivity = "ensuring_connectivity"
	StateFetching             = "fetching"
	StateRendering            = "rendering"
	StateSleeping             = "sleeping"
)

// Refresh loop events.
const (
	EventBegin  = "event_begin"
	EventEnsure = "event_ensure"
	EventFetch  = "event_fetch"
	EventRender = "event_render"
	EventSleep  = "event_sleep"
)

const (
	// PowerSaveThreshold is the shortest interval slept in power-saving mode.
	PowerSaveThreshold = 60 * time.Second

	// RenderSettle is the pause after committing a frame.
	RenderSettle = time.Second
)

// SleepMode is the wait used between two cycles.
type SleepMode string

const (
	SleepIdle      SleepMode = "idle"
	SleepPowerSave SleepMode = "power_save"
)

// StopResult is the outcome of one stop in a cycle.
type StopResult struct {
	StopID transit.StopID
	// Skipped is set when the WLAN could not be restored for this stop.
	Skipped    bool
	Departures int
	Err        error
}

// CycleReport summarizes a refresh cycle.
type CycleReport struct {
	Stops     []StopResult
	Rows      int
	RenderErr error
	SleepMode SleepMode
	Duration  time.Duration
}

func newMachine() *fsm.FSM {
	return fsm.NewFSM(
		StateInitializing,
		fsm.Events{
			{Name: EventBegin, Src: []string{StateInitializing, StateEnsuringConnectivity, StateFetching, StateRendering, StateSleeping}, Dst: StateInitializing},
			{Name: EventEnsure, Src: []string{StateInitializing, StateEnsuringConnectivity, StateFetching}, Dst: StateEnsuringConnectivity},
			{Name: EventFetch, Src: []string{StateEnsuringConnectivity}, Dst: StateFetching},
			{Name: EventRender, Src: []string{StateInitializing, StateEnsuringConnectivity, StateFetching}, Dst: StateRendering},
			{Name: EventSleep, Src: []string{StateRendering}, Dst: StateSleeping},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				log.Debug("Refresh loop state changed", "from", e.Src, "to", e.Dst)
			},
		},
	)
}

func (p *Panel) fire(ctx context.Context, event string) {
	if err := fsmutil.Fire(ctx, p.machine, event); err != nil {
		log.Error(err, "Refresh loop transition rejected", "event", event, "state", p.machine.Current())
	}
}

// RunCycle runs one refresh cycle, sleep included. Failures are recorded in the
// report and never abort the cycle.
func (p *Panel) RunCycle(ctx context.Context) CycleReport {
	start := p.clock.Now()
	var report CycleReport

	p.fire(ctx, EventBegin)
	p.model = transit.NewModel()

	for _, id := range p.settings.StationIDs {
		log.Info("Departures for station", "stationID", id, "time", p.now())
		p.watchdog.Feed()

		p.fire(ctx, EventEnsure)
		if !p.ensureConnectivity(ctx) {
			log.Warn("Failed to reconnect to WLAN, skipping station", "stationID", id)
			p.metrics.StopFetches.WithLabelValues(OutcomeSkipped).Inc()
			report.Stops = append(report.Stops, StopResult{StopID: id, Skipped: true, Err: ErrConnectivity})
			p.watchdog.Feed()
			continue
		}

		p.fire(ctx, EventFetch)
		report.Stops = append(report.Stops, p.fetchStop(ctx, id))
		p.watchdog.Feed()
	}

	p.fire(ctx, EventRender)
	report.Rows, report.RenderErr = p.render()
	p.metrics.Departures.Set(float64(p.model.Departures()))
	p.watchdog.Feed()

	report.Duration = p.clock.Since(start)
	p.metrics.Cycles.Inc()
	p.metrics.CycleDuration.Observe(report.Duration.Seconds())

	p.fire(ctx, EventSleep)
	report.SleepMode = p.sleep(ctx)
	return report
}

func (p *Panel) ensureConnectivity(ctx context.Context) bool {
	if p.wlan.IsConnected(ctx) {
		p.metrics.setConnected(true)
		return true
	}

	log.Warn("WLAN not connected, attempting to reconnect")
	ok := p.wlan.Reconnect(ctx)
	p.metrics.setConnected(ok)
	if ok {
		p.metrics.Reconnects.WithLabelValues(OutcomeSuccess).Inc()
	} else {
		p.metrics.Reconnects.WithLabelValues(OutcomeFailure).Inc()
	}
	return ok
}

func (p *Panel) fetchStop(ctx context.Context, id transit.StopID) StopResult {
	res := StopResult{StopID: id}

	raw, err := p.fetcher.FetchRaw(ctx, id)
	if err != nil {
		log.Error(err, "Error fetching data for station", "stationID", id)
		p.metrics.StopFetches.WithLabelValues(OutcomeFetchError).Inc()
		res.Err = err
		return res
	}

	before := p.model.Departures()
	if err := transit.ParseInto(p.model, raw); err != nil {
		log.Error(err, "Error parsing data for station", "stationID", id)
		p.metrics.StopFetches.WithLabelValues(OutcomeParseError).Inc()
		res.Err = err
		return res
	}

	res.Departures = p.model.Departures() - before
	p.metrics.StopFetches.WithLabelValues(OutcomeOK).Inc()
	log.Info("Fetched departures", "stationID", id, "departures", res.Departures)
	return res
}

func (p *Panel) render() (int, error) {
	if p.renderer == nil {
		return 0, nil
	}

	rows, err := p.renderer.Render(p.model, p.now())
	if err != nil {
		log.Error(err, "Error displaying departures")
		p.metrics.RenderFailures.Inc()
		return len(rows), err
	}
	p.clock.Sleep(RenderSettle)
	return len(rows), nil
}

// SleepModeFor picks the wait used after a cycle.
func SleepModeFor(interval time.Duration) SleepMode {
	if interval >= PowerSaveThreshold {
		return SleepPowerSave
	}
	return SleepIdle
}

func (p *Panel) sleep(ctx context.Context) SleepMode {
	interval := p.settings.UpdateInterval
	mode := SleepModeFor(interval)
	log.Info("Sleeping", "duration", interval, "mode", mode)

	p.watchdog.Feed()
	defer p.watchdog.Feed()

	if mode == SleepPowerSave && p.power != nil {
		err := p.power.Suspend(ctx, interval)
		if err == nil || ctx.Err() != nil {
			return mode
		}
		log.Error(err, "Power-saving sleep failed, waiting idle instead")
	}

	p.idle(ctx, interval)
	return mode
}

// idle waits for d in slices of half the watchdog timeout, feeding in between.
func (p *Panel) idle(ctx context.Context, d time.Duration) {
	slice := p.settings.WatchdogTimeout / 2
	if slice <= 0 {
		slice = d
	}
	for remaining := d; remaining > 0 && ctx.Err() == nil; remaining -= slice {
		step := min(slice, remaining)
		p.clock.Sleep(step)
		p.watchdog.Feed()
	}
}
