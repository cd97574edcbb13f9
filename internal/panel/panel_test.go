package panel

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"

	"github.com/autopeer-io/transitpanel/internal/panel/hal"
	"github.com/autopeer-io/transitpanel/internal/panel/render"
	"github.com/autopeer-io/transitpanel/internal/panel/wlan"
	"github.com/autopeer-io/transitpanel/internal/transit"
)

// stubRadio associates immediately unless broken.
type stubRadio struct {
	mu     sync.Mutex
	up     bool
	broken bool
}

func (r *stubRadio) SetActive(active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !active {
		r.up = false
	}
	return nil
}

func (r *stubRadio) Associate(string, string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.broken {
		r.up = true
	}
	return nil
}

func (r *stubRadio) Disassociate() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.up = false
	return nil
}

func (r *stubRadio) IsConnected() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.up
}

func (r *stubRadio) Address() (string, bool) { return "10.0.0.7", r.IsConnected() }

func (r *stubRadio) set(up, broken bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.up, r.broken = up, broken
}

type countingWatchdog struct{ feeds int }

func (w *countingWatchdog) Feed() { w.feeds++ }

type recordingDisplay struct {
	current []string
	frames  [][]string
	err     error
}

func (d *recordingDisplay) Clear()                  { d.current = nil }
func (d *recordingDisplay) Text(s string, _, _ int) { d.current = append(d.current, s) }

func (d *recordingDisplay) Show() error {
	d.frames = append(d.frames, d.current)
	return d.err
}

func (d *recordingDisplay) last() []string {
	if len(d.frames) == 0 {
		return nil
	}
	return d.frames[len(d.frames)-1]
}

type recordingPower struct {
	calls []time.Duration
	err   error
}

func (p *recordingPower) Suspend(_ context.Context, d time.Duration) error {
	p.calls = append(p.calls, d)
	return p.err
}

type stubFetcher struct {
	bodies map[transit.StopID]string
	calls  []transit.StopID
	after  func(id transit.StopID)
}

func (f *stubFetcher) FetchRaw(_ context.Context, id transit.StopID) (transit.RawResponse, error) {
	f.calls = append(f.calls, id)
	if f.after != nil {
		defer f.after(id)
	}
	body, ok := f.bodies[id]
	if !ok {
		return transit.RawResponse{}, &transit.FetchError{StopID: id, StatusCode: http.StatusNotFound}
	}
	return transit.RawResponse{StopID: id, Body: []byte(body)}, nil
}

type stubSyncer struct {
	calls int
	err   error
}

func (s *stubSyncer) Sync(context.Context) error {
	s.calls++
	return s.err
}

type syncFunc func(ctx context.Context) error

func (f syncFunc) Sync(ctx context.Context) error { return f(ctx) }

func monitorJSON(stop, line, towards string, countdowns ...int) string {
	deps := make([]string, len(countdowns))
	for i, c := range countdowns {
		deps[i] = fmt.Sprintf(`{"departureTime":{"countdown":%d}}`, c)
	}
	return fmt.Sprintf(`{"data":{"monitors":[{"locationStop":{"properties":{"title":%q}},`+
		`"lines":[{"name":%q,"towards":%q,"departures":{"departure":[%s]}}]}]}}`,
		stop, line, towards, strings.Join(deps, ","))
}

type testEnv struct {
	radio   *stubRadio
	wd      *countingWatchdog
	display *recordingDisplay
	power   *recordingPower
	clock   *clocktesting.FakeClock
	metrics *Metrics
}

func newTestPanel(stations []transit.StopID, interval time.Duration, f Fetcher) (*Panel, *testEnv) {
	env := &testEnv{
		radio:   &stubRadio{up: true},
		wd:      &countingWatchdog{},
		display: &recordingDisplay{},
		power:   &recordingPower{},
		clock:   clocktesting.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)),
		metrics: NewMetrics(interval, len(stations)),
	}
	p := New(Settings{
		StationIDs:      stations,
		UpdateInterval:  interval,
		WatchdogTimeout: 6 * time.Second,
		SSID:            "home",
		Password:        "secret",
		ConnectTimeout:  2 * time.Second,
		Location:        time.UTC,
	}, Devices{
		Radio:    env.radio,
		Watchdog: env.wd,
		Display:  env.display,
		Power:    env.power,
		Fetcher:  f,
		Clock:    env.clock,
		Metrics:  env.metrics,
	})
	return p, env
}

func TestRunCycleRendersDepartures(t *testing.T) {
	f := &stubFetcher{bodies: map[transit.StopID]string{
		"1444": monitorJSON("Floridsdorf", "U1", "Floridsdorf", 3),
	}}
	p, env := newTestPanel([]transit.StopID{"1444"}, 5*time.Second, f)

	report := p.RunCycle(context.Background())

	require.Len(t, report.Stops, 1)
	assert.Equal(t, StopResult{StopID: "1444", Departures: 1}, report.Stops[0])
	assert.NoError(t, report.RenderErr)
	assert.Equal(t, 3, report.Rows)
	assert.Equal(t, SleepIdle, report.SleepMode)
	assert.Equal(t, StateSleeping, p.State())

	assert.Equal(t, []string{"1.6.2025 12:00:00", "Floridsdorf", "U1 -> Floridsdorf: 3"}, env.display.last())
	assert.Contains(t, env.display.last(), "U1 -> Floridsdorf: 3")
}

func TestRunCycleFetchErrorDoesNotBlockOtherStops(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("rbl") {
		case "2":
			_, _ = w.Write([]byte(monitorJSON("Karlsplatz", "U1", "Leopoldau", 3, 8)))
		case "3":
			_, _ = w.Write([]byte("<html>maintenance</html>"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	p, env := newTestPanel([]transit.StopID{"1", "2", "3"}, 5*time.Second, transit.NewClient(srv.URL))

	report := p.RunCycle(context.Background())

	require.Len(t, report.Stops, 3)

	var ferr *transit.FetchError
	require.ErrorAs(t, report.Stops[0].Err, &ferr)
	assert.Equal(t, http.StatusNotFound, ferr.StatusCode)

	assert.NoError(t, report.Stops[1].Err)
	assert.Equal(t, 2, report.Stops[1].Departures)

	var perr *transit.ParseError
	assert.ErrorAs(t, report.Stops[2].Err, &perr)

	assert.Contains(t, env.display.last(), "U1 -> Leopoldau: 3, 8")
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.StopFetches.WithLabelValues(OutcomeFetchError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.StopFetches.WithLabelValues(OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.StopFetches.WithLabelValues(OutcomeParseError)))
	assert.Equal(t, 2.0, testutil.ToFloat64(env.metrics.Departures))
}

func TestRunCycleSleepMode(t *testing.T) {
	tests := []struct {
		interval    time.Duration
		mode        SleepMode
		suspends    int
		idleElapsed time.Duration
	}{
		{interval: 30 * time.Second, mode: SleepIdle, idleElapsed: 30 * time.Second},
		{interval: 59 * time.Second, mode: SleepIdle, idleElapsed: 59 * time.Second},
		{interval: 60 * time.Second, mode: SleepPowerSave, suspends: 1},
		{interval: 300 * time.Second, mode: SleepPowerSave, suspends: 1},
	}
	for _, tt := range tests {
		t.Run(tt.interval.String(), func(t *testing.T) {
			p, env := newTestPanel(nil, tt.interval, &stubFetcher{})
			start := env.clock.Now()

			report := p.RunCycle(context.Background())

			assert.Equal(t, tt.mode, report.SleepMode)
			assert.Equal(t, tt.mode, SleepModeFor(tt.interval))
			assert.Len(t, env.power.calls, tt.suspends)
			if tt.suspends > 0 {
				assert.Equal(t, tt.interval, env.power.calls[0])
			}
			assert.Equal(t, RenderSettle+tt.idleElapsed, env.clock.Since(start))
		})
	}
}

func TestIdleSleepFeedsWatchdog(t *testing.T) {
	p, env := newTestPanel(nil, 30*time.Second, &stubFetcher{})

	p.RunCycle(context.Background())

	// after render, before sleep, ten 3s slices, after wake
	assert.Equal(t, 13, env.wd.feeds)
}

func TestPowerSaveFailureFallsBackToIdle(t *testing.T) {
	p, env := newTestPanel(nil, 90*time.Second, &stubFetcher{})
	env.power.err = errors.New("rtcwake: no wakealarm")
	start := env.clock.Now()

	report := p.RunCycle(context.Background())

	assert.Equal(t, SleepPowerSave, report.SleepMode)
	assert.Len(t, env.power.calls, 1)
	assert.Equal(t, RenderSettle+90*time.Second, env.clock.Since(start))
}

func TestRunCycleReconnectFailureSkipsStop(t *testing.T) {
	var p *Panel
	var env *testEnv
	dropped := false
	f := &stubFetcher{
		bodies: map[transit.StopID]string{
			"A": monitorJSON("Karlsplatz", "U1", "Oberlaa", 5),
			"B": monitorJSON("Schottentor", "D", "Nußdorf", 2),
		},
		after: func(id transit.StopID) {
			if id == "A" && !dropped {
				dropped = true
				env.radio.set(false, true)
			}
		},
	}
	p, env = newTestPanel([]transit.StopID{"A", "B"}, 5*time.Second, f)

	report := p.RunCycle(context.Background())

	require.Len(t, report.Stops, 2)
	assert.Equal(t, 1, report.Stops[0].Departures)
	assert.True(t, report.Stops[1].Skipped)
	assert.ErrorIs(t, report.Stops[1].Err, ErrConnectivity)
	assert.Equal(t, []transit.StopID{"A"}, f.calls)
	// The failed reconnect took 4.5s before the frame was drawn.
	assert.Equal(t, []string{"1.6.2025 12:00:04", "Karlsplatz", "U1 -> Oberlaa: 5"}, env.display.last())
	assert.Equal(t, SleepIdle, report.SleepMode)
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.Reconnects.WithLabelValues(OutcomeFailure)))
	assert.False(t, p.Online())

	// The next cycle reconnects and fetches both stops again.
	env.radio.set(false, false)
	report = p.RunCycle(context.Background())

	assert.Equal(t, []transit.StopID{"A", "A", "B"}, f.calls)
	for _, s := range report.Stops {
		assert.NoError(t, s.Err)
	}
	assert.Contains(t, env.display.last(), "D -> Nußdorf: 2")
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.Reconnects.WithLabelValues(OutcomeSuccess)))
	assert.True(t, p.Online())
}

func TestRunCycleRenderFailureIsNotFatal(t *testing.T) {
	f := &stubFetcher{bodies: map[transit.StopID]string{"1": monitorJSON("Karlsplatz", "U1", "Oberlaa", 5)}}
	p, env := newTestPanel([]transit.StopID{"1"}, 5*time.Second, f)
	env.display.err = errors.New("busy pin stuck")
	start := env.clock.Now()

	report := p.RunCycle(context.Background())

	var rerr *render.Error
	require.ErrorAs(t, report.RenderErr, &rerr)
	assert.Equal(t, SleepIdle, report.SleepMode)
	assert.Equal(t, 5*time.Second, env.clock.Since(start), "no settle after a failed commit")
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.RenderFailures))
}

func TestRunCycleResetsModel(t *testing.T) {
	f := &stubFetcher{bodies: map[transit.StopID]string{"1": monitorJSON("Karlsplatz", "U1", "Oberlaa", 5)}}
	p, env := newTestPanel([]transit.StopID{"1"}, 5*time.Second, f)

	p.RunCycle(context.Background())
	p.RunCycle(context.Background())

	assert.Equal(t, []string{"1.6.2025 12:00:06", "Karlsplatz", "U1 -> Oberlaa: 5"}, env.display.last())
}

func TestRunFailsWithoutConnectivity(t *testing.T) {
	p, env := newTestPanel([]transit.StopID{"1"}, 5*time.Second, &stubFetcher{})
	env.radio.set(false, true)

	err := p.Run(context.Background())

	assert.ErrorIs(t, err, ErrConnectivity)
	assert.Empty(t, env.display.frames)
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := &stubFetcher{
		bodies: map[transit.StopID]string{"1": monitorJSON("Karlsplatz", "U1", "Oberlaa", 5)},
		after:  func(transit.StopID) { cancel() },
	}
	p, env := newTestPanel([]transit.StopID{"1"}, 5*time.Second, f)
	env.radio.set(false, false)
	syncer := &stubSyncer{err: &hal.ClockSyncError{Server: "pool.ntp.org", Err: errors.New("timeout")}}
	p.syncer = syncer

	require.NoError(t, p.Run(ctx))

	assert.Equal(t, 1, syncer.calls)
	assert.Equal(t, []transit.StopID{"1"}, f.calls)
	require.Len(t, env.display.frames, 2)
	assert.Equal(t, []string{render.SplashText}, env.display.frames[0])
	assert.Contains(t, env.display.frames[1], "U1 -> Oberlaa: 5")
}

func TestRunCycleFeedsWatchdogAcrossFailingStops(t *testing.T) {
	var env *testEnv
	var atFetch []int
	f := &stubFetcher{after: func(transit.StopID) { atFetch = append(atFetch, env.wd.feeds) }}

	p, e := newTestPanel([]transit.StopID{"1", "2", "3", "4"}, 5*time.Second, f)
	env = e

	report := p.RunCycle(context.Background())

	require.Len(t, report.Stops, 4)
	for _, st := range report.Stops {
		var ferr *transit.FetchError
		assert.ErrorAs(t, st.Err, &ferr)
	}
	// One feed entering each stop, one leaving it.
	assert.Equal(t, []int{1, 3, 5, 7}, atFetch)
}

func TestRunCycleFeedsWatchdogAcrossSkippedStops(t *testing.T) {
	p, env := newTestPanel([]transit.StopID{"1", "2"}, 5*time.Second, &stubFetcher{})
	env.radio.set(false, true)

	p.RunCycle(context.Background())

	// Reconnect polls feed on their own, the stop boundaries add four more.
	pollFeeds := 2 * int(2*time.Second/wlan.PollInterval)
	assert.GreaterOrEqual(t, env.wd.feeds, pollFeeds+4)
}

func TestRunFeedsWatchdogBeforeClockSync(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p, env := newTestPanel(nil, 5*time.Second, &stubFetcher{})
	atSync := -1
	p.syncer = syncFunc(func(context.Context) error {
		atSync = env.wd.feeds
		cancel()
		return nil
	})

	require.NoError(t, p.Run(ctx))

	// Startup feed, then a fresh one after the splash commit.
	assert.Equal(t, 2, atSync)
	require.Len(t, env.display.frames, 1)
}

func TestRouter(t *testing.T) {
	metrics := NewMetrics(time.Minute, 2)
	metrics.Cycles.Inc()
	ready := false
	router := NewRouter(metrics, func() bool { return ready })

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	assert.Equal(t, http.StatusOK, get("/healthz").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get("/readyz").Code)
	ready = true
	assert.Equal(t, http.StatusOK, get("/readyz").Code)

	rec := get("/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "transitpanel_cycles_total 1")
	assert.Contains(t, rec.Body.String(), "transitpanel_update_interval_seconds 60")
	assert.Contains(t, rec.Body.String(), "transitpanel_stations 2")

	assert.Equal(t, http.StatusNotFound, get("/unknown").Code)
}
