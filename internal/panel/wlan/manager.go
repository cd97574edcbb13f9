package wlan

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/looplab/fsm"
	"k8s.io/utils/clock"

	"github.com/autopeer-io/transitpanel/internal/panel/core"
	fsmutil "github.com/autopeer-io/transitpanel/internal/pkg/util/fsm"
	"github.com/autopeer-io/transitpanel/pkg/log"
)

// State is the association state of the radio as seen by the manager.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
)

const (
	// EventAssociate starts an association attempt.
	EventAssociate = "event_associate"
	// EventEstablish records a confirmed association.
	EventEstablish = "event_establish"
	// EventDrop records a lost, failed or released association.
	EventDrop = "event_drop"
)

const (
	// SettleDelay is the pause after toggling the radio.
	SettleDelay = time.Second
	// PollInterval is the association polling period.
	PollInterval = 250 * time.Millisecond
	// ReconnectSettle is the pause after a reconnect attempt.
	ReconnectSettle = 500 * time.Millisecond
)

type credentials struct {
	ssid     string
	password string
	timeout  time.Duration
}

// Manager owns the radio and tracks its association state.
// It is driven from the refresh loop only. Online may be called concurrently.
type Manager struct {
	radio    core.Radio
	watchdog core.Watchdog
	clock    clock.Clock

	machine *fsm.FSM
	online  atomic.Bool

	mu    sync.Mutex
	creds *credentials
}

// Option configures a Manager.
type Option func(*Manager)

// WithCredentials seeds the credentials Reconnect uses before the first Connect.
func WithCredentials(ssid, password string, timeout time.Duration) Option {
	return func(m *Manager) {
		m.creds = &credentials{ssid: ssid, password: password, timeout: timeout}
	}
}

// NewManager creates a Manager in the disconnected state.
func NewManager(radio core.Radio, wd core.Watchdog, clk clock.Clock, opts ...Option) *Manager {
	if wd == nil {
		wd = core.NopWatchdog{}
	}
	if clk == nil {
		clk = clock.RealClock{}
	}
	m := &Manager{
		radio:    radio,
		watchdog: wd,
		clock:    clk,
	}
	for _, o := range opts {
		o(m)
	}

	all := []string{string(StateDisconnected), string(StateConnecting), string(StateConnected)}
	m.machine = fsm.NewFSM(
		string(StateDisconnected),
		fsm.Events{
			{Name: EventAssociate, Src: []string{string(StateDisconnected), string(StateConnecting)}, Dst: string(StateConnecting)},
			{Name: EventEstablish, Src: all, Dst: string(StateConnected)},
			{Name: EventDrop, Src: all, Dst: string(StateDisconnected)},
		},
		fsm.Callbacks{
			"enter_state": m.onEnterState,
		},
	)
	return m
}

// State returns the current association state.
func (m *Manager) State() State {
	return State(m.machine.Current())
}

// Online reports the last known association state without touching the radio.
func (m *Manager) Online() bool {
	return m.online.Load()
}

// Connect brings the radio up and associates with ssid, polling until the
// association is confirmed or timeout elapses. The watchdog is fed on every poll.
func (m *Manager) Connect(ctx context.Context, ssid, password string, timeout time.Duration) bool {
	m.mu.Lock()
	m.creds = &credentials{ssid: ssid, password: password, timeout: timeout}
	m.mu.Unlock()

	log.Info("Connecting to WLAN", "ssid", ssid, "password", mask(password))

	m.toggle()

	if m.radio.IsConnected() {
		m.fire(ctx, EventEstablish)
		return true
	}

	m.fire(ctx, EventAssociate)
	if err := m.radio.Associate(ssid, password); err != nil {
		log.Error(err, "Failed to start association", "ssid", ssid)
		m.fire(ctx, EventDrop)
		return false
	}

	start := m.clock.Now()
	for !m.radio.IsConnected() {
		if ctx.Err() != nil || m.clock.Since(start) >= timeout {
			log.Warn("WLAN connection timed out", "ssid", ssid, "timeout", timeout)
			m.fire(ctx, EventDrop)
			return false
		}
		m.watchdog.Feed()
		m.clock.Sleep(PollInterval)
	}

	m.fire(ctx, EventEstablish)
	if addr, ok := m.radio.Address(); ok {
		log.Info("WLAN connected", "ssid", ssid, "address", addr)
	}
	return true
}

// IsConnected asks the radio whether the association is still up and updates the state.
func (m *Manager) IsConnected(ctx context.Context) bool {
	up := m.radio.IsConnected()
	switch {
	case up && m.State() != StateConnected:
		m.fire(ctx, EventEstablish)
	case !up && m.State() == StateConnected:
		m.fire(ctx, EventDrop)
	}
	return up
}

// Address returns the assigned address while connected.
func (m *Manager) Address() (string, bool) {
	if !m.radio.IsConnected() {
		return "", false
	}
	return m.radio.Address()
}

// Disconnect releases the association and powers the radio down. It is idempotent.
func (m *Manager) Disconnect(ctx context.Context) {
	if m.radio.IsConnected() {
		if err := m.radio.Disassociate(); err != nil {
			log.Error(err, "Failed to disassociate")
		}
	}
	if err := m.radio.SetActive(false); err != nil {
		log.Error(err, "Failed to deactivate radio")
	}
	m.fire(ctx, EventDrop)
	log.Info("WLAN disconnected")
}

// Reconnect drops the association and connects again with the last credentials.
func (m *Manager) Reconnect(ctx context.Context) bool {
	m.mu.Lock()
	creds := m.creds
	m.mu.Unlock()

	if creds == nil {
		log.Warn("Reconnect requested before any connect")
		return false
	}

	log.Info("Reconnecting WLAN", "ssid", creds.ssid)
	m.Disconnect(ctx)
	m.clock.Sleep(SettleDelay)
	ok := m.Connect(ctx, creds.ssid, creds.password, creds.timeout)
	m.clock.Sleep(ReconnectSettle)
	return ok
}

// toggle power cycles the radio so a stale association does not survive.
func (m *Manager) toggle() {
	if err := m.radio.SetActive(false); err != nil {
		log.Error(err, "Failed to deactivate radio")
	}
	m.clock.Sleep(SettleDelay)
	if err := m.radio.SetActive(true); err != nil {
		log.Error(err, "Failed to activate radio")
	}
}

func (m *Manager) fire(ctx context.Context, event string) {
	if err := fsmutil.Fire(ctx, m.machine, event); err != nil {
		log.Error(err, "WLAN state transition rejected", "event", event, "state", m.machine.Current())
	}
}

func (m *Manager) onEnterState(_ context.Context, e *fsm.Event) {
	m.online.Store(e.Dst == string(StateConnected))
	log.Debug("WLAN state changed", "from", e.Src, "to", e.Dst, "event", e.Event)
}

func mask(password string) string {
	if password == "" {
		return ""
	}
	return strings.Repeat("*", len(password))
}
