package hal

import (
	"context"
	"sync"
	"time"

	"k8s.io/utils/clock"

	"github.com/autopeer-io/transitpanel/internal/panel/core"
	"github.com/autopeer-io/transitpanel/pkg/log"
)

var (
	_ core.Radio    = (*MockRadio)(nil)
	_ core.Watchdog = (*LogWatchdog)(nil)
	_ core.Power    = (*ClockPower)(nil)
)

// MockRadio simulates a radio that associates immediately with any network.
type MockRadio struct {
	mu         sync.Mutex
	active     bool
	associated bool
	address    string
}

func NewMockRadio() *MockRadio {
	return &MockRadio{address: "127.0.0.1"}
}

func (r *MockRadio) SetActive(active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = active
	if !active {
		r.associated = false
	}
	log.Debug("[HAL-Mock] Radio power", "active", active)
	return nil
}

func (r *MockRadio) Associate(ssid, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active {
		return ErrRadioInactive
	}
	r.associated = true
	log.Debug("[HAL-Mock] Associated", "ssid", ssid)
	return nil
}

func (r *MockRadio) Disassociate() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.associated = false
	return nil
}

func (r *MockRadio) IsConnected() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.associated
}

func (r *MockRadio) Address() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.associated {
		return "", false
	}
	return r.address, true
}

// LogWatchdog stands in for a hardware watchdog and only logs feeds.
type LogWatchdog struct{}

func (LogWatchdog) Feed() {
	log.Debug("[HAL-Mock] Watchdog fed")
}

func (LogWatchdog) Close() error { return nil }

// ClockPower emulates the power-saving sleep by sleeping on a clock.
type ClockPower struct {
	Clock clock.Clock
}

func (p ClockPower) Suspend(ctx context.Context, d time.Duration) error {
	clk := p.Clock
	if clk == nil {
		clk = clock.RealClock{}
	}
	log.Debug("[HAL-Mock] Suspending", "duration", d)

	t := clk.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C():
		return nil
	}
}
