package display

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"k8s.io/utils/clock"

	"github.com/autopeer-io/transitpanel/internal/panel/core"
	"github.com/autopeer-io/transitpanel/pkg/log"
	"github.com/autopeer-io/transitpanel/pkg/mqtt"
)

// publishTimeout bounds the publication of a single frame.
const publishTimeout = 5 * time.Second

// TextRun is a string drawn at a position.
type TextRun struct {
	Text string `json:"text"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

// Frame is the payload published for every committed frame.
type Frame struct {
	DeviceID    string    `json:"deviceId"`
	CommittedAt time.Time `json:"committedAt"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	Runs        []TextRun `json:"runs"`
}

var _ core.Display = (*Mirror)(nil)

// Mirror publishes every committed frame to an MQTT topic as a retained message.
type Mirror struct {
	client   mqtt.Client
	topic    string
	deviceID string
	clock    clock.PassiveClock

	mu   sync.Mutex
	runs []TextRun
}

func NewMirror(client mqtt.Client, topic, deviceID string, clk clock.PassiveClock) *Mirror {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Mirror{client: client, topic: topic, deviceID: deviceID, clock: clk}
}

func (m *Mirror) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = nil
}

func (m *Mirror) Text(s string, x, y int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, TextRun{Text: s, X: x, Y: y})
}

// Show publishes the frame. A frame committed while the broker is unreachable is dropped.
func (m *Mirror) Show() error {
	m.mu.Lock()
	frame := Frame{
		DeviceID:    m.deviceID,
		CommittedAt: m.clock.Now().UTC(),
		Width:       Width,
		Height:      Height,
		Runs:        append([]TextRun(nil), m.runs...),
	}
	m.mu.Unlock()

	payload, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("marshal frame: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	err = m.client.Publish(ctx, m.topic, 1, true, payload)
	if errors.Is(err, mqtt.ErrNotConnected) {
		log.Debug("Broker unreachable, frame not mirrored", "topic", m.topic)
		return nil
	}
	if err != nil {
		return fmt.Errorf("publish frame to %s: %w", m.topic, err)
	}
	return nil
}
