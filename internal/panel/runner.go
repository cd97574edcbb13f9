package panel

import (
	"context"
	"encoding/json"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/autopeer-io/transitpanel/internal/panel/hal"
	"github.com/autopeer-io/transitpanel/pkg/log"
	"github.com/autopeer-io/transitpanel/pkg/mqtt"
)

// announceTimeout bounds the wait for the broker before the online flag is dropped.
const announceTimeout = 30 * time.Second

// Runner owns a panel and its optional companions: the MQTT mirror connection and
// the health/metrics endpoint.
type Runner struct {
	panel   *Panel
	devices *hal.Devices
	server  *Server

	mqtt        mqtt.Client
	deviceID    string
	statusTopic string
}

// Panel returns the refresh loop.
func (r *Runner) Panel() *Panel {
	return r.panel
}

// Run blocks until ctx is canceled or the panel fails to start.
func (r *Runner) Run(ctx context.Context) error {
	defer func() {
		if err := r.devices.Close(); err != nil {
			log.Error(err, "Failed to release watchdog")
		}
	}()

	if r.mqtt != nil {
		if err := r.mqtt.Start(ctx); err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			r.mqtt.Disconnect(shutdownCtx)
		}()
		go r.announce(ctx)
	}

	g, ctx := errgroup.WithContext(ctx)
	if r.server != nil {
		g.Go(func() error {
			return r.server.Start(ctx)
		})
	}
	g.Go(func() error {
		return r.panel.Run(ctx)
	})

	err := g.Wait()
	log.Info("Panel shutting down...")
	return err
}

// announce publishes the retained online flag once the broker is reachable.
func (r *Runner) announce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, announceTimeout)
	defer cancel()

	if err := r.mqtt.AwaitConnection(ctx); err != nil {
		log.Warn("Broker not reachable, online flag not published", "error", err)
		return
	}

	payload, _ := json.Marshal(StatusMessage{DeviceID: r.deviceID, Online: true})
	if err := r.mqtt.Publish(ctx, r.statusTopic, 1, true, payload); err != nil {
		log.Error(err, "Failed to publish online flag")
		return
	}
	log.Info("Published online flag", "topic", r.statusTopic)
}
