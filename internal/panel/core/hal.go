package core

import (
	"context"
	"time"
)

// Radio is the wireless interface of the device.
// Implementations are thin wrappers around the platform network stack.
type Radio interface {
	// SetActive powers the radio up or down.
	SetActive(active bool) error

	// Associate starts associating with the given network. It does not wait.
	Associate(ssid, password string) error

	// Disassociate drops the current association.
	Disassociate() error

	// IsConnected queries the hardware for an established association.
	IsConnected() bool

	// Address returns the assigned network address, if any.
	Address() (string, bool)
}

// Watchdog is the hardware watchdog. Feed must be called more often than its timeout
// or the device is reset.
type Watchdog interface {
	Feed()
}

// Display is the e-paper panel frame buffer.
type Display interface {
	// Clear blanks the frame buffer.
	Clear()

	// Text draws s with its top-left corner at (x, y).
	Text(s string, x, y int)

	// Show commits the frame buffer to the physical screen.
	Show() error
}

// Power selects between low-power wait modes.
type Power interface {
	// Suspend puts the device into its power-saving sleep for d. Only a timer or
	// watchdog class event wakes it up.
	Suspend(ctx context.Context, d time.Duration) error
}

// TimeSyncer sets the local clock from a time service.
type TimeSyncer interface {
	Sync(ctx context.Context) error
}
