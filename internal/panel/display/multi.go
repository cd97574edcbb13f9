package display

import (
	"sync"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/autopeer-io/transitpanel/internal/panel/core"
	"github.com/autopeer-io/transitpanel/pkg/log"
)

var (
	_ core.Display = (*Echo)(nil)
	_ core.Display = (Multi)(nil)
)

// Echo logs every text run when a frame is committed.
type Echo struct {
	mu   sync.Mutex
	runs []TextRun
}

func (e *Echo) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.runs = nil
}

func (e *Echo) Text(s string, x, y int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.runs = append(e.runs, TextRun{Text: s, X: x, Y: y})
}

func (e *Echo) Show() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, r := range e.runs {
		log.Info("Display text", "text", r.Text, "x", r.X, "y", r.Y)
	}
	log.Info("Departures displayed on panel", "runs", len(e.runs))
	return nil
}

// Multi fans every call out to a set of displays.
type Multi []core.Display

func (m Multi) Clear() {
	for _, d := range m {
		d.Clear()
	}
}

func (m Multi) Text(s string, x, y int) {
	for _, d := range m {
		d.Text(s, x, y)
	}
}

// Show commits every display and aggregates their errors.
func (m Multi) Show() error {
	var errs []error
	for _, d := range m {
		if err := d.Show(); err != nil {
			errs = append(errs, err)
		}
	}
	return utilerrors.NewAggregate(errs)
}
