package render

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/autopeer-io/transitpanel/internal/panel/core"
	"github.com/autopeer-io/transitpanel/internal/transit"
)

// Width budgets of the e-paper character grid. Lengths count runes.
const (
	MaxDestinationLen = 14
	DestinationKeep   = 13
	DestinationMarker = "."

	MaxLineLen = 50
	LineKeep   = 37
	LineMarker = "..."
)

// Layout of the departure board in pixels.
const (
	MarginX     = 5
	TimestampY  = 5
	StopX       = 0
	FirstStopY  = 25
	RowHeight   = 20
	StopSpacing = 10
)

// SplashText is shown while the panel boots.
const SplashText = "Wiener Linien Monitor - initializing"

// MissingCountdown stands in for a departure without a countdown.
const MissingCountdown = "-"

// Row is a single text run on the board.
type Row struct {
	Text string
	X, Y int
	// Stop is true for a stop heading.
	Stop bool
}

// Error reports a frame that could not be committed to the display.
type Error struct {
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("render departures: %v", e.Err) }

func (e *Error) Unwrap() error { return e.Err }

// Renderer draws a departure model onto a display.
type Renderer struct {
	display core.Display
}

func NewRenderer(d core.Display) *Renderer {
	return &Renderer{display: d}
}

// Splash draws the boot screen.
func (r *Renderer) Splash() error {
	r.display.Clear()
	r.display.Text(SplashText, MarginX, TimestampY)
	if err := r.display.Show(); err != nil {
		return &Error{Err: err}
	}
	return nil
}

// Render clears the display, draws now and every stop of m, then commits the frame.
// It returns the rows it drew, including the timestamp.
func (r *Renderer) Render(m *transit.Model, now string) ([]Row, error) {
	rows := append([]Row{{Text: now, X: MarginX, Y: TimestampY}}, Compose(m)...)

	r.display.Clear()
	for _, row := range rows {
		r.display.Text(row.Text, row.X, row.Y)
	}
	if err := r.display.Show(); err != nil {
		return rows, &Error{Err: err}
	}
	return rows, nil
}

// Compose lays out the stops of m below the timestamp. Stops without lines are skipped.
func Compose(m *transit.Model) []Row {
	var rows []Row
	y := FirstStopY
	for _, stop := range m.Stops() {
		if len(stop.Lines) == 0 {
			continue
		}
		rows = append(rows, Row{Text: stop.Name, X: StopX, Y: y, Stop: true})
		y += RowHeight

		for _, ln := range stop.Lines {
			for _, dest := range ln.Destinations {
				rows = append(rows, Row{Text: FormatRow(ln.Name, dest), X: StopX, Y: y})
				y += RowHeight
			}
		}
		y += StopSpacing
	}
	return rows
}

// FormatRow composes "<line> -> <destination>: <countdowns>" within the width budgets.
func FormatRow(line string, dest *transit.Destination) string {
	text := fmt.Sprintf("%s -> %s: %s", line, TruncateDestination(dest.Name), Countdowns(dest.Departures))
	return TruncateLine(text)
}

// Countdowns joins the countdowns of deps with ", ".
func Countdowns(deps []transit.Departure) string {
	parts := make([]string, len(deps))
	for i, d := range deps {
		if d.Countdown == nil {
			parts[i] = MissingCountdown
			continue
		}
		parts[i] = strconv.Itoa(*d.Countdown)
	}
	return strings.Join(parts, ", ")
}

func TruncateDestination(s string) string {
	return truncate(s, MaxDestinationLen, DestinationKeep, DestinationMarker)
}

func TruncateLine(s string) string {
	return truncate(s, MaxLineLen, LineKeep, LineMarker)
}

func truncate(s string, limit, keep int, marker string) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:keep]) + marker
}

// FormatTime renders t as d.m.yyyy HH:MM:SS.
func FormatTime(t time.Time) string {
	return fmt.Sprintf("%d.%d.%d %02d:%02d:%02d",
		t.Day(), int(t.Month()), t.Year(), t.Hour(), t.Minute(), t.Second())
}
