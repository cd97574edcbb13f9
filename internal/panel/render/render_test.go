package render

import (
	"errors"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autopeer-io/transitpanel/internal/transit"
)

type recordingDisplay struct {
	texts   []Row
	clears  int
	shows   int
	showErr error
}

func (d *recordingDisplay) Clear() {
	d.clears++
	d.texts = nil
}

func (d *recordingDisplay) Text(s string, x, y int) {
	d.texts = append(d.texts, Row{Text: s, X: x, Y: y})
}

func (d *recordingDisplay) Show() error {
	d.shows++
	return d.showErr
}

func countdown(n int) transit.Departure { return transit.Departure{Countdown: &n} }

func TestRenderScenario(t *testing.T) {
	m := transit.NewModel()
	dest := m.Stop("Floridsdorf").Line("U1").Destination("Floridsdorf")
	dest.Departures = append(dest.Departures, countdown(3))

	d := &recordingDisplay{}
	rows, err := NewRenderer(d).Render(m, "1.6.2025 12:00:00")
	require.NoError(t, err)

	assert.Equal(t, 1, d.clears)
	assert.Equal(t, 1, d.shows)
	assert.Equal(t, rows, d.texts)
	assert.Equal(t, []Row{
		{Text: "1.6.2025 12:00:00", X: MarginX, Y: TimestampY},
		{Text: "Floridsdorf", X: StopX, Y: FirstStopY, Stop: true},
		{Text: "U1 -> Floridsdorf: 3", X: StopX, Y: FirstStopY + RowHeight},
	}, rows)
}

func TestComposeLayout(t *testing.T) {
	m := transit.NewModel()
	a := m.Stop("Karlsplatz")
	a.Line("U1").Destination("Leopoldau").Departures = []transit.Departure{countdown(3), {}, countdown(8)}
	a.Line("U1").Destination("Oberlaa").Departures = []transit.Departure{countdown(5)}
	m.Stop("Empty")
	m.Stop("Schottentor").Line("D").Destination("Nußdorf")

	rows := Compose(m)

	assert.Equal(t, []Row{
		{Text: "Karlsplatz", Y: 25, Stop: true},
		{Text: "U1 -> Leopoldau: 3, -, 8", Y: 45},
		{Text: "U1 -> Oberlaa: 5", Y: 65},
		{Text: "Schottentor", Y: 95, Stop: true},
		{Text: "D -> Nußdorf: ", Y: 115},
	}, rows)
}

func TestTruncateDestination(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Leopoldau", "Leopoldau"},
		{"Exactly14Chars", "Exactly14Chars"},
		{"Lainz, Wolkersbergenstraße", "Lainz, Wolker."},
		{"Großfeldsiedlung", "Großfeldsiedl."},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := TruncateDestination(tt.in)
			assert.Equal(t, tt.want, got)
			if utf8.RuneCountInString(tt.in) > MaxDestinationLen {
				assert.Equal(t, 14, utf8.RuneCountInString(got))
			}
		})
	}
}

func TestTruncateLine(t *testing.T) {
	for _, n := range []int{51, 60, 200} {
		got := TruncateLine(strings.Repeat("x", n))
		assert.Equal(t, 40, utf8.RuneCountInString(got))
		assert.True(t, strings.HasSuffix(got, LineMarker))
	}

	exact := strings.Repeat("ä", MaxLineLen)
	assert.Equal(t, exact, TruncateLine(exact))
}

func TestFormatRowAppliesBothBudgets(t *testing.T) {
	dest := &transit.Destination{Name: "Lainz, Wolkersbergenstraße"}
	for i := 0; i < 12; i++ {
		dest.Departures = append(dest.Departures, countdown(10+i))
	}

	got := FormatRow("62", dest)

	assert.Equal(t, 40, utf8.RuneCountInString(got))
	assert.True(t, strings.HasPrefix(got, "62 -> Lainz, Wolker.: 10, 11"))
}

func TestRenderWrapsShowError(t *testing.T) {
	d := &recordingDisplay{showErr: errors.New("spi timeout")}

	_, err := NewRenderer(d).Render(transit.NewModel(), "now")

	var rerr *Error
	require.ErrorAs(t, err, &rerr)
	assert.EqualError(t, rerr.Err, "spi timeout")
}

func TestSplash(t *testing.T) {
	d := &recordingDisplay{}
	require.NoError(t, NewRenderer(d).Splash())
	assert.Equal(t, []Row{{Text: SplashText, X: MarginX, Y: TimestampY}}, d.texts)
}

func TestFormatTime(t *testing.T) {
	vienna, err := time.LoadLocation("Europe/Vienna")
	require.NoError(t, err)

	ts := time.Date(2025, 6, 1, 10, 4, 5, 0, time.UTC).In(vienna)
	assert.Equal(t, "1.6.2025 12:04:05", FormatTime(ts))
}
