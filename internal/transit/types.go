package transit

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

// UnknownName replaces a missing stop title, line name or destination.
const UnknownName = "Unknown"

// The monitor response, every level optional:
//
//	{data: {monitors: [{locationStop: {properties: {title}},
//	  lines: [{name, towards, departures: {departure: [{departureTime: {timePlanned, timeReal, countdown}}]}}]}]}}
type monitorResponse struct {
	Data *monitorData `json:"data"`
}

type monitorData struct {
	Monitors []monitor `json:"monitors"`
}

type monitor struct {
	LocationStop *locationStop `json:"locationStop"`
	Lines        []line        `json:"lines"`
}

type locationStop struct {
	Properties *stopProperties `json:"properties"`
}

type stopProperties struct {
	Title optionalString `json:"title"`
}

type line struct {
	Name       optionalString `json:"name"`
	Towards    optionalString `json:"towards"`
	Departures *departureList `json:"departures"`
}

type departureList struct {
	Departure []departureEntry `json:"departure"`
}

type departureEntry struct {
	DepartureTime *departureTime `json:"departureTime"`
}

type departureTime struct {
	TimePlanned optionalString `json:"timePlanned"`
	TimeReal    optionalString `json:"timeReal"`
	Countdown   optionalInt    `json:"countdown"`
}

func (r *monitorResponse) monitors() []monitor {
	if r == nil || r.Data == nil {
		return nil
	}
	return r.Data.Monitors
}

func (m *monitor) title() string {
	if m.LocationStop == nil || m.LocationStop.Properties == nil {
		return UnknownName
	}
	return orUnknown(m.LocationStop.Properties.Title)
}

func (l *line) name() string    { return orUnknown(l.Name) }
func (l *line) towards() string { return orUnknown(l.Towards) }

func (l *line) departures() []departureEntry {
	if l.Departures == nil {
		return nil
	}
	return l.Departures.Departure
}

func (e *departureEntry) toDeparture() Departure {
	t := e.DepartureTime
	if t == nil {
		return Departure{}
	}
	return Departure{
		PlannedTime: formatTime(t.TimePlanned.value),
		RealTime:    formatTime(t.TimeReal.value),
		Countdown:   t.Countdown.value,
	}
}

// formatTime keeps the ISO8601 timestamp as delivered. An empty string is absent.
func formatTime(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	v := *s
	return &v
}

func orUnknown(s optionalString) string {
	if s.value == nil {
		return UnknownName
	}
	return *s.value
}

// optionalString decodes a JSON string. Any other value, null included, is absent.
type optionalString struct {
	value *string
}

func (o *optionalString) UnmarshalJSON(b []byte) error {
	o.value = nil

	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		o.value = &s
	}
	return nil
}

// optionalInt decodes an integer leniently: JSON numbers and numeric strings are
// accepted, anything else (including null or values outside the int range) leaves
// the value absent.
type optionalInt struct {
	value *int
}

func (o *optionalInt) UnmarshalJSON(b []byte) error {
	o.value = nil

	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}

	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil
	}

	switch v := raw.(type) {
	case float64:
		if v == math.Trunc(v) && v >= math.MinInt && v < math.MaxInt {
			n := int(v)
			o.value = &n
		}
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			o.value = &n
		}
	}
	return nil
}
