package transit

import (
	"encoding/json"
)

// ParseInto decodes raw and appends its departures to m, creating stops, lines and
// destinations on first encounter. A body that is not valid JSON returns a *ParseError
// and leaves m untouched. Missing fields never fail the parse.
func ParseInto(m *Model, raw RawResponse) error {
	var resp monitorResponse
	if err := json.Unmarshal(raw.Body, &resp); err != nil {
		return &ParseError{StopID: raw.StopID, Err: err}
	}

	monitors := resp.monitors()
	for i := range monitors {
		mon := &monitors[i]
		stop := m.Stop(mon.title())

		for j := range mon.Lines {
			ln := &mon.Lines[j]
			dest := stop.Line(ln.name()).Destination(ln.towards())

			entries := ln.departures()
			for k := range entries {
				dest.Departures = append(dest.Departures, entries[k].toDeparture())
			}
		}
	}
	return nil
}
