package transit

// StopID identifies a monitored stop (an RBL number).
type StopID string

// Departure is a single departure of a line towards a destination.
// A nil field means the upstream data did not carry it.
type Departure struct {
	PlannedTime *string
	RealTime    *string
	Countdown   *int
}

// Model is the departure board for one refresh cycle:
// stop name -> line name -> destination -> departures.
// Every level keeps insertion order. The zero value is not usable, call NewModel.
type Model struct {
	stops []*Stop
	index map[string]*Stop
}

// Stop groups the lines serving a stop.
type Stop struct {
	Name  string
	Lines []*Line
	index map[string]*Line
}

// Line groups the destinations of a line at a stop.
type Line struct {
	Name         string
	Destinations []*Destination
	index        map[string]*Destination
}

// Destination holds the departures of a line towards one destination.
type Destination struct {
	Name       string
	Departures []Departure
}

func NewModel() *Model {
	return &Model{index: make(map[string]*Stop)}
}

// Stops returns the stops in the order they were first seen.
func (m *Model) Stops() []*Stop {
	return m.stops
}

// Len returns the number of stops.
func (m *Model) Len() int {
	return len(m.stops)
}

// Stop returns the named stop, creating it on first use.
func (m *Model) Stop(name string) *Stop {
	if s, ok := m.index[name]; ok {
		return s
	}
	s := &Stop{Name: name, index: make(map[string]*Line)}
	m.stops = append(m.stops, s)
	m.index[name] = s
	return s
}

// Lookup returns the named stop without creating it.
func (m *Model) Lookup(name string) (*Stop, bool) {
	s, ok := m.index[name]
	return s, ok
}

// Departures counts every departure in the model.
func (m *Model) Departures() int {
	n := 0
	for _, s := range m.stops {
		n += s.Departures()
	}
	return n
}

// Line returns the named line, creating it on first use.
func (s *Stop) Line(name string) *Line {
	if l, ok := s.index[name]; ok {
		return l
	}
	l := &Line{Name: name, index: make(map[string]*Destination)}
	s.Lines = append(s.Lines, l)
	s.index[name] = l
	return l
}

// Departures counts the departures at the stop.
func (s *Stop) Departures() int {
	n := 0
	for _, l := range s.Lines {
		for _, d := range l.Destinations {
			n += len(d.Departures)
		}
	}
	return n
}

// Destination returns the named destination, creating it on first use.
func (l *Line) Destination(name string) *Destination {
	if d, ok := l.index[name]; ok {
		return d
	}
	d := &Destination{Name: name}
	l.Destinations = append(l.Destinations, d)
	l.index[name] = d
	return d
}
